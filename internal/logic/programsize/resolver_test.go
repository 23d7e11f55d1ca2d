package programsize

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cu-bench-sol/internal/consts"
	"cu-bench-sol/internal/ledger"
	"cu-bench-sol/internal/logic/loaderstate"
	"cu-bench-sol/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	programID   = types.PubkeyFromBase58("H2GM7Vci4vVTWUfM4CQ5gWuUXF56wgXC4CkUY2Ea7mgC")
	programData = types.PubkeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	authority   = types.PubkeyFromBase58("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
)

type fakeAccounts struct {
	accounts map[types.Pubkey]ledger.Account
	fetched  []types.Pubkey
}

func (f *fakeAccounts) Fetch(_ context.Context, addr types.Pubkey) (ledger.Account, error) {
	f.fetched = append(f.fetched, addr)
	acc, ok := f.accounts[addr]
	if !ok {
		return ledger.Account{}, fmt.Errorf("%w: %s", ledger.ErrNotFound, addr)
	}
	return acc, nil
}

func encode(t *testing.T, s loaderstate.State, extra int) []byte {
	t.Helper()
	b, err := loaderstate.Encode(s)
	require.NoError(t, err)
	return append(b, make([]byte, extra)...)
}

func TestResolve_ImmutableLoader(t *testing.T) {
	for _, owner := range []types.Pubkey{consts.BPFLoader, consts.BPFLoaderDeprecated} {
		f := &fakeAccounts{accounts: map[types.Pubkey]ledger.Account{
			programID: {Owner: owner, Data: make([]byte, 4096)},
		}}
		size, err := NewResolver(f).Resolve(context.Background(), programID)
		require.NoError(t, err)
		assert.Equal(t, 4096, size.ProgramBytes)
		assert.Equal(t, 4096, size.TotalBytes)
		assert.Nil(t, size.ProgramDataAddress)
		assert.Len(t, f.fetched, 1)
	}
}

func TestResolve_Upgradeable(t *testing.T) {
	auth := authority
	f := &fakeAccounts{accounts: map[types.Pubkey]ledger.Account{
		programID:   {Owner: consts.BPFLoaderUpgradeable, Data: encode(t, loaderstate.Program{ProgramDataAddress: programData}, 0)},
		programData: {Owner: consts.BPFLoaderUpgradeable, Data: encode(t, loaderstate.ProgramData{Slot: 10, UpgradeAuthority: &auth}, 18000)},
	}}

	size, err := NewResolver(f).Resolve(context.Background(), programID)
	require.NoError(t, err)
	assert.Equal(t, 18000+loaderstate.ProgramDataMetadataSize, size.TotalBytes)
	assert.Equal(t, size.TotalBytes-loaderstate.ProgramDataMetadataSize, size.ProgramBytes)
	require.NotNil(t, size.ProgramDataAddress)
	assert.Equal(t, programData, *size.ProgramDataAddress)
	assert.Equal(t, []types.Pubkey{programID, programData}, f.fetched)
}

func TestResolve_UnsupportedOwnerDoesNotDecode(t *testing.T) {
	f := &fakeAccounts{accounts: map[types.Pubkey]ledger.Account{
		// 数据本身是合法的 Program 记录，但 owner 不对，不应尝试解析或二次读取
		programID: {Owner: consts.SystemProgram, Data: encode(t, loaderstate.Program{ProgramDataAddress: programData}, 0)},
	}}

	_, err := NewResolver(f).Resolve(context.Background(), programID)
	assert.True(t, errors.Is(err, ErrUnsupportedOwner))
	assert.False(t, errors.Is(err, ErrInvalidAccountState))
	assert.Len(t, f.fetched, 1)
}

func TestResolve_InvalidAccountState(t *testing.T) {
	auth := authority
	cases := map[string]map[types.Pubkey]ledger.Account{
		"program account holds ProgramData": {
			programID: {Owner: consts.BPFLoaderUpgradeable, Data: encode(t, loaderstate.ProgramData{Slot: 1}, 10)},
		},
		"programdata account holds Buffer": {
			programID:   {Owner: consts.BPFLoaderUpgradeable, Data: encode(t, loaderstate.Program{ProgramDataAddress: programData}, 0)},
			programData: {Owner: consts.BPFLoaderUpgradeable, Data: encode(t, loaderstate.Buffer{Authority: &auth}, 0)},
		},
		"program account undecodable": {
			programID: {Owner: consts.BPFLoaderUpgradeable, Data: []byte{42, 0, 0, 0}},
		},
	}
	for name, accounts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewResolver(&fakeAccounts{accounts: accounts}).Resolve(context.Background(), programID)
			assert.True(t, errors.Is(err, ErrInvalidAccountState), "err=%v", err)
			assert.False(t, errors.Is(err, ErrUnsupportedOwner))
		})
	}

	// 解析失败时同时保留 ErrDecode
	_, err := NewResolver(&fakeAccounts{accounts: cases["program account undecodable"]}).Resolve(context.Background(), programID)
	assert.True(t, errors.Is(err, loaderstate.ErrDecode))
}

func TestResolve_NotFoundPropagates(t *testing.T) {
	f := &fakeAccounts{accounts: map[types.Pubkey]ledger.Account{
		programID: {Owner: consts.BPFLoaderUpgradeable, Data: encode(t, loaderstate.Program{ProgramDataAddress: programData}, 0)},
	}}
	_, err := NewResolver(f).Resolve(context.Background(), programID)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))

	_, err = NewResolver(&fakeAccounts{}).Resolve(context.Background(), programID)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}
