package programsize

import (
	"context"
	"errors"
	"fmt"

	"cu-bench-sol/internal/consts"
	"cu-bench-sol/internal/ledger"
	"cu-bench-sol/internal/logic/loaderstate"
	"cu-bench-sol/internal/types"
	"cu-bench-sol/pkg/logger"
)

var (
	// ErrUnsupportedOwner 账户存在，但 owner 不是任何已知 loader，即根本不是程序
	ErrUnsupportedOwner = errors.New("account is not owned by a supported loader")
	// ErrInvalidAccountState 是程序，但 loader 记录不是预期的 variant
	ErrInvalidAccountState = errors.New("invalid loader account state")
)

// AccountFetcher account.Reader 满足此接口
type AccountFetcher interface {
	Fetch(ctx context.Context, addr types.Pubkey) (ledger.Account, error)
}

// Size 程序占用的链上空间
type Size struct {
	ProgramBytes       int           // 纯字节码长度
	TotalBytes         int           // 存放字节码的账户数据总长度
	Owner              types.Pubkey  // program 账户的 loader
	ProgramDataAddress *types.Pubkey // 仅可升级 loader 有值
}

type Resolver struct {
	accounts AccountFetcher
}

func NewResolver(accounts AccountFetcher) *Resolver {
	return &Resolver{accounts: accounts}
}

// Resolve 计算程序大小，不做重试：
//   - 不可升级 loader：字节码直接存放，两个大小都等于数据长度
//   - 可升级 loader：Program -> 读取 programdata 账户 -> ProgramData，扣除头部长度
//   - 其他 owner：ErrUnsupportedOwner，不尝试解析
func (r *Resolver) Resolve(ctx context.Context, programID types.Pubkey) (Size, error) {
	acc, err := r.accounts.Fetch(ctx, programID)
	if err != nil {
		return Size{}, fmt.Errorf("fetch program account %s: %w", programID, err)
	}

	switch {
	case consts.IsImmutableLoader(acc.Owner):
		return Size{
			ProgramBytes: len(acc.Data),
			TotalBytes:   len(acc.Data),
			Owner:        acc.Owner,
		}, nil

	case acc.Owner == consts.BPFLoaderUpgradeable:
		return r.resolveUpgradeable(ctx, programID, acc)

	default:
		return Size{}, fmt.Errorf("%w: program=%s owner=%s", ErrUnsupportedOwner, programID, acc.Owner)
	}
}

func (r *Resolver) resolveUpgradeable(ctx context.Context, programID types.Pubkey, acc ledger.Account) (Size, error) {
	st, err := loaderstate.Decode(acc.Data)
	if err != nil {
		return Size{}, fmt.Errorf("%w: program account %s: %w", ErrInvalidAccountState, programID, err)
	}
	program, ok := st.(loaderstate.Program)
	if !ok {
		return Size{}, fmt.Errorf("%w: %s is %s, want Program", ErrInvalidAccountState, programID, st.Kind())
	}

	dataAddr := program.ProgramDataAddress
	dataAcc, err := r.accounts.Fetch(ctx, dataAddr)
	if err != nil {
		return Size{}, fmt.Errorf("fetch programdata account %s: %w", dataAddr, err)
	}

	st, err = loaderstate.Decode(dataAcc.Data)
	if err != nil {
		return Size{}, fmt.Errorf("%w: programdata account %s: %w", ErrInvalidAccountState, dataAddr, err)
	}
	header, ok := st.(loaderstate.ProgramData)
	if !ok {
		return Size{}, fmt.Errorf("%w: %s is %s, want ProgramData", ErrInvalidAccountState, dataAddr, st.Kind())
	}

	logger.Debugf("[ProgramSize] programdata=%s deployed_slot=%d upgradeable=%v",
		dataAddr, header.Slot, header.UpgradeAuthority != nil)

	// Decode 已保证长度 >= ProgramDataMetadataSize
	return Size{
		ProgramBytes:       len(dataAcc.Data) - loaderstate.ProgramDataMetadataSize,
		TotalBytes:         len(dataAcc.Data),
		Owner:              acc.Owner,
		ProgramDataAddress: &dataAddr,
	}, nil
}
