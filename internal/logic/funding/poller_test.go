package funding

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cu-bench-sol/internal/ledger"
	"cu-bench-sol/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var payer = types.PubkeyFromBase58("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")

// fakeClient 第 confirmAt 次查询状态时返回 confirmed，余额按 balances 顺序返回
type fakeClient struct {
	airdropErr    error
	confirmAt     int
	statusCalls   int
	balances      []uint64
	balanceCalls  int
	airdropCalls  int
	airdropAmount uint64
}

func (f *fakeClient) RequestAirdrop(_ context.Context, _ types.Pubkey, lamports uint64) (string, error) {
	f.airdropCalls++
	f.airdropAmount = lamports
	if f.airdropErr != nil {
		return "", f.airdropErr
	}
	return "airdropSig", nil
}

func (f *fakeClient) GetSignatureStatus(_ context.Context, _ string) (*ledger.SignatureStatus, error) {
	f.statusCalls++
	if f.confirmAt > 0 && f.statusCalls >= f.confirmAt {
		return &ledger.SignatureStatus{ConfirmationStatus: "confirmed"}, nil
	}
	if f.statusCalls%2 == 0 {
		return nil, nil
	}
	return &ledger.SignatureStatus{ConfirmationStatus: "processed"}, nil
}

func (f *fakeClient) GetBalance(_ context.Context, _ types.Pubkey) (uint64, error) {
	i := f.balanceCalls
	f.balanceCalls++
	if i < len(f.balances) {
		return f.balances[i], nil
	}
	return f.balances[len(f.balances)-1], nil
}

type sleepRecorder struct {
	count int
	total time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.count++
	s.total += d
	return nil
}

func TestFundAndWait_ConfirmsAfterPolling(t *testing.T) {
	f := &fakeClient{confirmAt: 4, balances: []uint64{0, 1_000_000_000}}
	rec := &sleepRecorder{}
	p := NewPoller(f, Option{PollInterval: 100 * time.Millisecond, MaxWait: time.Second}).WithSleep(rec.sleep)

	require.NoError(t, p.FundAndWait(context.Background(), payer, 1_000_000_000))
	assert.Equal(t, 1, f.airdropCalls)
	assert.Equal(t, uint64(1_000_000_000), f.airdropAmount)
	assert.Equal(t, 4, f.statusCalls)
	assert.Equal(t, 3, rec.count)
	assert.Equal(t, 300*time.Millisecond, rec.total)
}

func TestFundAndWait_ZeroBalanceKeepsPolling(t *testing.T) {
	// 确认后余额仍为 0，继续轮询，第二次确认后余额到账
	f := &fakeClient{confirmAt: 1, balances: []uint64{0, 0, 5}}
	rec := &sleepRecorder{}
	p := NewPoller(f, Option{PollInterval: 100 * time.Millisecond, MaxWait: time.Second}).WithSleep(rec.sleep)

	require.NoError(t, p.FundAndWait(context.Background(), payer, 10))
	assert.Equal(t, 2, f.statusCalls)
	assert.Equal(t, 1, rec.count)
}

func TestFundAndWait_TimeoutExceeded(t *testing.T) {
	f := &fakeClient{balances: []uint64{0}}
	rec := &sleepRecorder{}
	p := NewPoller(f, Option{PollInterval: 100 * time.Millisecond, MaxWait: 500 * time.Millisecond}).WithSleep(rec.sleep)

	err := p.FundAndWait(context.Background(), payer, 10)
	assert.True(t, errors.Is(err, ErrTimeoutExceeded))
	assert.Equal(t, 5, f.statusCalls)
	assert.Equal(t, 4, rec.count)
}

func TestFundAndWait_SkipWhenFunded(t *testing.T) {
	f := &fakeClient{balances: []uint64{2_000}}
	p := NewPoller(f, Option{}).WithSleep((&sleepRecorder{}).sleep)

	require.NoError(t, p.FundAndWait(context.Background(), payer, 1_000))
	assert.Equal(t, 0, f.airdropCalls)
}

func TestFundAndWait_AirdropErrorIsReturned(t *testing.T) {
	f := &fakeClient{balances: []uint64{0}, airdropErr: fmt.Errorf("%w: requestAirdrop: 429", ledger.ErrTransport)}
	p := NewPoller(f, Option{}).WithSleep((&sleepRecorder{}).sleep)

	err := p.FundAndWait(context.Background(), payer, 1_000)
	assert.True(t, errors.Is(err, ledger.ErrTransport))
	assert.Equal(t, 0, f.statusCalls)
}

func TestFundAndWait_ContextCancelled(t *testing.T) {
	f := &fakeClient{balances: []uint64{0}}
	p := NewPoller(f, Option{PollInterval: 10 * time.Millisecond, MaxWait: time.Hour}).
		WithSleep(func(ctx context.Context, _ time.Duration) error { return context.Canceled })

	err := p.FundAndWait(context.Background(), payer, 1_000)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrTimeoutExceeded))
}
