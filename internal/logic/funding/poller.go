package funding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cu-bench-sol/internal/consts"
	"cu-bench-sol/internal/ledger"
	"cu-bench-sol/internal/types"
	"cu-bench-sol/internal/utils"
	"cu-bench-sol/pkg/logger"
)

// ErrTimeoutExceeded 在 MaxWait 内没有观察到余额
var ErrTimeoutExceeded = errors.New("funding wait timeout exceeded")

// Client ledger.Client 的子集
type Client interface {
	RequestAirdrop(ctx context.Context, addr types.Pubkey, lamports uint64) (string, error)
	GetSignatureStatus(ctx context.Context, signature string) (*ledger.SignatureStatus, error)
	GetBalance(ctx context.Context, addr types.Pubkey) (uint64, error)
}

type Option struct {
	PollInterval time.Duration
	MaxWait      time.Duration
}

type Poller struct {
	client       Client
	pollInterval time.Duration
	maxPolls     int
	sleep        utils.SleepFunc
}

func NewPoller(client Client, opt Option) *Poller {
	interval := opt.PollInterval
	if interval <= 0 {
		interval = consts.DefaultFundingPollInterval
	}
	maxWait := opt.MaxWait
	if maxWait <= 0 {
		maxWait = consts.DefaultFundingMaxWait
	}
	maxPolls := int(maxWait / interval)
	if maxPolls < 1 {
		maxPolls = 1
	}
	return &Poller{
		client:       client,
		pollInterval: interval,
		maxPolls:     maxPolls,
		sleep:        utils.SleepContext,
	}
}

// WithSleep 替换等待函数（测试用）
func (p *Poller) WithSleep(sleep utils.SleepFunc) *Poller {
	p.sleep = sleep
	return p
}

// FundAndWait 申请一次空投，然后轮询直到余额 > 0。
// 已有足够余额时跳过空投；空投请求失败直接返回，不重试。
func (p *Poller) FundAndWait(ctx context.Context, recipient types.Pubkey, lamports uint64) error {
	if balance, err := p.client.GetBalance(ctx, recipient); err != nil {
		logger.Warnf("[FundingPoller] 读取初始余额失败，继续空投: addr=%s err=%v", recipient, err)
	} else if lamports > 0 && balance >= lamports {
		logger.Infof("[FundingPoller] 余额已足够，跳过空投: addr=%s balance=%d", recipient, balance)
		return nil
	}

	logger.Infof("[FundingPoller] Requesting airdrop for %s, lamports=%d", recipient, lamports)
	sig, err := p.client.RequestAirdrop(ctx, recipient, lamports)
	if err != nil {
		return fmt.Errorf("request airdrop for %s: %w", recipient, err)
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		status, err := p.client.GetSignatureStatus(ctx, sig)
		switch {
		case err != nil:
			lastErr = err
		case status.Confirmed():
			balance, err := p.client.GetBalance(ctx, recipient)
			if err != nil {
				lastErr = err
				break
			}
			if balance > 0 {
				logger.Infof("[FundingPoller] Airdrop confirmed! addr=%s balance=%d polls=%d", recipient, balance, attempt)
				return nil
			}
			lastErr = errors.New("airdrop confirmed but balance is still 0")
		}

		if attempt >= p.maxPolls {
			break
		}
		if err := p.sleep(ctx, p.pollInterval); err != nil {
			return fmt.Errorf("wait airdrop %s: %w", sig, err)
		}
	}

	if lastErr != nil {
		return fmt.Errorf("%w: airdrop=%s polls=%d last error: %v", ErrTimeoutExceeded, sig, p.maxPolls, lastErr)
	}
	return fmt.Errorf("%w: airdrop=%s not confirmed after %d polls", ErrTimeoutExceeded, sig, p.maxPolls)
}
