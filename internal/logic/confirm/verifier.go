package confirm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cu-bench-sol/internal/consts"
	"cu-bench-sol/internal/ledger"
	"cu-bench-sol/internal/logic/counter"
	"cu-bench-sol/internal/logic/submitter"
	"cu-bench-sol/internal/metrics"
	"cu-bench-sol/internal/utils"
	"cu-bench-sol/pkg/logger"
)

// ErrConfirmationTimeout 重试次数用尽仍查不到交易
var ErrConfirmationTimeout = errors.New("transaction not found within retry bound")

// Client ledger.Client 的子集
type Client interface {
	GetTransaction(ctx context.Context, signature string) (*ledger.Transaction, error)
}

// Outcome 单笔交易的确认结果，只用于汇报，不持久化到链上
type Outcome struct {
	Index         uint32
	Signature     string
	Found         bool
	ComputeUnits  *uint64 // 节点未返回该字段时为 nil，不算错误
	Slot          uint64
	TxErr         any     // 链上执行错误，找到交易即算确认，与执行成功与否无关
	LoggedCounter *uint64 // 程序日志里打印的计数器
	Attempts      int
	Err           error // 未找到时为 ErrConfirmationTimeout，或 ctx 错误
}

type Option struct {
	MaxAttempts   int
	RetryInterval time.Duration
}

type Verifier struct {
	client        Client
	maxAttempts   int
	retryInterval time.Duration
	sleep         utils.SleepFunc
}

func NewVerifier(client Client, opt Option) *Verifier {
	attempts := opt.MaxAttempts
	if attempts <= 0 {
		attempts = consts.DefaultConfirmMaxAttempts
	}
	interval := opt.RetryInterval
	if interval <= 0 {
		interval = consts.DefaultConfirmRetryInterval
	}
	return &Verifier{
		client:        client,
		maxAttempts:   attempts,
		retryInterval: interval,
		sleep:         utils.SleepContext,
	}
}

// WithSleep 替换等待函数（测试用）
func (v *Verifier) WithSleep(sleep utils.SleepFunc) *Verifier {
	v.sleep = sleep
	return v
}

// Verify 按签名查询已落块交易，最多 maxAttempts 次，两次之间固定间隔；
// 查到即停止，查询报错和返回空都算一次失败。
func (v *Verifier) Verify(ctx context.Context, sub submitter.Submission) Outcome {
	out := Outcome{Index: sub.Index, Signature: sub.Signature}

	var lastErr error
	for attempt := 1; attempt <= v.maxAttempts; attempt++ {
		out.Attempts = attempt

		tx, err := v.client.GetTransaction(ctx, sub.Signature)
		if err == nil && tx != nil {
			out.Found = true
			out.Slot = tx.Slot
			out.TxErr = tx.Err
			out.ComputeUnits = tx.ComputeUnitsConsumed
			if c, ok := counter.ParseLoggedCounter(tx.LogMessages); ok {
				out.LoggedCounter = &c
			}
			break
		}
		if err != nil {
			lastErr = err
			logger.Debugf("[ConfirmVerifier] tx %d lookup %d/%d failed: %v", sub.Index, attempt, v.maxAttempts, err)
		}

		if attempt == v.maxAttempts {
			break
		}
		if err := v.sleep(ctx, v.retryInterval); err != nil {
			out.Err = fmt.Errorf("verify %s: %w", sub.Signature, err)
			report(out)
			return out
		}
	}

	if !out.Found {
		if lastErr != nil {
			out.Err = fmt.Errorf("%w: %s after %d attempts, last error: %v", ErrConfirmationTimeout, sub.Signature, out.Attempts, lastErr)
		} else {
			out.Err = fmt.Errorf("%w: %s after %d attempts", ErrConfirmationTimeout, sub.Signature, out.Attempts)
		}
	}
	report(out)
	return out
}

// VerifyAll 按提交顺序逐笔确认
func (v *Verifier) VerifyAll(ctx context.Context, subs []submitter.Submission) []Outcome {
	outcomes := make([]Outcome, 0, len(subs))
	for _, sub := range subs {
		outcomes = append(outcomes, v.Verify(ctx, sub))
	}
	return outcomes
}

// report 三种情况分开记录：找到且有 CU / 找到但 CU 不可用 / 完全没找到
func report(out Outcome) {
	metrics.ConfirmAttempts.Observe(float64(out.Attempts))

	switch {
	case !out.Found:
		metrics.Confirmations.WithLabelValues("not_found").Inc()
		logger.Warnf("[ConfirmVerifier] Transaction %d (counter: %d) not found: sig=%s err=%v",
			out.Index, out.Index, out.Signature, out.Err)
	case out.ComputeUnits == nil:
		metrics.Confirmations.WithLabelValues("cu_unavailable").Inc()
		logger.Warnf("[ConfirmVerifier] Transaction %d (counter: %d): Compute units not available, sig=%s",
			out.Index, out.Index, out.Signature)
	default:
		metrics.Confirmations.WithLabelValues("found").Inc()
		metrics.ComputeUnits.Observe(float64(*out.ComputeUnits))
		logger.Infof("[ConfirmVerifier] Transaction %d (counter: %d): Compute Units used: %d, slot=%d",
			out.Index, out.Index, *out.ComputeUnits, out.Slot)
	}
	if out.Found && out.TxErr != nil {
		logger.Warnf("[ConfirmVerifier] Transaction %d landed with error: %v", out.Index, out.TxErr)
	}
}
