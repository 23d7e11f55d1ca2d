package submitter

import (
	"context"
	"fmt"

	"cu-bench-sol/internal/consts"
	"cu-bench-sol/internal/ledger"
	"cu-bench-sol/internal/metrics"
	pkgtypes "cu-bench-sol/internal/pkg/types"
	"cu-bench-sol/pkg/logger"
)

// Client ledger.Client 的子集
type Client interface {
	GetLatestBlockhash(ctx context.Context) (pkgtypes.Hash, error)
	SendTransaction(ctx context.Context, payer ledger.Keypair, ix ledger.Instruction, blockhash pkgtypes.Hash) (string, error)
}

type Option struct {
	// BlockhashMode shared: 整批共用一个 blockhash，发送最快，但大批量时靠后的交易可能因过期被拒；
	// per_item: 每笔发送前重新获取
	BlockhashMode string
}

type Submitter struct {
	client Client
	mode   string
}

func NewSubmitter(client Client, opt Option) (*Submitter, error) {
	mode := opt.BlockhashMode
	if mode == "" {
		mode = consts.BlockhashModeShared
	}
	if mode != consts.BlockhashModeShared && mode != consts.BlockhashModePerItem {
		return nil, fmt.Errorf("unknown blockhash mode %q", opt.BlockhashMode)
	}
	return &Submitter{client: client, mode: mode}, nil
}

// SubmitBatch 按顺序逐笔发送，发送之间不等待确认。
// 返回值长度与 ixs 相同，第 i 项对应第 i 条指令；单笔失败只记录，不中断后续发送。
func (s *Submitter) SubmitBatch(ctx context.Context, payer ledger.Keypair, ixs []ledger.Instruction) []Result {
	results := make([]Result, len(ixs))

	var (
		shared    pkgtypes.Hash
		sharedErr error
	)
	if s.mode == consts.BlockhashModeShared && len(ixs) > 0 {
		shared, sharedErr = s.client.GetLatestBlockhash(ctx)
		if sharedErr != nil {
			logger.Warnf("[BatchSubmitter] 获取 blockhash 失败，整批无法发送: %v", sharedErr)
		} else {
			logger.Infof("[BatchSubmitter] using shared blockhash %s for %d transactions", shared, len(ixs))
		}
	}

	for i, ix := range ixs {
		index := uint32(i)

		sig, err := s.submitOne(ctx, payer, ix, shared, sharedErr)
		if err != nil {
			logger.Warnf("[BatchSubmitter] Failed to send transaction %d: %v", index, err)
			metrics.Submissions.WithLabelValues("error").Inc()
			results[i] = Result{Err: &SubmitError{Index: index, Err: err}}
			continue
		}

		logger.Infof("[BatchSubmitter] Transaction %d sent: %s", index, sig)
		metrics.Submissions.WithLabelValues("ok").Inc()
		results[i] = Result{Submission: &Submission{Index: index, Signature: sig}}
	}
	return results
}

func (s *Submitter) submitOne(ctx context.Context, payer ledger.Keypair, ix ledger.Instruction, shared pkgtypes.Hash, sharedErr error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	blockhash := shared
	if s.mode == consts.BlockhashModePerItem {
		h, err := s.client.GetLatestBlockhash(ctx)
		if err != nil {
			return "", fmt.Errorf("get blockhash: %w", err)
		}
		blockhash = h
	} else if sharedErr != nil {
		return "", fmt.Errorf("get blockhash: %w", sharedErr)
	}

	return s.client.SendTransaction(ctx, payer, ix, blockhash)
}
