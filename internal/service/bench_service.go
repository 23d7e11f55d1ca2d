package service

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
	"cu-bench-sol/internal/report"
	"cu-bench-sol/internal/svc"

	"github.com/zeromicro/go-zero/core/logx"
)

const flushInterval = time.Second

var ErrFunding = errors.New("payer funding failed")

// BenchService 执行一次完整的基准：程序大小 → 充值 → 批量提交 → 确认 → 报告
type BenchService struct {
	sc     *svc.ServiceContext
	ctx    context.Context
	cancel func(err error)
	done   chan struct{}
	report *report.Report
	err    error
	logx.Logger
}

func NewBenchService(sc *svc.ServiceContext) *BenchService {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &BenchService{
		sc:     sc,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		Logger: logx.WithContext(ctx).WithFields(logx.Field("service", "bench"), logx.Field("run", sc.RunID)),
	}
}

func (s *BenchService) Start() {
	defer close(s.done)
	s.report, s.err = s.Run(s.ctx)
	if s.err != nil {
		s.Errorf("基准运行失败: %v", s.err)
	}
}

func (s *BenchService) Stop() {
	s.cancel(errors.New("service stop"))
}

// Done 运行结束（成功或失败）后关闭
func (s *BenchService) Done() <-chan struct{} {
	return s.done
}

// Result Done 关闭后可读
func (s *BenchService) Result() (*report.Report, error) {
	return s.report, s.err
}

// Run 执行一次基准；只有充值失败和 ctx 取消会中止运行，单笔交易的失败只记录
func (s *BenchService) Run(ctx context.Context) (*report.Report, error) {
	c := s.sc.Config
	programID := c.MustProgramID()
	rep := &report.Report{
		RunID:     s.sc.RunID,
		StartedAt: time.Now().UTC(),
		Endpoint:  c.Rpc.Endpoint,
		ProgramID: programID.String(),
	}

	// 1. 程序大小，失败不影响后续
	size, err := s.sc.Resolver.Resolve(ctx, programID)
	if err != nil {
		s.Infof("Warning: could not get program size: %v", err)
	} else {
		s.Infof("Program size: %d bytes (account data %d bytes, owner %s)", size.ProgramBytes, size.TotalBytes, size.Owner)
		metrics.ProgramSizeBytes.WithLabelValues(programID.String(), "program").Set(float64(size.ProgramBytes))
		metrics.ProgramSizeBytes.WithLabelValues(programID.String(), "total").Set(float64(size.TotalBytes))
	}
	rep.SetProgram(size, err)

	// 2. 付款账户
	payer, err := s.loadPayer()
	if err != nil {
		return rep, err
	}
	rep.Payer = payer.Pubkey().String()
	s.Infof("Payer: %s, requesting %d lamports (%.3f SOL)", payer.Pubkey(), c.Funding.AirdropLamports,
		float64(c.Funding.AirdropLamports)/float64(consts.LamportsPerSol))

	if err := s.sc.Poller.FundAndWait(ctx, payer.Pubkey(), c.Funding.AirdropLamports); err != nil {
		return rep, fmt.Errorf("%w: %w", ErrFunding, err)
	}

	flushCtx, flushCancel := context.WithCancel(ctx)
	flushDone := make(chan struct{})
	go func() {
		defer close(flushDone)
		s.sc.Progress.StartFlushLoop(flushCtx, flushInterval)
	}()
	defer func() {
		flushCancel()
		<-flushDone
	}()

	// 3. 批量提交
	ixs := counter.BuildInstructions(programID, c.Batch.Count)
	results := s.sc.Submitter.SubmitBatch(ctx, payer, ixs)
	ok, failed := submitter.Split(results)
	for _, f := range failed {
		s.Errorf("Transaction %d failed to submit: %v", f.Index, f.Err)
	}
	s.Infof("Submitted %d/%d transactions", len(ok), len(ixs))
	rep.AddSubmissions(len(ixs), results)
	s.sc.Progress.RecordSubmissions(ctx, results)

	// 4. 确认
	outcomes := s.sc.Verifier.VerifyAll(ctx, ok)
	rep.AddOutcomes(outcomes)
	s.sc.Progress.RecordOutcomes(ctx, outcomes)
	rep.FinishedAt = time.Now().UTC()

	// 5. 报告
	s.logSummary(rep)
	if path := c.Report.Path; path != "" {
		if err := rep.Write(path); err != nil {
			s.Errorf("write report failed: %v", err)
		} else {
			s.Infof("report written to %s", path)
		}
	}

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	return rep, nil
}

func (s *BenchService) loadPayer() (ledger.Keypair, error) {
	path := s.sc.Config.Payer.KeypairFile
	if path == "" {
		return ledger.NewKeypair(), nil
	}
	kp, err := ledger.LoadKeypairFile(path)
	if err != nil {
		return ledger.Keypair{}, fmt.Errorf("load payer keypair: %w", err)
	}
	return kp, nil
}

func (s *BenchService) logSummary(rep *report.Report) {
	sum := rep.Summary
	s.Infof("Summary: requested=%d submitted=%d rejected=%d found=%d not_found=%d cu_unavailable=%d",
		sum.Requested, sum.Submitted, sum.Rejected, sum.Found, sum.NotFound, sum.CUUnavailable)
	if cu := sum.ComputeUnits; cu != nil {
		s.Infof("Compute units: samples=%d min=%d max=%d avg=%.1f", cu.Samples, cu.Min, cu.Max, cu.Avg)
	}
}
