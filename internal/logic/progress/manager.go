package progress

import (
	"context"
	"fmt"
	"time"

	"cu-bench-sol/internal/logic/confirm"
	"cu-bench-sol/internal/logic/submitter"
	"cu-bench-sol/pkg/logger"
)

// StatusStore 交易状态的快速存储（Redis）
type StatusStore interface {
	MarkStatus(ctx context.Context, runID string, records []*TxRecord) error
}

// OutcomeStore 交易结果的持久存储（PostgreSQL）
type OutcomeStore interface {
	BatchUpsert(ctx context.Context, records []*TxRecord) error
}

// Publisher 确认结果的事件出口（Kafka）
type Publisher interface {
	Publish(ctx context.Context, records []*TxRecord) error
}

// Manager 统一封装 Redis + DB + Kafka，各出口都是可选的；
// 出口失败只打日志，不影响基准本身。
type Manager struct {
	runID     string
	status    StatusStore
	store     OutcomeStore
	publisher Publisher
	buffer    *recordBuffer
}

func NewManager(runID string) *Manager {
	return &Manager{runID: runID, buffer: newRecordBuffer()}
}

func (m *Manager) WithStatusStore(s StatusStore) *Manager {
	m.status = s
	return m
}

func (m *Manager) WithOutcomeStore(s OutcomeStore) *Manager {
	m.store = s
	return m
}

func (m *Manager) WithPublisher(p Publisher) *Manager {
	m.publisher = p
	return m
}

func (m *Manager) RunID() string {
	return m.runID
}

// RecordSubmissions 记录提交阶段的结果：成功为 submitted，失败为 rejected
func (m *Manager) RecordSubmissions(ctx context.Context, results []submitter.Result) {
	records := make([]*TxRecord, 0, len(results))
	for _, res := range results {
		rec := &TxRecord{RunID: m.runID}
		if res.Ok() {
			rec.Index = res.Submission.Index
			rec.Signature = res.Submission.Signature
			rec.Status = TxSubmitted
		} else {
			rec.Index = res.Err.Index
			rec.Status = TxRejected
			rec.Error = res.Err.Err.Error()
		}
		records = append(records, rec)
	}
	m.mark(ctx, records)
}

// RecordOutcomes 记录确认阶段的结果，并发布事件
func (m *Manager) RecordOutcomes(ctx context.Context, outcomes []confirm.Outcome) {
	records := make([]*TxRecord, 0, len(outcomes))
	for i := range outcomes {
		records = append(records, OutcomeRecord(m.runID, &outcomes[i]))
	}
	m.mark(ctx, records)

	if m.publisher != nil && len(records) > 0 {
		if err := m.publisher.Publish(ctx, records); err != nil {
			logger.Warnf("[Progress] publish %d outcomes failed: %v", len(records), err)
		}
	}
}

// OutcomeRecord 把确认结果转为记录
func OutcomeRecord(runID string, out *confirm.Outcome) *TxRecord {
	rec := &TxRecord{
		RunID:         runID,
		Index:         out.Index,
		Signature:     out.Signature,
		Slot:          out.Slot,
		ComputeUnits:  out.ComputeUnits,
		LoggedCounter: out.LoggedCounter,
		Attempts:      out.Attempts,
	}
	switch {
	case out.Found:
		rec.Status = TxConfirmed
		if out.TxErr != nil {
			rec.Error = fmt.Sprint(out.TxErr)
		}
	default:
		rec.Status = TxMissing
		if out.Err != nil {
			rec.Error = out.Err.Error()
		}
	}
	return rec
}

func (m *Manager) mark(ctx context.Context, records []*TxRecord) {
	if len(records) == 0 {
		return
	}
	if m.status != nil {
		if err := m.status.MarkStatus(ctx, m.runID, records); err != nil {
			logger.Warnf("[Progress] mark %d statuses failed: %v", len(records), err)
		}
	}
	for _, rec := range records {
		m.buffer.Add(rec)
	}
}

// Flush 把缓冲写入 DB，返回本次写入条数；未配置 DB 时只清空缓冲
func (m *Manager) Flush(ctx context.Context) int {
	flushed := m.buffer.Flush()
	if len(flushed) == 0 || m.store == nil {
		return 0
	}
	if err := m.store.BatchUpsert(ctx, flushed); err != nil {
		// buffer 已清空，只打日志
		logger.Errorf("[Progress] persist %d records failed: %v", len(flushed), err)
		return 0
	}
	return len(flushed)
}

// StartFlushLoop 定时 flush，ctx 结束时做最后一次 flush 后返回
func (m *Manager) StartFlushLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			m.Flush(finalCtx)
			cancel()
			return
		case <-ticker.C:
			m.Flush(ctx)
		}
	}
}
