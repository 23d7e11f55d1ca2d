package progress

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cu-bench-sol/internal/logic/confirm"
	"cu-bench-sol/internal/logic/submitter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatusStore struct {
	mu     sync.Mutex
	status map[uint32]TxStatus
	err    error
}

func (f *fakeStatusStore) MarkStatus(_ context.Context, _ string, records []*TxRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.status == nil {
		f.status = map[uint32]TxStatus{}
	}
	for _, r := range records {
		f.status[r.Index] = r.Status
	}
	return nil
}

type fakeOutcomeStore struct {
	batches [][]*TxRecord
	err     error
}

func (f *fakeOutcomeStore) BatchUpsert(_ context.Context, records []*TxRecord) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, records)
	return nil
}

type fakePublisher struct {
	published []*TxRecord
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, records []*TxRecord) error {
	f.published = append(f.published, records...)
	return f.err
}

func u64(v uint64) *uint64 { return &v }

func TestManager_SubmissionThenOutcome(t *testing.T) {
	status := &fakeStatusStore{}
	store := &fakeOutcomeStore{}
	pub := &fakePublisher{}
	m := NewManager("run-1").WithStatusStore(status).WithOutcomeStore(store).WithPublisher(pub)
	ctx := context.Background()

	m.RecordSubmissions(ctx, []submitter.Result{
		{Submission: &submitter.Submission{Index: 0, Signature: "s0"}},
		{Err: &submitter.SubmitError{Index: 1, Err: errors.New("blockhash not found")}},
		{Submission: &submitter.Submission{Index: 2, Signature: "s2"}},
	})
	assert.Equal(t, TxSubmitted, status.status[0])
	assert.Equal(t, TxRejected, status.status[1])

	m.RecordOutcomes(ctx, []confirm.Outcome{
		{Index: 0, Signature: "s0", Found: true, ComputeUnits: u64(300), Attempts: 1},
		{Index: 2, Signature: "s2", Found: false, Attempts: 10, Err: confirm.ErrConfirmationTimeout},
	})
	assert.Equal(t, TxConfirmed, status.status[0])
	assert.Equal(t, TxMissing, status.status[2])
	require.Len(t, pub.published, 2)

	assert.Equal(t, 3, m.Flush(ctx))
	require.Len(t, store.batches, 1)
	batch := store.batches[0]
	// 同一序号只保留最后一次状态，顺序按首次出现
	require.Len(t, batch, 3)
	assert.Equal(t, uint32(0), batch[0].Index)
	assert.Equal(t, TxConfirmed, batch[0].Status)
	assert.Equal(t, uint64(300), *batch[0].ComputeUnits)
	assert.Equal(t, TxRejected, batch[1].Status)
	assert.Equal(t, "blockhash not found", batch[1].Error)
	assert.Equal(t, TxMissing, batch[2].Status)
	assert.Equal(t, "run-1", batch[2].RunID)

	assert.Equal(t, 0, m.Flush(ctx))
}

func TestManager_SinkFailuresAreNotFatal(t *testing.T) {
	m := NewManager("run-2").
		WithStatusStore(&fakeStatusStore{err: errors.New("redis down")}).
		WithOutcomeStore(&fakeOutcomeStore{err: errors.New("pg down")}).
		WithPublisher(&fakePublisher{err: errors.New("kafka down")})
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordOutcomes(ctx, []confirm.Outcome{{Index: 0, Found: true}})
	})
	assert.Equal(t, 0, m.Flush(ctx))
	assert.Equal(t, 0, m.buffer.Len())
}

func TestManager_NoSinks(t *testing.T) {
	m := NewManager("run-3")
	ctx := context.Background()
	m.RecordSubmissions(ctx, []submitter.Result{{Submission: &submitter.Submission{Index: 0, Signature: "x"}}})
	assert.Equal(t, 0, m.Flush(ctx))
}

func TestOutcomeRecord_FailedExecution(t *testing.T) {
	rec := OutcomeRecord("r", &confirm.Outcome{Index: 4, Found: true, TxErr: "InstructionError"})
	assert.Equal(t, TxConfirmed, rec.Status)
	assert.Equal(t, "InstructionError", rec.Error)
}

func TestBuildUpsert(t *testing.T) {
	query, args := buildUpsert([]*TxRecord{
		{RunID: "r", Index: 0, Status: TxConfirmed, ComputeUnits: u64(1)},
		{RunID: "r", Index: 1, Status: TxMissing},
	})
	assert.Contains(t, query, "($1,$2,$3,$4,$5,$6,$7,$8,$9,now()),($10,")
	assert.Contains(t, query, "ON CONFLICT (run_id, idx) DO UPDATE")
	require.Len(t, args, 18)
	assert.Equal(t, int64(1), *args[5].(*int64))
	assert.Nil(t, args[14].(*int64))
}

func TestTxStatusString(t *testing.T) {
	assert.Equal(t, "submitted", TxSubmitted.String())
	assert.Equal(t, "missing", TxMissing.String())
	assert.Equal(t, "unknown", TxStatus(99).String())
}
