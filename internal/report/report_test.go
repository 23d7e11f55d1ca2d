package report

import (
	"errors"
	"path/filepath"
	"testing"

	"cu-bench-sol/internal/consts"
	"cu-bench-sol/internal/logic/confirm"
	"cu-bench-sol/internal/logic/programsize"
	"cu-bench-sol/internal/logic/submitter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u64(v uint64) *uint64 { return &v }

func TestReport_Summary(t *testing.T) {
	r := &Report{RunID: "r1"}
	r.AddSubmissions(4, []submitter.Result{
		{Submission: &submitter.Submission{Index: 0, Signature: "a"}},
		{Submission: &submitter.Submission{Index: 1, Signature: "b"}},
		{Submission: &submitter.Submission{Index: 2, Signature: "c"}},
		{Err: &submitter.SubmitError{Index: 3, Err: errors.New("rejected")}},
	})
	r.AddOutcomes([]confirm.Outcome{
		{Index: 0, Signature: "a", Found: true, ComputeUnits: u64(100), Attempts: 1},
		{Index: 1, Signature: "b", Found: true, ComputeUnits: u64(300), Attempts: 2},
		{Index: 2, Signature: "c", Found: false, Attempts: 10, Err: confirm.ErrConfirmationTimeout},
	})

	s := r.Summary
	assert.Equal(t, 4, s.Requested)
	assert.Equal(t, 3, s.Submitted)
	assert.Equal(t, 1, s.Rejected)
	assert.Equal(t, 2, s.Found)
	assert.Equal(t, 1, s.NotFound)
	require.NotNil(t, s.ComputeUnits)
	assert.Equal(t, uint64(100), s.ComputeUnits.Min)
	assert.Equal(t, uint64(300), s.ComputeUnits.Max)
	assert.InDelta(t, 200.0, s.ComputeUnits.Avg, 1e-9)
	require.Len(t, r.Failures, 1)
	assert.Equal(t, uint32(3), r.Failures[0].Index)
}

func TestReport_NoComputeUnits(t *testing.T) {
	r := &Report{}
	r.AddOutcomes([]confirm.Outcome{{Index: 0, Found: true}})
	assert.Equal(t, 1, r.Summary.CUUnavailable)
	assert.Nil(t, r.Summary.ComputeUnits)
}

func TestReport_SetProgram(t *testing.T) {
	r := &Report{}
	r.SetProgram(programsize.Size{ProgramBytes: 10, TotalBytes: 55, Owner: consts.BPFLoaderUpgradeable}, nil)
	assert.Equal(t, consts.BPFLoaderUpgradeableStr, r.Program.Owner)
	assert.Equal(t, 55, r.Program.TotalBytes)

	r.SetProgram(programsize.Size{}, programsize.ErrUnsupportedOwner)
	assert.Equal(t, programsize.ErrUnsupportedOwner.Error(), r.Program.Error)
}

func TestReport_WriteAndLoad(t *testing.T) {
	r := &Report{RunID: "r2", ProgramID: "prog"}
	r.AddOutcomes([]confirm.Outcome{{Index: 0, Signature: "a", Found: true, ComputeUnits: u64(42)}})

	path := filepath.Join(t.TempDir(), "out", "report.yaml")
	require.NoError(t, r.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "r2", loaded.RunID)
	require.Len(t, loaded.Txs, 1)
	assert.Equal(t, uint64(42), *loaded.Txs[0].ComputeUnits)
	assert.Equal(t, uint64(42), loaded.Summary.ComputeUnits.Max)
}
