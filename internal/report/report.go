package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"cu-bench-sol/internal/logic/confirm"
	"cu-bench-sol/internal/logic/programsize"
	"cu-bench-sol/internal/logic/submitter"

	"gopkg.in/yaml.v3"
)

// Report 一次基准运行的汇总，写成 YAML 供人读或脚本比对
type Report struct {
	RunID      string        `yaml:"run_id"`
	StartedAt  time.Time     `yaml:"started_at"`
	FinishedAt time.Time     `yaml:"finished_at"`
	Endpoint   string        `yaml:"endpoint"`
	ProgramID  string        `yaml:"program_id"`
	Payer      string        `yaml:"payer"`
	Program    ProgramInfo   `yaml:"program"`
	Summary    Summary       `yaml:"summary"`
	Failures   []FailureInfo `yaml:"failures,omitempty"`
	Txs        []TxInfo      `yaml:"transactions"`
}

type ProgramInfo struct {
	Owner              string `yaml:"owner,omitempty"`
	ProgramBytes       int    `yaml:"program_bytes"`
	TotalBytes         int    `yaml:"total_bytes"`
	ProgramDataAddress string `yaml:"program_data_address,omitempty"`
	Error              string `yaml:"error,omitempty"`
}

type Summary struct {
	Requested     int               `yaml:"requested"`
	Submitted     int               `yaml:"submitted"`
	Rejected      int               `yaml:"rejected"`
	Found         int               `yaml:"found"`
	NotFound      int               `yaml:"not_found"`
	CUUnavailable int               `yaml:"cu_unavailable"`
	ComputeUnits  *ComputeUnitsStat `yaml:"compute_units,omitempty"`
}

// ComputeUnitsStat 只统计有 CU 的交易
type ComputeUnitsStat struct {
	Samples int     `yaml:"samples"`
	Min     uint64  `yaml:"min"`
	Max     uint64  `yaml:"max"`
	Avg     float64 `yaml:"avg"`
}

type FailureInfo struct {
	Index uint32 `yaml:"index"`
	Error string `yaml:"error"`
}

type TxInfo struct {
	Index         uint32  `yaml:"index"`
	Signature     string  `yaml:"signature"`
	Found         bool    `yaml:"found"`
	Slot          uint64  `yaml:"slot,omitempty"`
	ComputeUnits  *uint64 `yaml:"compute_units,omitempty"`
	LoggedCounter *uint64 `yaml:"logged_counter,omitempty"`
	Attempts      int     `yaml:"attempts"`
	TxError       string  `yaml:"tx_error,omitempty"`
	Error         string  `yaml:"error,omitempty"`
}

// SetProgram 记录程序大小；解析失败时只记错误
func (r *Report) SetProgram(size programsize.Size, err error) {
	if err != nil {
		r.Program = ProgramInfo{Error: err.Error()}
		return
	}
	r.Program = ProgramInfo{
		Owner:        size.Owner.String(),
		ProgramBytes: size.ProgramBytes,
		TotalBytes:   size.TotalBytes,
	}
	if size.ProgramDataAddress != nil {
		r.Program.ProgramDataAddress = size.ProgramDataAddress.String()
	}
}

// AddSubmissions 记录提交阶段失败项
func (r *Report) AddSubmissions(requested int, results []submitter.Result) {
	ok, failed := submitter.Split(results)
	r.Summary.Requested = requested
	r.Summary.Submitted = len(ok)
	r.Summary.Rejected = len(failed)
	for _, f := range failed {
		r.Failures = append(r.Failures, FailureInfo{Index: f.Index, Error: f.Err.Error()})
	}
}

// AddOutcomes 记录确认结果并计算 CU 统计
func (r *Report) AddOutcomes(outcomes []confirm.Outcome) {
	var stat ComputeUnitsStat
	var sum uint64
	stat.Min = math.MaxUint64

	for _, out := range outcomes {
		tx := TxInfo{
			Index:         out.Index,
			Signature:     out.Signature,
			Found:         out.Found,
			Slot:          out.Slot,
			ComputeUnits:  out.ComputeUnits,
			LoggedCounter: out.LoggedCounter,
			Attempts:      out.Attempts,
		}
		if out.TxErr != nil {
			tx.TxError = fmt.Sprint(out.TxErr)
		}
		if out.Err != nil {
			tx.Error = out.Err.Error()
		}
		r.Txs = append(r.Txs, tx)

		switch {
		case !out.Found:
			r.Summary.NotFound++
		case out.ComputeUnits == nil:
			r.Summary.Found++
			r.Summary.CUUnavailable++
		default:
			r.Summary.Found++
			cu := *out.ComputeUnits
			stat.Samples++
			sum += cu
			stat.Min = min(stat.Min, cu)
			stat.Max = max(stat.Max, cu)
		}
	}

	if stat.Samples > 0 {
		stat.Avg = float64(sum) / float64(stat.Samples)
		r.Summary.ComputeUnits = &stat
	}
}

// Write 写入 path，目录不存在时创建
func (r *Report) Write(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// Load 读取已写出的报告
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &r, nil
}
