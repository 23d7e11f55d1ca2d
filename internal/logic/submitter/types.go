package submitter

import "fmt"

// Submission 发送成功后生成，之后只读，交给确认流程消费一次
type Submission struct {
	Index     uint32
	Signature string
}

// SubmitError 单笔发送失败，不影响同批其他交易
type SubmitError struct {
	Index uint32
	Err   error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit transaction %d: %v", e.Index, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Result 与输入指令一一对应，Submission 和 Err 二选一
type Result struct {
	Submission *Submission
	Err        *SubmitError
}

func (r Result) Ok() bool {
	return r.Err == nil && r.Submission != nil
}

// Split 按原顺序拆出成功与失败的结果
func Split(results []Result) (ok []Submission, failed []*SubmitError) {
	ok = make([]Submission, 0, len(results))
	for _, r := range results {
		if r.Ok() {
			ok = append(ok, *r.Submission)
		} else if r.Err != nil {
			failed = append(failed, r.Err)
		}
	}
	return ok, failed
}
