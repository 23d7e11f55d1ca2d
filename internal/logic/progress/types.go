package progress

// TxStatus 表示一笔基准交易的状态（统一 Redis 与 DB 编码）
type TxStatus int

const (
	TxUnknown   TxStatus = 0 // Redis 不存在
	TxSubmitted TxStatus = 1 // 已被节点接受，待确认
	TxConfirmed TxStatus = 2 // 已查到落块交易
	TxMissing   TxStatus = 3 // 重试用尽仍未查到
	TxRejected  TxStatus = 4 // 提交阶段即失败
)

func (s TxStatus) String() string {
	switch s {
	case TxSubmitted:
		return "submitted"
	case TxConfirmed:
		return "confirmed"
	case TxMissing:
		return "missing"
	case TxRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// TxRecord 表示一条待写入 DB / 发送到 Kafka 的交易记录
type TxRecord struct {
	RunID         string
	Index         uint32 // 计数器值，即批次内序号
	Signature     string // 提交失败时为空
	Status        TxStatus
	Slot          uint64
	ComputeUnits  *uint64 // 节点未返回时为 nil
	LoggedCounter *uint64
	Attempts      int
	Error         string
}
