package ledger

import (
	"context"
	"errors"

	pkgtypes "cu-bench-sol/internal/pkg/types"
	"cu-bench-sol/internal/types"
)

var (
	// ErrTransport 节点不可达、超时或返回 RPC 错误
	ErrTransport = errors.New("ledger transport error")
	// ErrNotFound 地址上没有账户
	ErrNotFound = errors.New("account not found")
)

// Account 每次读取都是节点当前 commitment 下的最新状态，不做缓存
type Account struct {
	Owner      types.Pubkey
	Data       []byte
	Lamports   uint64
	Executable bool
}

// Instruction 不带任何账户的单条指令
type Instruction struct {
	ProgramID types.Pubkey
	Data      []byte
}

// Transaction 已落块交易中本工具关心的部分
type Transaction struct {
	Slot                 uint64
	Fee                  uint64
	Err                  any // 链上执行错误，nil 表示成功
	ComputeUnitsConsumed *uint64
	LogMessages          []string
}

// SignatureStatus 对应 getSignatureStatuses 的单条结果
type SignatureStatus struct {
	Slot               uint64
	ConfirmationStatus string // processed / confirmed / finalized
	Err                any
}

// Confirmed 状态达到 confirmed 及以上且执行无错误
func (s *SignatureStatus) Confirmed() bool {
	if s == nil || s.Err != nil {
		return false
	}
	return s.ConfirmationStatus == "confirmed" || s.ConfirmationStatus == "finalized"
}

// Client 节点查询接口，只包含本工具用到的方法
type Client interface {
	GetAccountInfo(ctx context.Context, addr types.Pubkey) (Account, error)
	GetBalance(ctx context.Context, addr types.Pubkey) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (pkgtypes.Hash, error)
	RequestAirdrop(ctx context.Context, addr types.Pubkey, lamports uint64) (string, error)
	SendTransaction(ctx context.Context, payer Keypair, ix Instruction, blockhash pkgtypes.Hash) (string, error)
	// GetTransaction 交易尚未可查时返回 (nil, nil)
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)
	// GetSignatureStatus 节点不认识该签名时返回 (nil, nil)
	GetSignatureStatus(ctx context.Context, signature string) (*SignatureStatus, error)
}
