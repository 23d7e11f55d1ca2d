package consts

import "time"

// LamportsPerSol 1 SOL = 1e9 lamports
const LamportsPerSol uint64 = 1_000_000_000

// 轮询相关默认值，均可通过配置覆盖
const (
	DefaultFundingPollInterval = 100 * time.Millisecond
	DefaultFundingMaxWait      = 30 * time.Second

	DefaultConfirmMaxAttempts   = 10
	DefaultConfirmRetryInterval = 50 * time.Millisecond
)

// BlockhashMode 批量发送时 blockhash 的获取策略
const (
	BlockhashModeShared  = "shared"   // 整批只取一次
	BlockhashModePerItem = "per_item" // 每笔交易发送前重新获取
)
