package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cu-bench-sol/internal/consts"
	"cu-bench-sol/internal/ledger"
	"cu-bench-sol/internal/logic/confirm"
	"cu-bench-sol/internal/logic/funding"
	"cu-bench-sol/internal/logic/submitter"
	"cu-bench-sol/internal/mq"
	"cu-bench-sol/internal/types"
	"cu-bench-sol/pkg/logger"
)

var ErrInvalidConfig = errors.New("invalid config")

type LogConfig struct {
	Format   string `json:"format,default=console,options=console|json"` // 日志格式
	LogDir   string `json:"log_dir,optional"`                            // 为空时只输出到 stdout
	Level    string `json:"level,default=info"`                          // debug / info / warn / error
	Compress bool   `json:"compress,optional"`                           // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// RpcConfig 节点 JSON-RPC 配置
type RpcConfig struct {
	Endpoint   string `json:"endpoint,default=http://127.0.0.1:8899"`
	Commitment string `json:"commitment,default=confirmed,options=processed|confirmed|finalized"`
	TimeoutMs  int    `json:"timeout_ms,default=10000"` // 单次 RPC 超时
}

func (c *RpcConfig) ToRpcOption(skipPreflight bool) ledger.RpcOption {
	return ledger.RpcOption{
		Endpoint:      c.Endpoint,
		Commitment:    c.Commitment,
		Timeout:       time.Duration(c.TimeoutMs) * time.Millisecond,
		SkipPreflight: skipPreflight,
	}
}

type PayerConfig struct {
	KeypairFile string `json:"keypair_file,optional"` // 为空时每次生成新 keypair
}

type FundingConfig struct {
	AirdropLamports uint64 `json:"airdrop_lamports,default=1000000000"`
	PollIntervalMs  int    `json:"poll_interval_ms,default=100"`
	MaxWaitMs       int    `json:"max_wait_ms,default=30000"` // 超过后 ErrTimeoutExceeded
}

func (c *FundingConfig) ToFundingOption() funding.Option {
	return funding.Option{
		PollInterval: time.Duration(c.PollIntervalMs) * time.Millisecond,
		MaxWait:      time.Duration(c.MaxWaitMs) * time.Millisecond,
	}
}

type BatchConfig struct {
	Count         int    `json:"count,default=100"`
	BlockhashMode string `json:"blockhash_mode,default=shared"` // shared / per_item
	SkipPreflight bool   `json:"skip_preflight,optional"`
}

func (c *BatchConfig) ToSubmitterOption() submitter.Option {
	return submitter.Option{BlockhashMode: c.BlockhashMode}
}

type ConfirmConfig struct {
	MaxAttempts     int `json:"max_attempts,default=10"`
	RetryIntervalMs int `json:"retry_interval_ms,default=50"`
}

func (c *ConfirmConfig) ToConfirmOption() confirm.Option {
	return confirm.Option{
		MaxAttempts:   c.MaxAttempts,
		RetryInterval: time.Duration(c.RetryIntervalMs) * time.Millisecond,
	}
}

// RedisConfig Addr 为空则不启用
type RedisConfig struct {
	Addr     string `json:"addr,optional"`
	Password string `json:"password,optional"`
	DB       int    `json:"db,optional"`
	TTLSec   int    `json:"ttl_sec,default=86400"`
}

// PostgresConfig DSN 为空则不启用
type PostgresConfig struct {
	DSN string `json:"dsn,optional"`
}

// KafkaConfig Brokers 为空则不启用
type KafkaConfig struct {
	Brokers       string `json:"brokers,optional"` // 多个用英文逗号分隔
	Topic         string `json:"topic,default=cu-bench-outcomes"`
	Partitions    int    `json:"partitions,default=1"`
	SendTimeoutMs int    `json:"send_timeout_ms,default=5000"` // 单条消息等待 ack 的超时
	BatchSize     int    `json:"batch_size,optional"`
	LingerMs      int    `json:"linger_ms,default=5"`
}

func (c *KafkaConfig) ToKafkaOption() mq.KafkaProducerOption {
	return mq.KafkaProducerOption{
		Brokers:    c.Brokers,
		BatchSize:  c.BatchSize,
		LingerMs:   c.LingerMs,
		Topic:      c.Topic,
		Partitions: c.Partitions,
	}
}

type MetricsConfig struct {
	Listen string `json:"listen,optional"` // 例如 ":9102"，为空不启动
}

type ReportConfig struct {
	Path string `json:"path,optional"` // 为空不写报告
}

// BenchConfig 是主配置结构体
type BenchConfig struct {
	Logger    LogConfig      `json:"logger"`
	Rpc       RpcConfig      `json:"rpc"`
	ProgramID string         `json:"program_id"` // 被测 counter 程序地址（base58）
	Payer     PayerConfig    `json:"payer"`
	Funding   FundingConfig  `json:"funding"`
	Batch     BatchConfig    `json:"batch"`
	Confirm   ConfirmConfig  `json:"confirm"`
	Redis     RedisConfig    `json:"redis"`
	Postgres  PostgresConfig `json:"postgres"`
	Kafka     KafkaConfig    `json:"kafka"`
	Metrics   MetricsConfig  `json:"metrics"`
	Report    ReportConfig   `json:"report"`
}

// Validate 检查取值，conf.MustLoad 只负责类型与默认值
func (c *BenchConfig) Validate() error {
	var errs []string
	if strings.TrimSpace(c.Rpc.Endpoint) == "" {
		errs = append(errs, "rpc.endpoint is empty")
	}
	if _, err := types.TryPubkeyFromBase58(c.ProgramID); err != nil {
		errs = append(errs, fmt.Sprintf("program_id %q: %v", c.ProgramID, err))
	}
	if c.Batch.Count <= 0 {
		errs = append(errs, "batch.count must be > 0")
	}
	switch c.Batch.BlockhashMode {
	case consts.BlockhashModeShared, consts.BlockhashModePerItem:
	default:
		errs = append(errs, fmt.Sprintf("batch.blockhash_mode %q must be %s or %s",
			c.Batch.BlockhashMode, consts.BlockhashModeShared, consts.BlockhashModePerItem))
	}
	if c.Confirm.MaxAttempts <= 0 {
		errs = append(errs, "confirm.max_attempts must be > 0")
	}
	if c.Confirm.RetryIntervalMs < 0 {
		errs = append(errs, "confirm.retry_interval_ms must be >= 0")
	}
	if c.Funding.AirdropLamports == 0 {
		errs = append(errs, "funding.airdrop_lamports must be > 0")
	}
	if c.Funding.PollIntervalMs <= 0 || c.Funding.MaxWaitMs < c.Funding.PollIntervalMs {
		errs = append(errs, "funding.poll_interval_ms must be > 0 and <= funding.max_wait_ms")
	}
	if c.Kafka.Brokers != "" && c.Kafka.Topic == "" {
		errs = append(errs, "kafka.topic is empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// MustProgramID Validate 通过后调用
func (c *BenchConfig) MustProgramID() types.Pubkey {
	return types.PubkeyFromBase58(c.ProgramID)
}
