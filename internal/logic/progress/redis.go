package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	txKeyPrefix = "cubench:tx"
	defaultTTL  = 24 * time.Hour
)

// RedisStatusStore 管理 Redis 中每笔交易的状态，供外部观察进度
type RedisStatusStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStatusStore(rdb *redis.Client, ttl time.Duration) *RedisStatusStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStatusStore{rdb: rdb, ttl: ttl}
}

// txKey 按 run + 序号区分
func txKey(runID string, index uint32) string {
	return fmt.Sprintf("%s:%s:%d", txKeyPrefix, runID, index)
}

// GetStatus 获取交易状态，key 不存在返回 TxUnknown
func (r *RedisStatusStore) GetStatus(ctx context.Context, runID string, index uint32) (TxStatus, error) {
	val, err := r.rdb.Get(ctx, txKey(runID, index)).Int()
	switch {
	case err == redis.Nil:
		return TxUnknown, nil
	case err != nil:
		return TxUnknown, fmt.Errorf("redis get error: %w", err)
	}
	switch s := TxStatus(val); s {
	case TxSubmitted, TxConfirmed, TxMissing, TxRejected:
		return s, nil
	default:
		return TxUnknown, nil // 容错处理
	}
}

// MarkStatus 批量写状态，一次 pipeline 往返
func (r *RedisStatusStore) MarkStatus(ctx context.Context, runID string, records []*TxRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, rec := range records {
			pipe.Set(ctx, txKey(runID, rec.Index), int(rec.Status), r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis pipeline set error: %w", err)
	}
	return nil
}
