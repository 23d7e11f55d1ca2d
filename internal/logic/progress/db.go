package progress

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS bench_tx (
	run_id         TEXT        NOT NULL,
	idx            BIGINT      NOT NULL,
	signature      TEXT        NOT NULL DEFAULT '',
	status         SMALLINT    NOT NULL,
	slot           BIGINT      NOT NULL DEFAULT 0,
	compute_units  BIGINT,
	logged_counter BIGINT,
	attempts       INT         NOT NULL DEFAULT 0,
	error          TEXT        NOT NULL DEFAULT '',
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, idx)
)`

const batchLimit = 1000

// PgOutcomeStore 把每笔交易的最终结果持久化到 PostgreSQL，便于跨 run 对比 CU
type PgOutcomeStore struct {
	pool *pgxpool.Pool
}

func NewPgOutcomeStore(pool *pgxpool.Pool) *PgOutcomeStore {
	return &PgOutcomeStore{pool: pool}
}

// EnsureSchema 建表（幂等）
func (p *PgOutcomeStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create bench_tx failed: %w", err)
	}
	return nil
}

// BatchUpsert 按 batchLimit 分批写入，(run_id, idx) 冲突时覆盖状态字段
func (p *PgOutcomeStore) BatchUpsert(ctx context.Context, records []*TxRecord) error {
	for i := 0; i < len(records); i += batchLimit {
		end := min(i+batchLimit, len(records))
		if err := p.upsertChunk(ctx, records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *PgOutcomeStore) upsertChunk(ctx context.Context, records []*TxRecord) error {
	query, args := buildUpsert(records)
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %d bench_tx rows failed: %w", len(records), err)
	}
	return nil
}

// buildUpsert 拼多行 INSERT，每行 9 个参数
func buildUpsert(records []*TxRecord) (string, []any) {
	const cols = 9
	var sb strings.Builder
	sb.WriteString(`INSERT INTO bench_tx (run_id, idx, signature, status, slot, compute_units, logged_counter, attempts, error, updated_at) VALUES `)

	args := make([]any, 0, len(records)*cols)
	for i, r := range records {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i * cols
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,now())",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9)
		args = append(args, r.RunID, int64(r.Index), r.Signature, int16(r.Status), int64(r.Slot),
			optInt64(r.ComputeUnits), optInt64(r.LoggedCounter), r.Attempts, r.Error)
	}

	sb.WriteString(` ON CONFLICT (run_id, idx) DO UPDATE SET
	signature = EXCLUDED.signature,
	status = EXCLUDED.status,
	slot = EXCLUDED.slot,
	compute_units = EXCLUDED.compute_units,
	logged_counter = EXCLUDED.logged_counter,
	attempts = EXCLUDED.attempts,
	error = EXCLUDED.error,
	updated_at = now()`)
	return sb.String(), args
}

func optInt64(v *uint64) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}
