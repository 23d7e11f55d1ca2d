package account

import (
	"context"

	"cu-bench-sol/internal/ledger"
	"cu-bench-sol/internal/types"
	"cu-bench-sol/pkg/logger"
)

// Fetcher 只需要账户查询能力，ledger.Client 即满足
type Fetcher interface {
	GetAccountInfo(ctx context.Context, addr types.Pubkey) (ledger.Account, error)
}

// Reader 按地址读取账户，不缓存、不重试。
// 失败时返回 ledger.ErrNotFound 或 ledger.ErrTransport（已包装）。
type Reader struct {
	client Fetcher
}

func NewReader(client Fetcher) *Reader {
	return &Reader{client: client}
}

func (r *Reader) Fetch(ctx context.Context, addr types.Pubkey) (ledger.Account, error) {
	acc, err := r.client.GetAccountInfo(ctx, addr)
	if err != nil {
		return ledger.Account{}, err
	}
	logger.Debugf("[AccountReader] fetched %s owner=%s len=%d lamports=%d", addr, acc.Owner, len(acc.Data), acc.Lamports)
	return acc, nil
}
