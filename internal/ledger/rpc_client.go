package ledger

import (
	"context"
	"fmt"
	"time"

	"cu-bench-sol/internal/metrics"
	pkgtypes "cu-bench-sol/internal/pkg/types"
	"cu-bench-sol/internal/types"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/rpc"
	sdktypes "github.com/blocto/solana-go-sdk/types"
)

// RpcOption 节点连接参数
type RpcOption struct {
	Endpoint      string
	Commitment    string
	Timeout       time.Duration // 单次 RPC 超时
	SkipPreflight bool
}

// RpcClient 基于 blocto solana-go-sdk 的 Client 实现。
// 所有错误都包成 ErrTransport，内部不做重试，由调用方决定。
type RpcClient struct {
	c             *client.Client
	commitment    rpc.Commitment
	timeout       time.Duration
	skipPreflight bool
}

var _ Client = (*RpcClient)(nil)

func NewRpcClient(opt RpcOption) *RpcClient {
	timeout := opt.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	commitment := rpc.CommitmentConfirmed
	if opt.Commitment != "" {
		commitment = rpc.Commitment(opt.Commitment)
	}
	return &RpcClient{
		c:             client.NewClient(opt.Endpoint),
		commitment:    commitment,
		timeout:       timeout,
		skipPreflight: opt.SkipPreflight,
	}
}

func (r *RpcClient) call(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	metrics.ObserveRpc(method, start, err)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTransport, method, err)
	}
	return nil
}

func (r *RpcClient) GetAccountInfo(ctx context.Context, addr types.Pubkey) (Account, error) {
	var info client.AccountInfo
	err := r.call(ctx, "getAccountInfo", func(ctx context.Context) (err error) {
		info, err = r.c.GetAccountInfoWithConfig(ctx, addr.String(), client.GetAccountInfoConfig{
			Commitment: r.commitment,
		})
		return err
	})
	if err != nil {
		return Account{}, err
	}
	// SDK 在账户不存在时返回零值
	if info.Owner == (common.PublicKey{}) && info.Lamports == 0 && len(info.Data) == 0 {
		return Account{}, fmt.Errorf("%w: %s", ErrNotFound, addr)
	}
	return Account{
		Owner:      types.PubkeyFromCommon(info.Owner),
		Data:       info.Data,
		Lamports:   info.Lamports,
		Executable: info.Executable,
	}, nil
}

func (r *RpcClient) GetBalance(ctx context.Context, addr types.Pubkey) (uint64, error) {
	var balance uint64
	err := r.call(ctx, "getBalance", func(ctx context.Context) (err error) {
		balance, err = r.c.GetBalanceWithConfig(ctx, addr.String(), client.GetBalanceConfig{
			Commitment: r.commitment,
		})
		return err
	})
	return balance, err
}

func (r *RpcClient) GetLatestBlockhash(ctx context.Context) (pkgtypes.Hash, error) {
	var value rpc.GetLatestBlockhashValue
	err := r.call(ctx, "getLatestBlockhash", func(ctx context.Context) (err error) {
		value, err = r.c.GetLatestBlockhashWithConfig(ctx, client.GetLatestBlockhashConfig{
			Commitment: r.commitment,
		})
		return err
	})
	if err != nil {
		return pkgtypes.Hash{}, err
	}
	h, err := pkgtypes.HashFromBase58(value.Blockhash)
	if err != nil {
		return pkgtypes.Hash{}, fmt.Errorf("%w: getLatestBlockhash: %v", ErrTransport, err)
	}
	return h, nil
}

func (r *RpcClient) RequestAirdrop(ctx context.Context, addr types.Pubkey, lamports uint64) (string, error) {
	var sig string
	err := r.call(ctx, "requestAirdrop", func(ctx context.Context) (err error) {
		sig, err = r.c.RequestAirdrop(ctx, addr.String(), lamports)
		return err
	})
	return sig, err
}

func (r *RpcClient) SendTransaction(ctx context.Context, payer Keypair, ix Instruction, blockhash pkgtypes.Hash) (string, error) {
	tx, err := sdktypes.NewTransaction(sdktypes.NewTransactionParam{
		Message: sdktypes.NewMessage(sdktypes.NewMessageParam{
			FeePayer:        payer.account.PublicKey,
			RecentBlockhash: blockhash.String(),
			Instructions: []sdktypes.Instruction{
				{
					ProgramID: ix.ProgramID.ToCommon(),
					Accounts:  []sdktypes.AccountMeta{},
					Data:      ix.Data,
				},
			},
		}),
		Signers: []sdktypes.Account{payer.account},
	})
	if err != nil {
		// 签名失败属于本地错误，不算 transport
		return "", fmt.Errorf("build transaction: %w", err)
	}

	var sig string
	err = r.call(ctx, "sendTransaction", func(ctx context.Context) (err error) {
		sig, err = r.c.SendTransactionWithConfig(ctx, tx, client.SendTransactionConfig{
			SkipPreflight:       r.skipPreflight,
			PreflightCommitment: r.commitment,
		})
		return err
	})
	return sig, err
}

func (r *RpcClient) GetTransaction(ctx context.Context, signature string) (*Transaction, error) {
	var tx *client.Transaction
	err := r.call(ctx, "getTransaction", func(ctx context.Context) (err error) {
		tx, err = r.c.GetTransactionWithConfig(ctx, signature, client.GetTransactionConfig{
			Commitment: r.commitment,
		})
		return err
	})
	if err != nil || tx == nil {
		return nil, err
	}

	result := &Transaction{Slot: tx.Slot}
	if tx.Meta != nil {
		result.Fee = tx.Meta.Fee
		result.Err = tx.Meta.Err
		result.ComputeUnitsConsumed = tx.Meta.ComputeUnitsConsumed
		result.LogMessages = tx.Meta.LogMessages
	}
	return result, nil
}

func (r *RpcClient) GetSignatureStatus(ctx context.Context, signature string) (*SignatureStatus, error) {
	var status *rpc.SignatureStatus
	err := r.call(ctx, "getSignatureStatuses", func(ctx context.Context) (err error) {
		status, err = r.c.GetSignatureStatus(ctx, signature)
		return err
	})
	if err != nil || status == nil {
		return nil, err
	}

	result := &SignatureStatus{Slot: status.Slot, Err: status.Err}
	if status.ConfirmationStatus != nil {
		result.ConfirmationStatus = string(*status.ConfirmationStatus)
	}
	return result, nil
}
