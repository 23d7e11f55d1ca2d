package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"cu-bench-sol/internal/types"

	sdktypes "github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
)

// Keypair 交易付费账户
type Keypair struct {
	account sdktypes.Account
}

// NewKeypair 生成一个新的随机 keypair
func NewKeypair() Keypair {
	return Keypair{account: sdktypes.NewAccount()}
}

func (k Keypair) Pubkey() types.Pubkey {
	return types.PubkeyFromCommon(k.account.PublicKey)
}

// KeypairFromBytes 64 字节私钥（seed + pubkey）
func KeypairFromBytes(b []byte) (Keypair, error) {
	account, err := sdktypes.AccountFromBytes(b)
	if err != nil {
		return Keypair{}, fmt.Errorf("invalid keypair bytes: %w", err)
	}
	return Keypair{account: account}, nil
}

// LoadKeypairFile 读取 keypair 文件，兼容 solana-keygen 的 JSON 数组格式和 base58 字符串
func LoadKeypairFile(path string) (Keypair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Keypair{}, fmt.Errorf("read keypair file %s: %w", path, err)
	}
	content := strings.TrimSpace(string(raw))

	var b []byte
	if strings.HasPrefix(content, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(content), &ints); err != nil {
			return Keypair{}, fmt.Errorf("parse keypair json %s: %w", path, err)
		}
		b = make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return Keypair{}, fmt.Errorf("keypair byte %d out of range: %d", i, v)
			}
			b[i] = byte(v)
		}
	} else {
		b, err = base58.Decode(content)
		if err != nil {
			return Keypair{}, fmt.Errorf("decode base58 keypair %s: %w", path, err)
		}
	}
	if len(b) != 64 {
		return Keypair{}, fmt.Errorf("invalid keypair length: got %d, want 64", len(b))
	}
	return KeypairFromBytes(b)
}
