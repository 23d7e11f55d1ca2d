package types

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"
)

// Pubkey 账户地址（32 字节），按值传递
type Pubkey [32]byte

func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

func (p Pubkey) Equals(other Pubkey) bool {
	return p == other
}

func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

// ToCommon 转成 SDK 的公钥类型，两者底层都是 [32]byte
func (p Pubkey) ToCommon() common.PublicKey {
	return common.PublicKey(p)
}

func PubkeyFromCommon(k common.PublicKey) Pubkey {
	return Pubkey(k)
}

// PubkeyFromBytes 从原始字节构造 Pubkey，长度必须为 32
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	if len(b) != 32 {
		return Pubkey{}, fmt.Errorf("invalid pubkey length: got %d, want 32", len(b))
	}
	var p Pubkey
	copy(p[:], b)
	return p, nil
}

// TryPubkeyFromBase58 解析 base58 字符串为 Pubkey，失败时返回 error（用于不信任输入路径，例如配置文件）
func TryPubkeyFromBase58(s string) (Pubkey, error) {
	data, err := base58.Decode(s)
	if err != nil {
		return Pubkey{}, fmt.Errorf("failed to decode base58 pubkey %q: %w", s, err)
	}
	if len(data) != 32 {
		return Pubkey{}, fmt.Errorf("invalid pubkey length: got %d, want 32, input=%q", len(data), s)
	}
	var p Pubkey
	copy(p[:], data)
	return p, nil
}

// PubkeyFromBase58 仅用于常量初始化，解析失败直接 panic
func PubkeyFromBase58(s string) Pubkey {
	p, err := TryPubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return p
}
