package types

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Hash 32 字节哈希，这里主要用于 recent blockhash
type Hash [32]byte

func (h Hash) String() string {
	return base58.Encode(h[:])
}

func (h Hash) Equals(other Hash) bool {
	return h == other
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func HashFromBase58(s string) (Hash, error) {
	var h Hash
	data, err := base58.Decode(s)
	if err != nil {
		return h, fmt.Errorf("decode hash %q: %w", s, err)
	}
	if len(data) != 32 {
		return h, fmt.Errorf("invalid hash length: got %d, want 32", len(data))
	}
	copy(h[:], data)
	return h, nil
}
