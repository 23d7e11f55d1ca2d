package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubkeyBase58(t *testing.T) {
	const s = "BPFLoaderUpgradeab1e11111111111111111111111"
	p, err := TryPubkeyFromBase58(s)
	require.NoError(t, err)
	assert.Equal(t, s, p.String())
	assert.True(t, p.Equals(PubkeyFromBase58(s)))
	assert.Equal(t, p, PubkeyFromCommon(p.ToCommon()))

	// 系统程序地址为全零
	assert.True(t, PubkeyFromBase58("11111111111111111111111111111111").IsZero())
}

func TestTryPubkeyFromBase58_Invalid(t *testing.T) {
	_, err := TryPubkeyFromBase58("0OIl") // 非 base58 字符
	assert.Error(t, err)

	_, err = TryPubkeyFromBase58("abc") // 长度不对
	assert.Error(t, err)

	assert.Panics(t, func() { PubkeyFromBase58("abc") })
}

func TestPubkeyFromBytes(t *testing.T) {
	_, err := PubkeyFromBytes(make([]byte, 31))
	assert.Error(t, err)

	b := make([]byte, 32)
	b[0] = 7
	p, err := PubkeyFromBytes(b)
	require.NoError(t, err)
	assert.Equal(t, byte(7), p[0])
}
