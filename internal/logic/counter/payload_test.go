package counter

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"cu-bench-sol/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Scenarios(t *testing.T) {
	assert.Equal(t, uint64(5), Decode([]byte{5, 0, 0, 0, 0, 0, 0, 0}))
	assert.Equal(t, uint64(0), Decode([]byte{}))
	assert.Equal(t, uint64(0), Decode(nil))
	assert.Equal(t, uint64(5), Decode([]byte{5, 0, 0, 0, 0, 0, 0, 0, 99}), "多余字节应被忽略")
}

func TestDecode_ShortPayloadIsZero(t *testing.T) {
	for n := 0; n < PayloadSize; n++ {
		data := make([]byte, n)
		for i := range data {
			data[i] = 0xff
		}
		assert.Equal(t, uint64(0), Decode(data), "len=%d", n)
	}
}

func TestDecode_LittleEndianPrefix(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		data := make([]byte, PayloadSize+r.Intn(32))
		r.Read(data)
		assert.Equal(t, binary.LittleEndian.Uint64(data[:8]), Decode(data))
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, v := range []uint64{0, 1, 99, 1 << 40, ^uint64(0)} {
		assert.Equal(t, v, Decode(Encode(v)))
	}
}

func TestBuildInstructions(t *testing.T) {
	programID := types.PubkeyFromBase58("H2GM7Vci4vVTWUfM4CQ5gWuUXF56wgXC4CkUY2Ea7mgC")
	ixs := BuildInstructions(programID, 100)
	require.Len(t, ixs, 100)
	for i, ix := range ixs {
		assert.Equal(t, programID, ix.ProgramID)
		assert.Equal(t, Encode(uint64(i)), ix.Data)
	}
}

func TestParseLoggedCounter(t *testing.T) {
	logs := []string{
		"Program H2GM7Vci4vVTWUfM4CQ5gWuUXF56wgXC4CkUY2Ea7mgC invoke [1]",
		"Program log: Count: 42",
		"Program H2GM7Vci4vVTWUfM4CQ5gWuUXF56wgXC4CkUY2Ea7mgC consumed 312 of 200000 compute units",
	}
	v, ok := ParseLoggedCounter(logs)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), v)

	_, ok = ParseLoggedCounter([]string{"Program log: Count: abc"})
	assert.False(t, ok)
	_, ok = ParseLoggedCounter(nil)
	assert.False(t, ok)
}
