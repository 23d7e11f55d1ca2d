package counter

import (
	"encoding/binary"

	"cu-bench-sol/internal/ledger"
	"cu-bench-sol/internal/types"
)

// PayloadSize 计数器占用的字节数（u64 小端）
const PayloadSize = 8

// Encode 把计数器编码为指令数据
func Encode(counter uint64) []byte {
	buf := make([]byte, PayloadSize)
	binary.LittleEndian.PutUint64(buf, counter)
	return buf
}

// Decode 与链上程序的解析规则一致：
// - 长度 >= 8 时取前 8 字节按小端解析，多余字节忽略
// - 长度 < 8（包括空）时计数器为 0
func Decode(data []byte) uint64 {
	if len(data) < PayloadSize {
		return 0
	}
	return binary.LittleEndian.Uint64(data[:PayloadSize])
}

// BuildInstructions 生成 n 条计数器指令，第 i 条的计数器值为 i
func BuildInstructions(programID types.Pubkey, n int) []ledger.Instruction {
	ixs := make([]ledger.Instruction, n)
	for i := range ixs {
		ixs[i] = ledger.Instruction{
			ProgramID: programID,
			Data:      Encode(uint64(i)),
		}
	}
	return ixs
}
