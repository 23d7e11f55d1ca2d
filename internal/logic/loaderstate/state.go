package loaderstate

import (
	"encoding/binary"
	"errors"
	"fmt"

	"cu-bench-sol/internal/types"

	"github.com/near/borsh-go"
)

// ErrDecode 字节布局与任何已知 variant 都不匹配
var ErrDecode = errors.New("loader state decode error")

// Kind 账户数据前 4 字节（u32 小端）的判别值
type Kind uint32

const (
	KindUninitialized Kind = 0
	KindBuffer        Kind = 1
	KindProgram       Kind = 2
	KindProgramData   Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindUninitialized:
		return "Uninitialized"
	case KindBuffer:
		return "Buffer"
	case KindProgram:
		return "Program"
	case KindProgramData:
		return "ProgramData"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(k))
	}
}

const (
	tagSize    = 4
	pubkeySize = 32
	optionSize = 1 + pubkeySize

	// ProgramDataMetadataSize ProgramData 头部固定长度：tag(4) + slot(8) + Option<Pubkey>(33)。
	// 无论 authority 是否存在都按最大长度占位，字节码紧随其后。
	ProgramDataMetadataSize = tagSize + 8 + optionSize

	programSize   = tagSize + pubkeySize
	bufferMinSize = tagSize + 1
)

// State 可升级 loader 的账户状态，封闭集合，只有本包内的类型实现
type State interface {
	Kind() Kind
	sealed()
}

type Uninitialized struct{}

// Buffer 部署过程中的中间账户
type Buffer struct {
	Authority *types.Pubkey
}

// Program 可执行账户，只保存 programdata 账户地址
type Program struct {
	ProgramDataAddress types.Pubkey
}

// ProgramData 字节码账户的头部
type ProgramData struct {
	Slot             uint64
	UpgradeAuthority *types.Pubkey
}

func (Uninitialized) Kind() Kind { return KindUninitialized }
func (Buffer) Kind() Kind        { return KindBuffer }
func (Program) Kind() Kind       { return KindProgram }
func (ProgramData) Kind() Kind   { return KindProgramData }

func (Uninitialized) sealed() {}
func (Buffer) sealed()        {}
func (Program) sealed()       {}
func (ProgramData) sealed()   {}

// 以下为 tag 之后的字段布局，Option 与定长数组的编码和 borsh 一致
type bufferLayout struct {
	Authority *types.Pubkey
}

type programLayout struct {
	ProgramDataAddress types.Pubkey
}

type programDataLayout struct {
	Slot             uint64
	UpgradeAuthority *types.Pubkey
}

// Decode 按判别值选择 variant，再读取固定偏移的字段
func Decode(data []byte) (State, error) {
	if len(data) < tagSize {
		return nil, fmt.Errorf("%w: data too short for tag: len=%d", ErrDecode, len(data))
	}
	kind := Kind(binary.LittleEndian.Uint32(data[:tagSize]))

	switch kind {
	case KindUninitialized:
		return Uninitialized{}, nil

	case KindBuffer:
		if len(data) < bufferMinSize {
			return nil, fmt.Errorf("%w: buffer too short: len=%d", ErrDecode, len(data))
		}
		if err := checkOption(data, tagSize); err != nil {
			return nil, err
		}
		var layout bufferLayout
		if err := deserialize(&layout, data[tagSize:min(len(data), tagSize+optionSize)], kind); err != nil {
			return nil, err
		}
		if data[tagSize] == 0 {
			layout.Authority = nil
		}
		return Buffer{Authority: layout.Authority}, nil

	case KindProgram:
		if len(data) < programSize {
			return nil, fmt.Errorf("%w: program too short: len=%d", ErrDecode, len(data))
		}
		var layout programLayout
		if err := deserialize(&layout, data[tagSize:programSize], kind); err != nil {
			return nil, err
		}
		return Program{ProgramDataAddress: layout.ProgramDataAddress}, nil

	case KindProgramData:
		if len(data) < ProgramDataMetadataSize {
			return nil, fmt.Errorf("%w: programdata too short: len=%d", ErrDecode, len(data))
		}
		if err := checkOption(data, tagSize+8); err != nil {
			return nil, err
		}
		var layout programDataLayout
		if err := deserialize(&layout, data[tagSize:ProgramDataMetadataSize], kind); err != nil {
			return nil, err
		}
		if data[tagSize+8] == 0 {
			layout.UpgradeAuthority = nil
		}
		return ProgramData{Slot: layout.Slot, UpgradeAuthority: layout.UpgradeAuthority}, nil

	default:
		return nil, fmt.Errorf("%w: unknown discriminant %d", ErrDecode, uint32(kind))
	}
}

// checkOption Option 的 tag 只能是 0 或 1，Some 时后面必须还有 32 字节
func checkOption(data []byte, offset int) error {
	switch data[offset] {
	case 0:
		return nil
	case 1:
		if len(data) < offset+optionSize {
			return fmt.Errorf("%w: option pubkey truncated at offset %d", ErrDecode, offset)
		}
		return nil
	default:
		return fmt.Errorf("%w: invalid option tag %d at offset %d", ErrDecode, data[offset], offset)
	}
}

func deserialize(dst any, data []byte, kind Kind) error {
	if err := borsh.Deserialize(dst, data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, kind, err)
	}
	return nil
}

// Encode 生成账户数据头部，ProgramData 会补齐到 ProgramDataMetadataSize，
// 调用方在其后追加字节码即可。主要用于构造测试数据。
func Encode(s State) ([]byte, error) {
	var layout any
	switch v := s.(type) {
	case Uninitialized:
		layout = nil
	case Buffer:
		layout = bufferLayout{Authority: v.Authority}
	case Program:
		layout = programLayout{ProgramDataAddress: v.ProgramDataAddress}
	case ProgramData:
		layout = programDataLayout{Slot: v.Slot, UpgradeAuthority: v.UpgradeAuthority}
	default:
		return nil, fmt.Errorf("unsupported loader state %T", s)
	}

	out := make([]byte, tagSize, ProgramDataMetadataSize)
	binary.LittleEndian.PutUint32(out, uint32(s.Kind()))
	if layout != nil {
		body, err := borsh.Serialize(layout)
		if err != nil {
			return nil, fmt.Errorf("serialize %s: %w", s.Kind(), err)
		}
		out = append(out, body...)
	}
	if s.Kind() == KindProgramData && len(out) < ProgramDataMetadataSize {
		out = append(out, make([]byte, ProgramDataMetadataSize-len(out))...)
	}
	return out, nil
}
