package utils

import (
	"encoding/binary"
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
)

// 事件类型前缀
const (
	EventTypeTxOutcome uint32 = 1
)

var ErrShortEvent = errors.New("event payload shorter than type prefix")

// EncodeEvent 将 protobuf 消息编码为带事件类型前缀的二进制数据：
// 前 4 字节为事件类型（uint32，小端序），后续为确定性 protobuf 序列化数据。
func EncodeEvent(eventType uint32, msg proto.Message) ([]byte, error) {
	const extraBuffer = 32

	buf := make([]byte, 4, 4+proto.Size(msg)+extraBuffer)
	binary.LittleEndian.PutUint32(buf[:4], eventType)

	opts := proto.MarshalOptions{Deterministic: true}
	result, err := opts.MarshalAppend(buf, msg)
	if err != nil {
		return nil, fmt.Errorf("EncodeEvent: marshal %T: %w", msg, err)
	}
	return result, nil
}

// DecodeEvent 拆出事件类型并把剩余部分反序列化到 msg
func DecodeEvent(data []byte, msg proto.Message) (uint32, error) {
	if len(data) < 4 {
		return 0, ErrShortEvent
	}
	eventType := binary.LittleEndian.Uint32(data[:4])
	if err := proto.Unmarshal(data[4:], msg); err != nil {
		return eventType, fmt.Errorf("DecodeEvent: unmarshal %T: %w", msg, err)
	}
	return eventType, nil
}
