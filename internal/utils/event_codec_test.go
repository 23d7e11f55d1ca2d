package utils

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestEncodeDecodeEvent(t *testing.T) {
	msg, err := structpb.NewStruct(map[string]any{"index": 7, "status": "confirmed"})
	require.NoError(t, err)

	data, err := EncodeEvent(EventTypeTxOutcome, msg)
	require.NoError(t, err)
	assert.Equal(t, EventTypeTxOutcome, binary.LittleEndian.Uint32(data[:4]))

	var out structpb.Struct
	eventType, err := DecodeEvent(data, &out)
	require.NoError(t, err)
	assert.Equal(t, EventTypeTxOutcome, eventType)
	assert.Equal(t, "confirmed", out.Fields["status"].GetStringValue())
}

func TestDecodeEvent_Short(t *testing.T) {
	_, err := DecodeEvent([]byte{1, 2}, &structpb.Struct{})
	assert.ErrorIs(t, err, ErrShortEvent)
}
