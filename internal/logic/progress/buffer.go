package progress

import (
	"sync"
)

// recordBuffer 按序号去重，同一序号后写覆盖先写
type recordBuffer struct {
	mu      sync.Mutex
	order   []uint32
	records map[uint32]*TxRecord
}

func newRecordBuffer() *recordBuffer {
	return &recordBuffer{records: make(map[uint32]*TxRecord)}
}

func (b *recordBuffer) Add(rec *TxRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.records[rec.Index]; !ok {
		b.order = append(b.order, rec.Index)
	}
	b.records[rec.Index] = rec
}

// Flush 按首次加入顺序返回并清空
func (b *recordBuffer) Flush() []*TxRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	flushed := make([]*TxRecord, 0, len(b.order))
	for _, idx := range b.order {
		flushed = append(flushed, b.records[idx])
	}
	b.order = nil
	b.records = make(map[uint32]*TxRecord) // reset
	return flushed
}

func (b *recordBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}
