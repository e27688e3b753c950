package settlement

import (
	"sync"
	"time"

	"settlement-core-go/order"
)

// TradeRecord 一笔已入账的成交。
type TradeRecord struct {
	OrderID   string
	AccountID string
	Symbol    string
	Side      order.Side
	Qty       int64
	Price     float64
	Fee       float64
	Timestamp time.Time
}

// Journal 仅追加的成交流水。
type Journal struct {
	mu      sync.RWMutex
	records []TradeRecord
}

// NewJournal 创建空流水。
func NewJournal() *Journal {
	return &Journal{}
}

// Append 追加一条记录。
func (j *Journal) Append(r TradeRecord) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	j.records = append(j.records, r)
}

// Records 全部记录的只读副本。
func (j *Journal) Records() []TradeRecord {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]TradeRecord, len(j.records))
	copy(out, j.records)
	return out
}

// Len 记录条数。
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.records)
}
