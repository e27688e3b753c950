package position

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInsufficientShares 可用持仓不足，冻结被整体拒绝。
	ErrInsufficientShares = errors.New("insufficient available shares")
	// ErrTicketMismatch 凭证不存在或不属于该订单。
	ErrTicketMismatch = errors.New("share ticket does not match order")
	// ErrTicketOverdraw 结算/释放数量超出凭证剩余冻结量。
	ErrTicketOverdraw = errors.New("quantity exceeds ticket remaining")
	// ErrInvalidQty 数量非法。
	ErrInvalidQty = errors.New("invalid share quantity")
)

// Ticket 持仓冻结凭证：卖出委托占用的股数。
type Ticket struct {
	ID        string
	OrderID   string
	Symbol    string
	remaining int64
	released  bool
}

// Remaining 凭证剩余冻结股数。
func (t *Ticket) Remaining() int64 { return t.remaining }

// Position 持仓快照，T+1 规则下区分总持仓与可用持仓。
type Position struct {
	AccountID       string
	Symbol          string
	TotalVolume     int64
	AvailableVolume int64
	AvgCost         float64
	UpdatedAt       time.Time
}

type holding struct {
	total     int64
	available int64
	avgCost   float64
	updatedAt time.Time
}

// Ledger 单账户持仓账本。
//
// A股 T+1 结算：当日买入只增加 total，available 要等日终
// Rollover 才放开；卖出先冻结 available，成交时再从 total 扣减。
// 冻结的查减在账本锁内一步完成，避免同一标的的并发卖单超额占用。
type Ledger struct {
	mu        sync.Mutex
	accountID string
	holdings  map[string]*holding
	tickets   map[string]*Ticket
}

// NewLedger 创建空账本。
func NewLedger(accountID string) *Ledger {
	return &Ledger{
		accountID: accountID,
		holdings:  make(map[string]*holding),
		tickets:   make(map[string]*Ticket),
	}
}

// FreezeShares 冻结可用持仓（卖出委托），返回凭证 ID。
// total 不变：股份只是被占用，尚未离开账户。
func (l *Ledger) FreezeShares(orderID, symbol string, qty int64) (string, error) {
	if qty <= 0 {
		return "", fmt.Errorf("%w: freeze %d", ErrInvalidQty, qty)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.holdings[symbol]
	if !ok || h.available < qty {
		have := int64(0)
		if ok {
			have = h.available
		}
		return "", fmt.Errorf("%w: %s need %d, have %d", ErrInsufficientShares, symbol, qty, have)
	}
	t := &Ticket{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Symbol:    symbol,
		remaining: qty,
	}
	h.available -= qty
	h.updatedAt = time.Now()
	l.tickets[t.ID] = t
	return t.ID, nil
}

// SettleSell 卖出成交：股份离开账户，total 扣减并冲销凭证。
// available 在冻结时已经扣过，这里不再动。
func (l *Ledger) SettleSell(orderID, ticketID string, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("%w: settle %d", ErrInvalidQty, qty)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tickets[ticketID]
	if !ok || t.OrderID != orderID {
		return fmt.Errorf("%w: ticket %q order %q", ErrTicketMismatch, ticketID, orderID)
	}
	if qty > t.remaining {
		return fmt.Errorf("%w: settle %d, remaining %d", ErrTicketOverdraw, qty, t.remaining)
	}
	h, ok := l.holdings[t.Symbol]
	if !ok || h.total < qty {
		// 凭证存在则持仓必然覆盖，到这里说明账本被绕过修改
		return fmt.Errorf("%w: holding %s missing for ticket %q", ErrTicketMismatch, t.Symbol, ticketID)
	}
	t.remaining -= qty
	h.total -= qty
	if h.total == 0 {
		h.avgCost = 0
	}
	h.updatedAt = time.Now()
	l.removeIfEmptyLocked(t.Symbol)
	return nil
}

// SettleBuy 买入成交：total 立即增加，available 不变（T+1，当日
// 买入当日不可卖），同时维护移动加权平均成本。
func (l *Ledger) SettleBuy(symbol string, qty int64, price float64) error {
	if qty <= 0 {
		return fmt.Errorf("%w: buy %d", ErrInvalidQty, qty)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.holdings[symbol]
	if !ok {
		h = &holding{}
		l.holdings[symbol] = h
	}
	costBasis := float64(h.total)*h.avgCost + float64(qty)*price
	h.total += qty
	h.avgCost = costBasis / float64(h.total)
	h.updatedAt = time.Now()
	return nil
}

// ReleaseShares 释放凭证全部剩余冻结量回可用持仓，撤单/拒单用。
// 幂等：重复释放是空操作。
func (l *Ledger) ReleaseShares(orderID, ticketID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tickets[ticketID]
	if !ok || t.OrderID != orderID {
		return 0, fmt.Errorf("%w: ticket %q order %q", ErrTicketMismatch, ticketID, orderID)
	}
	if t.released || t.remaining == 0 {
		t.released = true
		return 0, nil
	}
	qty := t.remaining
	t.remaining = 0
	t.released = true
	h, ok := l.holdings[t.Symbol]
	if !ok {
		h = &holding{}
		l.holdings[t.Symbol] = h
	}
	h.available += qty
	h.updatedAt = time.Now()
	return qty, nil
}

// Rollover T+1 日终结算：所有持仓的可用量放开到总量，但扣除
// 未释放凭证仍占用的股数——在途卖单的预留必须继续生效，否则
// 后续撤单释放会把 available 顶过 total。这是除凭证释放外唯一
// 增加 available 的操作，由外部的交易日切换信号触发，账本自己
// 不看钟。返回结算的持仓数。
func (l *Ledger) Rollover() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	reserved := make(map[string]int64)
	for _, t := range l.tickets {
		if !t.released {
			reserved[t.Symbol] += t.remaining
		}
	}
	n := 0
	now := time.Now()
	for symbol, h := range l.holdings {
		h.available = h.total - reserved[symbol]
		h.updatedAt = now
		n++
		l.removeIfEmptyLocked(symbol)
	}
	return n
}

// Snapshot 单个持仓的只读副本。
func (l *Ledger) Snapshot(symbol string) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.holdings[symbol]
	if !ok {
		return Position{}, false
	}
	return l.snapshotLocked(symbol, h), true
}

// All 所有持仓的只读副本。
func (l *Ledger) All() []Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Position, 0, len(l.holdings))
	for symbol, h := range l.holdings {
		out = append(out, l.snapshotLocked(symbol, h))
	}
	return out
}

// TicketRemaining 查询凭证剩余冻结股数。
func (l *Ledger) TicketRemaining(ticketID string) (int64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tickets[ticketID]
	if !ok {
		return 0, false
	}
	return t.remaining, true
}

func (l *Ledger) snapshotLocked(symbol string, h *holding) Position {
	return Position{
		AccountID:       l.accountID,
		Symbol:          symbol,
		TotalVolume:     h.total,
		AvailableVolume: h.available,
		AvgCost:         h.avgCost,
		UpdatedAt:       h.updatedAt,
	}
}

// removeIfEmptyLocked 总量与可用量都归零后移除持仓记录。
func (l *Ledger) removeIfEmptyLocked(symbol string) {
	if h, ok := l.holdings[symbol]; ok && h.total == 0 && h.available == 0 {
		delete(l.holdings, symbol)
	}
}
