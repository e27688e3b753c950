package asset

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInsufficientFunds 可用资金不足，冻结被整体拒绝。
	ErrInsufficientFunds = errors.New("insufficient available cash")
	// ErrTicketMismatch 凭证不存在或不属于该订单，属上游调用错误。
	ErrTicketMismatch = errors.New("freeze ticket does not match order")
	// ErrTicketOverdraw 结算/释放金额超出凭证剩余冻结额。
	ErrTicketOverdraw = errors.New("amount exceeds ticket remaining")
	// ErrInvalidAmount 金额非法（负数或非正数，视操作而定）。
	ErrInvalidAmount = errors.New("invalid cash amount")
)

// Ticket 资金冻结凭证：记录某笔订单仍被冻结的金额。
// 凭证归账本所有，订单只持有凭证 ID 引用，结算与释放都按凭证
// 精确冲销，不从账本总额反推。
type Ticket struct {
	ID        string
	OrderID   string
	remaining float64
	released  bool
}

// Remaining 凭证剩余冻结金额。
func (t *Ticket) Remaining() float64 { return t.remaining }

// Asset 账户资金快照。
// total_asset = available + frozen + 持仓市值，市值由外部提供，
// 账本只负责前两项的簿记。
type Asset struct {
	AccountID     string
	AvailableCash float64
	FrozenCash    float64
	UpdatedAt     time.Time
}

// Ledger 单账户资金账本，冻结/结算/释放三段式记账。
// 所有操作对账户记录原子生效：要么完整成功，要么毫无副作用。
type Ledger struct {
	mu        sync.Mutex
	accountID string
	available float64
	frozen    float64
	tickets   map[string]*Ticket
	updatedAt time.Time
}

// NewLedger 创建空账本。
func NewLedger(accountID string) *Ledger {
	return &Ledger{
		accountID: accountID,
		tickets:   make(map[string]*Ticket),
		updatedAt: time.Now(),
	}
}

// Deposit 入金。
func (l *Ledger) Deposit(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: deposit %f", ErrInvalidAmount, amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.available += amount
	l.updatedAt = time.Now()
	return nil
}

// Freeze 冻结资金（下单前）：available -> frozen，返回凭证 ID。
// 可用资金不足时整体失败，不产生部分效果。
func (l *Ledger) Freeze(orderID string, amount float64) (string, error) {
	if amount < 0 {
		return "", fmt.Errorf("%w: freeze %f", ErrInvalidAmount, amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.available < amount {
		return "", fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientFunds, amount, l.available)
	}
	t := &Ticket{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		remaining: amount,
	}
	l.available -= amount
	l.frozen += amount
	l.tickets[t.ID] = t
	l.updatedAt = time.Now()
	return t.ID, nil
}

// Settle 成交扣款：冻结资金流出账户（支付给对手方），同时可附带
// 从可用资金扣除的费用。actual 不得超过凭证剩余额，fee 不得超过
// 当前可用资金；两项校验都通过后才落账，保证全有或全无。
// 结算后的差额仍留在冻结中，等待后续部分成交或释放。
func (l *Ledger) Settle(orderID, ticketID string, actual, fee float64) error {
	if actual < 0 || fee < 0 {
		return fmt.Errorf("%w: settle %f fee %f", ErrInvalidAmount, actual, fee)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	t, err := l.ticketLocked(orderID, ticketID)
	if err != nil {
		return err
	}
	if actual > t.remaining {
		return fmt.Errorf("%w: settle %.2f, remaining %.2f", ErrTicketOverdraw, actual, t.remaining)
	}
	if fee > l.available {
		return fmt.Errorf("%w: fee %.2f, available %.2f", ErrInsufficientFunds, fee, l.available)
	}
	t.remaining -= actual
	l.frozen -= actual
	l.available -= fee
	l.updatedAt = time.Now()
	return nil
}

// ReleasePartial 释放凭证的部分冻结额回可用资金。
// 用于买入以低于限价成交时立即归还差价。
func (l *Ledger) ReleasePartial(orderID, ticketID string, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("%w: release %f", ErrInvalidAmount, amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	t, err := l.ticketLocked(orderID, ticketID)
	if err != nil {
		return err
	}
	if amount > t.remaining {
		// 浮点累计误差允许极小的超额，按剩余额截断
		if amount-t.remaining > 1e-6 {
			return fmt.Errorf("%w: release %.2f, remaining %.2f", ErrTicketOverdraw, amount, t.remaining)
		}
		amount = t.remaining
	}
	t.remaining -= amount
	l.frozen -= amount
	l.available += amount
	l.updatedAt = time.Now()
	return nil
}

// Release 释放凭证全部剩余冻结额，用于撤单/拒单/终结清理。
// 幂等：对已释放或已结清的凭证再次释放是空操作。
func (l *Ledger) Release(orderID, ticketID string) (float64, error) {
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
	amount := t.remaining
	t.remaining = 0
	t.released = true
	l.frozen -= amount
	l.available += amount
	l.updatedAt = time.Now()
	return amount, nil
}

// Credit 入账（卖出回款，扣除费用后的净额）。凭证体系之外的贷记，
// 因为卖出所得从未被冻结。
func (l *Ledger) Credit(amount float64) error {
	if amount < 0 {
		return fmt.Errorf("%w: credit %f", ErrInvalidAmount, amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.available += amount
	l.updatedAt = time.Now()
	return nil
}

// Snapshot 资金快照（只读副本）。
func (l *Ledger) Snapshot() Asset {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Asset{
		AccountID:     l.accountID,
		AvailableCash: l.available,
		FrozenCash:    l.frozen,
		UpdatedAt:     l.updatedAt,
	}
}

// TicketRemaining 查询凭证剩余冻结额。
func (l *Ledger) TicketRemaining(ticketID string) (float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tickets[ticketID]
	if !ok {
		return 0, false
	}
	return t.remaining, true
}

func (l *Ledger) ticketLocked(orderID, ticketID string) (*Ticket, error) {
	t, ok := l.tickets[ticketID]
	if !ok || t.OrderID != orderID {
		return nil, fmt.Errorf("%w: ticket %q order %q", ErrTicketMismatch, ticketID, orderID)
	}
	return t, nil
}
