// Package settlement 订单/资金/持仓一致性协调器。
//
// 协调器是跨实体一致性的唯一写入方：每个生命周期事件先校验订单
// 状态流转，再执行账务变更，最后提交订单变更——两者要么全部生效，
// 要么毫无痕迹。同一账户的事件经账户锁串行，不同账户完全并行。
package settlement

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"settlement-core-go/asset"
	"settlement-core-go/infrastructure/logger"
	"settlement-core-go/metrics"
	"settlement-core-go/order"
	"settlement-core-go/position"
	"settlement-core-go/risk"
)

var (
	ErrUnknownAccount   = errors.New("unknown account")
	ErrUnknownOrder     = errors.New("unknown order")
	ErrDuplicateOrder   = errors.New("duplicate order id")
	ErrDuplicateAccount = errors.New("duplicate account id")
)

// EventSink 状态变更事件回调，供外部事件总线消费。
type EventSink func(event string, fields map[string]interface{})

// Fill 网关适配层转入的成交回报。Fee 为交易所侧费用，可为零。
type Fill struct {
	OrderID   string
	Qty       int64
	Price     float64
	Fee       float64
	Timestamp time.Time
}

// account 单账户全部状态。所有生命周期事件持 mu 执行。
type account struct {
	mu        sync.Mutex
	id        string
	cash      *asset.Ledger
	positions *position.Ledger
	orders    map[string]*order.Order
}

// Coordinator 结算协调器。
type Coordinator struct {
	mu       sync.RWMutex
	accounts map[string]*account

	sm      *order.StateMachine
	policy  *risk.Policy
	journal *Journal
	log     *logger.Logger
	sink    EventSink
}

// NewCoordinator 创建协调器。policy、log、sink 均可为 nil。
func NewCoordinator(policy *risk.Policy, log *logger.Logger, sink EventSink) *Coordinator {
	return &Coordinator{
		accounts: make(map[string]*account),
		sm:       order.NewStateMachine(),
		policy:   policy,
		journal:  NewJournal(),
		log:      log,
		sink:     sink,
	}
}

// RegisterAccount 注册账户并入金。
func (c *Coordinator) RegisterAccount(accountID string, initialCash float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.accounts[accountID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAccount, accountID)
	}
	acct := &account{
		id:        accountID,
		cash:      asset.NewLedger(accountID),
		positions: position.NewLedger(accountID),
		orders:    make(map[string]*order.Order),
	}
	if initialCash > 0 {
		if err := acct.cash.Deposit(initialCash); err != nil {
			return err
		}
	}
	c.accounts[accountID] = acct
	c.refreshCashLocked(acct)
	return nil
}

// AccountIDs 已注册账户列表。
func (c *Coordinator) AccountIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.accounts))
	for id := range c.accounts {
		ids = append(ids, id)
	}
	return ids
}

// SubmitOrder 提交订单：CREATED -> SUBMITTED，买入冻结资金，
// 卖出冻结持仓。冻结失败时订单落到 REJECTED 并返回原因，账务
// 不留任何部分效果。
func (c *Coordinator) SubmitOrder(o *order.Order) error {
	acct, err := c.account(o.AccountID)
	if err != nil {
		return err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	if _, ok := acct.orders[o.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateOrder, o.ID)
	}
	if c.policy != nil {
		if err := c.policy.Check(o); err != nil {
			metrics.OrdersRejected.WithLabelValues("risk_policy").Inc()
			return fmt.Errorf("risk check failed: %w", err)
		}
	}

	res, err := c.sm.Derive(o, order.Event{Kind: order.EventSubmit})
	if err != nil {
		return err
	}

	var ticketID string
	switch o.Side {
	case order.SideBuy:
		ticketID, err = acct.cash.Freeze(o.ID, o.Notional())
	case order.SideSell:
		ticketID, err = acct.positions.FreezeShares(o.ID, o.Symbol, o.Quantity)
	default:
		return fmt.Errorf("unknown order side %q", o.Side)
	}
	if err != nil {
		// 冻结失败：订单落到 REJECTED，账务未被触碰
		c.sm.Apply(o, res)
		rej, derr := c.sm.Derive(o, order.Event{Kind: order.EventReject, Remark: err.Error()})
		if derr != nil {
			return derr
		}
		c.sm.Apply(o, rej)
		acct.orders[o.ID] = o
		metrics.OrdersRejected.WithLabelValues(rejectReason(err)).Inc()
		c.logOrder("order_rejected", o, map[string]interface{}{"reason": err.Error()})
		c.emit("order_rejected", orderFields(o))
		return err
	}

	o.TicketID = ticketID
	c.sm.Apply(o, res)
	acct.orders[o.ID] = o

	metrics.OrdersSubmitted.WithLabelValues(string(o.Side)).Inc()
	c.refreshCashLocked(acct)
	c.refreshPositionLocked(acct, o.Symbol)
	c.logOrder("order_submitted", o, map[string]interface{}{
		"price": o.Price, "quantity": o.Quantity, "ticket_id": ticketID,
	})
	c.emit("order_submitted", orderFields(o))
	return nil
}

// ApplyFill 应用成交回报。买入：冻结资金结算流出、差价即时归还、
// 持仓总量增加（T+1 可用量不变）；卖出：冲销持仓凭证、净回款入账。
// 任何一步失败都在订单提交前中止，各实体保持事件前状态。
func (c *Coordinator) ApplyFill(accountID string, f Fill) error {
	acct, err := c.account(accountID)
	if err != nil {
		return err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	o, ok := acct.orders[f.OrderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, f.OrderID)
	}
	res, err := c.sm.Derive(o, order.Event{Kind: order.EventFill, FillQty: f.Qty, FillPrice: f.Price})
	if err != nil {
		return err
	}
	amount := float64(f.Qty) * f.Price

	switch o.Side {
	case order.SideBuy:
		if err := acct.cash.Settle(o.ID, o.TicketID, amount, f.Fee); err != nil {
			return err
		}
		// 低于限价成交的差额立即解冻
		if savings := float64(f.Qty) * (o.Price - f.Price); savings > 0 {
			if err := acct.cash.ReleasePartial(o.ID, o.TicketID, savings); err != nil {
				return err
			}
		}
		if err := acct.positions.SettleBuy(o.Symbol, f.Qty, f.Price); err != nil {
			return err
		}
		if res.To == order.StatusFilled {
			if _, err := acct.cash.Release(o.ID, o.TicketID); err != nil {
				return err
			}
		}
	case order.SideSell:
		if f.Fee > amount {
			return fmt.Errorf("%w: fee %.2f exceeds proceeds %.2f", asset.ErrInsufficientFunds, f.Fee, amount)
		}
		if err := acct.positions.SettleSell(o.ID, o.TicketID, f.Qty); err != nil {
			return err
		}
		if err := acct.cash.Credit(amount - f.Fee); err != nil {
			return err
		}
		if res.To == order.StatusFilled {
			if _, err := acct.positions.ReleaseShares(o.ID, o.TicketID); err != nil {
				return err
			}
		}
	}

	c.sm.Apply(o, res)
	c.journal.Append(TradeRecord{
		OrderID:   o.ID,
		AccountID: accountID,
		Symbol:    o.Symbol,
		Side:      o.Side,
		Qty:       f.Qty,
		Price:     f.Price,
		Fee:       f.Fee,
		Timestamp: f.Timestamp,
	})

	metrics.IncrementFills(string(o.Side), amount)
	c.refreshCashLocked(acct)
	c.refreshPositionLocked(acct, o.Symbol)
	c.logOrder("order_filled", o, map[string]interface{}{
		"fill_qty": f.Qty, "fill_price": f.Price, "fee": f.Fee, "filled_qty": o.FilledQty,
	})
	c.emit("order_filled", orderFields(o))
	return nil
}

// CancelOrder 撤单：SUBMITTED -> CANCELED 或 PARTIAL_FILLED ->
// PARTIAL_CANCELED，并全额释放未结清的冻结凭证。
func (c *Coordinator) CancelOrder(accountID, orderID string) error {
	acct, err := c.account(accountID)
	if err != nil {
		return err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	o, ok := acct.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}
	res, err := c.sm.Derive(o, order.Event{Kind: order.EventCancel})
	if err != nil {
		return err
	}
	if err := c.releaseTicketLocked(acct, o); err != nil {
		return err
	}
	c.sm.Apply(o, res)

	metrics.OrdersCanceled.Inc()
	c.refreshCashLocked(acct)
	c.refreshPositionLocked(acct, o.Symbol)
	c.logOrder("order_canceled", o, nil)
	c.emit("order_canceled", orderFields(o))
	return nil
}

// RejectOrder 处理交易所拒单：SUBMITTED -> REJECTED。冻结凭证
// 若已存在则防御性释放（释放幂等，无凭证时同样安全）。
func (c *Coordinator) RejectOrder(accountID, orderID, reason string) error {
	acct, err := c.account(accountID)
	if err != nil {
		return err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	o, ok := acct.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}
	res, err := c.sm.Derive(o, order.Event{Kind: order.EventReject, Remark: reason})
	if err != nil {
		return err
	}
	if err := c.releaseTicketLocked(acct, o); err != nil {
		return err
	}
	c.sm.Apply(o, res)

	metrics.OrdersRejected.WithLabelValues("venue_reject").Inc()
	c.refreshCashLocked(acct)
	c.refreshPositionLocked(acct, o.Symbol)
	c.logOrder("order_rejected", o, map[string]interface{}{"reason": reason})
	c.emit("order_rejected", orderFields(o))
	return nil
}

// Rollover T+1 日终结算信号：账户全部持仓的可用量放开到总量。
// 对整个持仓集合排他执行。
func (c *Coordinator) Rollover(accountID string) error {
	acct, err := c.account(accountID)
	if err != nil {
		return err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	n := acct.positions.Rollover()
	metrics.Rollovers.Inc()
	for _, p := range acct.positions.All() {
		metrics.UpdatePositionMetrics(accountID, p.Symbol, p.TotalVolume, p.AvailableVolume)
	}
	if c.log != nil {
		c.log.LogSettlement("rollover", accountID, map[string]interface{}{"positions": n})
	}
	c.emit("rollover", map[string]interface{}{"account_id": accountID, "positions": n})
	return nil
}

// GetOrder 订单只读副本。
func (c *Coordinator) GetOrder(accountID, orderID string) (order.Order, error) {
	acct, err := c.account(accountID)
	if err != nil {
		return order.Order{}, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	o, ok := acct.orders[orderID]
	if !ok {
		return order.Order{}, fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}
	return *o, nil
}

// GetAsset 资金只读快照。
func (c *Coordinator) GetAsset(accountID string) (asset.Asset, error) {
	acct, err := c.account(accountID)
	if err != nil {
		return asset.Asset{}, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	return acct.cash.Snapshot(), nil
}

// GetPosition 持仓只读快照；无持仓时返回零值。
func (c *Coordinator) GetPosition(accountID, symbol string) (position.Position, error) {
	acct, err := c.account(accountID)
	if err != nil {
		return position.Position{}, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	p, ok := acct.positions.Snapshot(symbol)
	if !ok {
		return position.Position{AccountID: accountID, Symbol: symbol}, nil
	}
	return p, nil
}

// Positions 账户全部持仓快照。
func (c *Coordinator) Positions(accountID string) ([]position.Position, error) {
	acct, err := c.account(accountID)
	if err != nil {
		return nil, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	return acct.positions.All(), nil
}

// OpenOrders 账户所有未终结订单副本。
func (c *Coordinator) OpenOrders(accountID string) ([]order.Order, error) {
	acct, err := c.account(accountID)
	if err != nil {
		return nil, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	out := make([]order.Order, 0)
	for _, o := range acct.orders {
		if !o.IsTerminal() {
			out = append(out, *o)
		}
	}
	return out, nil
}

// Trades 成交流水副本。
func (c *Coordinator) Trades() []TradeRecord {
	return c.journal.Records()
}

func (c *Coordinator) account(accountID string) (*account, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	acct, ok := c.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, accountID)
	}
	return acct, nil
}

// releaseTicketLocked 按方向释放订单的冻结凭证，需持账户锁。
func (c *Coordinator) releaseTicketLocked(acct *account, o *order.Order) error {
	if o.TicketID == "" {
		return nil
	}
	var err error
	switch o.Side {
	case order.SideBuy:
		_, err = acct.cash.Release(o.ID, o.TicketID)
	case order.SideSell:
		_, err = acct.positions.ReleaseShares(o.ID, o.TicketID)
	}
	return err
}

func (c *Coordinator) refreshCashLocked(acct *account) {
	snap := acct.cash.Snapshot()
	metrics.UpdateCashMetrics(acct.id, snap.AvailableCash, snap.FrozenCash)
}

func (c *Coordinator) refreshPositionLocked(acct *account, symbol string) {
	if symbol == "" {
		return
	}
	if p, ok := acct.positions.Snapshot(symbol); ok {
		metrics.UpdatePositionMetrics(acct.id, symbol, p.TotalVolume, p.AvailableVolume)
	} else {
		metrics.UpdatePositionMetrics(acct.id, symbol, 0, 0)
	}
}

func (c *Coordinator) logOrder(event string, o *order.Order, fields map[string]interface{}) {
	if c.log == nil {
		return
	}
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["account_id"] = o.AccountID
	fields["symbol"] = o.Symbol
	fields["side"] = string(o.Side)
	fields["status"] = string(o.Status)
	c.log.LogOrder(event, o.ID, fields)
}

func (c *Coordinator) emit(event string, fields map[string]interface{}) {
	if c.sink == nil {
		return
	}
	c.sink(event, fields)
}

func orderFields(o *order.Order) map[string]interface{} {
	return map[string]interface{}{
		"account_id": o.AccountID,
		"order_id":   o.ID,
		"symbol":     o.Symbol,
		"side":       string(o.Side),
		"status":     string(o.Status),
		"filled_qty": o.FilledQty,
		"quantity":   o.Quantity,
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, asset.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, position.ErrInsufficientShares):
		return "insufficient_shares"
	default:
		return "freeze_failed"
	}
}
