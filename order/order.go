package order

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Side 买卖方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Status 订单生命周期状态
type Status string

const (
	StatusCreated         Status = "CREATED"
	StatusSubmitted       Status = "SUBMITTED"
	StatusPartialFilled   Status = "PARTIAL_FILLED"
	StatusFilled          Status = "FILLED"
	StatusCanceled        Status = "CANCELED"
	StatusPartialCanceled Status = "PARTIAL_CANCELED"
	StatusRejected        Status = "REJECTED"
)

var (
	ErrInvalidPrice = errors.New("order price must be positive")
	ErrInvalidQty   = errors.New("order quantity must be positive")
	ErrOddLot       = errors.New("buy quantity must be a multiple of 100")
)

// Order A股订单实体。状态只能经由状态机流转，终态订单不可变更。
type Order struct {
	ID        string
	AccountID string
	Symbol    string
	Side      Side
	Price     float64 // 委托限价
	Quantity  int64   // 委托数量（股）
	FilledQty int64   // 已成交数量，只增不减
	AvgPrice  float64 // 平均成交价（成交量加权）
	Status    Status
	TicketID  string // 冻结凭证 ID（买入为资金凭证，卖出为持仓凭证）
	Remark    string // 备注/拒单原因
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New 创建 CREATED 状态的订单。A股买入委托数量必须为 100 股整数倍。
func New(accountID, symbol string, side Side, price float64, qty int64) (*Order, error) {
	if price <= 0 {
		return nil, ErrInvalidPrice
	}
	if qty <= 0 {
		return nil, ErrInvalidQty
	}
	if side == SideBuy && qty%100 != 0 {
		return nil, ErrOddLot
	}
	now := time.Now()
	return &Order{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Remaining 剩余未成交数量。
func (o *Order) Remaining() int64 {
	return o.Quantity - o.FilledQty
}

// Notional 委托金额（限价 × 委托数量）。
func (o *Order) Notional() float64 {
	return o.Price * float64(o.Quantity)
}

// IsTerminal 是否处于终态。
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case StatusFilled, StatusCanceled, StatusPartialCanceled, StatusRejected:
		return true
	default:
		return false
	}
}
