package order

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidTransition 非法状态流转，订单保持原状态。
	ErrInvalidTransition = errors.New("illegal order status transition")
	// ErrOverfill 成交量超出剩余委托量（或非正数）。
	ErrOverfill = errors.New("fill quantity exceeds remaining order quantity")
)

// EventKind 生命周期事件类型
type EventKind string

const (
	EventSubmit EventKind = "SUBMIT"
	EventFill   EventKind = "FILL"
	EventCancel EventKind = "CANCEL"
	EventReject EventKind = "REJECT"
)

// Event 订单生命周期事件。FILL 事件携带成交量/成交价。
type Event struct {
	Kind      EventKind
	FillQty   int64
	FillPrice float64
	Remark    string
}

// Transition 状态转换
type Transition struct {
	From Status
	To   Status
}

// Result 一次事件推导出的状态变更，尚未落到订单上。
// Derive 只做校验与推导，Apply 才产生副作用，便于协调器在
// 账务变更成功之后再提交订单变更。
type Result struct {
	From      Status
	To        Status
	FillQty   int64
	FillPrice float64
	Remark    string
}

// StateMachine 订单状态机：校验并应用状态流转。
type StateMachine struct {
	transitions map[Transition]bool
}

// NewStateMachine 创建状态机并登记所有合法流转。
func NewStateMachine() *StateMachine {
	sm := &StateMachine{transitions: make(map[Transition]bool)}
	legal := []Transition{
		{StatusCreated, StatusSubmitted},

		{StatusSubmitted, StatusPartialFilled},
		{StatusSubmitted, StatusFilled},
		{StatusSubmitted, StatusCanceled},
		{StatusSubmitted, StatusRejected},

		// 多次部分成交
		{StatusPartialFilled, StatusPartialFilled},
		{StatusPartialFilled, StatusFilled},
		{StatusPartialFilled, StatusPartialCanceled},

		// 终态（FILLED/CANCELED/PARTIAL_CANCELED/REJECTED）不再流出
	}
	for _, t := range legal {
		sm.transitions[t] = true
	}
	return sm
}

// Derive 校验事件并推导目标状态，不修改订单。
//
// FILL 事件要求 0 < FillQty <= 剩余量，目标状态由剩余量自动推导
// （恰好吃完 -> FILLED，留有余量 -> PARTIAL_FILLED），避免调用方
// 构造出“已全部成交但仍是部成”的不一致订单。
// CANCEL 事件按当前状态推导 CANCELED / PARTIAL_CANCELED。
func (sm *StateMachine) Derive(o *Order, ev Event) (Result, error) {
	res := Result{From: o.Status, Remark: ev.Remark}

	switch ev.Kind {
	case EventSubmit:
		res.To = StatusSubmitted
	case EventFill:
		if ev.FillQty <= 0 || ev.FillQty > o.Remaining() {
			return Result{}, fmt.Errorf("%w: fill %d, remaining %d", ErrOverfill, ev.FillQty, o.Remaining())
		}
		if ev.FillQty == o.Remaining() {
			res.To = StatusFilled
		} else {
			res.To = StatusPartialFilled
		}
		res.FillQty = ev.FillQty
		res.FillPrice = ev.FillPrice
	case EventCancel:
		if o.Status == StatusPartialFilled {
			res.To = StatusPartialCanceled
		} else {
			res.To = StatusCanceled
		}
	case EventReject:
		res.To = StatusRejected
	default:
		return Result{}, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, ev.Kind)
	}

	if !sm.transitions[Transition{From: o.Status, To: res.To}] {
		return Result{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, res.To)
	}
	return res, nil
}

// Apply 将推导结果落到订单上：更新已成交量、均价、状态与更新时间。
func (sm *StateMachine) Apply(o *Order, res Result) {
	if res.FillQty > 0 {
		prevValue := float64(o.FilledQty) * o.AvgPrice
		o.FilledQty += res.FillQty
		o.AvgPrice = (prevValue + float64(res.FillQty)*res.FillPrice) / float64(o.FilledQty)
	}
	o.Status = res.To
	if res.Remark != "" {
		o.Remark = res.Remark
	}
	o.UpdatedAt = time.Now()
}

// IsTerminal 是否终态。
func (sm *StateMachine) IsTerminal(s Status) bool {
	switch s {
	case StatusFilled, StatusCanceled, StatusPartialCanceled, StatusRejected:
		return true
	default:
		return false
	}
}

// CanCancel 当前状态下是否可撤单。
func (sm *StateMachine) CanCancel(s Status) bool {
	switch s {
	case StatusSubmitted, StatusPartialFilled:
		return true
	default:
		return false
	}
}
