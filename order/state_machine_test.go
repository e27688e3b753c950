package order

import (
	"errors"
	"testing"
)

func TestNewValidation(t *testing.T) {
	if _, err := New("acc1", "600000.SH", SideBuy, 10.0, 150); !errors.Is(err, ErrOddLot) {
		t.Fatalf("expected ErrOddLot, got %v", err)
	}
	if _, err := New("acc1", "600000.SH", SideBuy, 0, 100); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := New("acc1", "600000.SH", SideSell, 10.0, 0); !errors.Is(err, ErrInvalidQty) {
		t.Fatalf("expected ErrInvalidQty, got %v", err)
	}
	// 卖出不要求整手
	o, err := New("acc1", "600000.SH", SideSell, 10.0, 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != StatusCreated || o.ID == "" {
		t.Fatalf("unexpected new order: %+v", o)
	}
}

func TestSubmitTransition(t *testing.T) {
	sm := NewStateMachine()
	o, _ := New("acc1", "600000.SH", SideBuy, 10.0, 100)

	res, err := sm.Derive(o, Event{Kind: EventSubmit})
	if err != nil {
		t.Fatalf("submit derive failed: %v", err)
	}
	sm.Apply(o, res)
	if o.Status != StatusSubmitted {
		t.Fatalf("expected SUBMITTED, got %s", o.Status)
	}

	// 重复提交非法
	if _, err := sm.Derive(o, Event{Kind: EventSubmit}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestFillAutoDerivation(t *testing.T) {
	sm := NewStateMachine()
	o, _ := New("acc1", "600000.SH", SideBuy, 10.0, 300)
	res, _ := sm.Derive(o, Event{Kind: EventSubmit})
	sm.Apply(o, res)

	// 部分成交 -> PARTIAL_FILLED
	res, err := sm.Derive(o, Event{Kind: EventFill, FillQty: 100, FillPrice: 9.9})
	if err != nil {
		t.Fatalf("partial fill derive failed: %v", err)
	}
	if res.To != StatusPartialFilled {
		t.Fatalf("expected PARTIAL_FILLED, got %s", res.To)
	}
	sm.Apply(o, res)
	if o.FilledQty != 100 || o.AvgPrice != 9.9 {
		t.Fatalf("unexpected fill state: qty=%d avg=%f", o.FilledQty, o.AvgPrice)
	}

	// 再次部分成交：PARTIAL_FILLED -> PARTIAL_FILLED
	res, err = sm.Derive(o, Event{Kind: EventFill, FillQty: 100, FillPrice: 10.1})
	if err != nil {
		t.Fatalf("second partial fill derive failed: %v", err)
	}
	sm.Apply(o, res)
	if o.AvgPrice != 10.0 {
		t.Fatalf("expected avg 10.0, got %f", o.AvgPrice)
	}

	// 吃完剩余量时强制 FILLED
	res, err = sm.Derive(o, Event{Kind: EventFill, FillQty: 100, FillPrice: 10.0})
	if err != nil {
		t.Fatalf("final fill derive failed: %v", err)
	}
	if res.To != StatusFilled {
		t.Fatalf("expected FILLED, got %s", res.To)
	}
	sm.Apply(o, res)
	if !o.IsTerminal() {
		t.Fatalf("filled order should be terminal")
	}
}

func TestOverfill(t *testing.T) {
	sm := NewStateMachine()
	o, _ := New("acc1", "600000.SH", SideBuy, 10.0, 100)
	res, _ := sm.Derive(o, Event{Kind: EventSubmit})
	sm.Apply(o, res)

	if _, err := sm.Derive(o, Event{Kind: EventFill, FillQty: 150, FillPrice: 10.0}); !errors.Is(err, ErrOverfill) {
		t.Fatalf("expected ErrOverfill, got %v", err)
	}
	if _, err := sm.Derive(o, Event{Kind: EventFill, FillQty: 0, FillPrice: 10.0}); !errors.Is(err, ErrOverfill) {
		t.Fatalf("expected ErrOverfill for zero qty, got %v", err)
	}
	if o.Status != StatusSubmitted || o.FilledQty != 0 {
		t.Fatalf("order changed by failed fill: %+v", o)
	}
}

func TestCancelDerivation(t *testing.T) {
	sm := NewStateMachine()

	o, _ := New("acc1", "600000.SH", SideSell, 10.0, 200)
	res, _ := sm.Derive(o, Event{Kind: EventSubmit})
	sm.Apply(o, res)

	res, err := sm.Derive(o, Event{Kind: EventCancel})
	if err != nil || res.To != StatusCanceled {
		t.Fatalf("expected CANCELED, got %s err=%v", res.To, err)
	}

	// 部成后撤单 -> PARTIAL_CANCELED
	res, _ = sm.Derive(o, Event{Kind: EventFill, FillQty: 100, FillPrice: 10.0})
	sm.Apply(o, res)
	res, err = sm.Derive(o, Event{Kind: EventCancel})
	if err != nil || res.To != StatusPartialCanceled {
		t.Fatalf("expected PARTIAL_CANCELED, got %s err=%v", res.To, err)
	}

	// CREATED 状态不可撤
	o2, _ := New("acc1", "600000.SH", SideSell, 10.0, 200)
	if _, err := sm.Derive(o2, Event{Kind: EventCancel}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestTerminalStatesAreFrozen(t *testing.T) {
	sm := NewStateMachine()
	for _, terminal := range []Status{StatusFilled, StatusCanceled, StatusPartialCanceled, StatusRejected} {
		o := &Order{Status: terminal, Quantity: 100}
		for _, kind := range []EventKind{EventSubmit, EventFill, EventCancel, EventReject} {
			ev := Event{Kind: kind}
			if kind == EventFill {
				ev.FillQty = 100
				ev.FillPrice = 10
			}
			if _, err := sm.Derive(o, ev); err == nil {
				t.Fatalf("terminal %s accepted event %s", terminal, kind)
			}
		}
	}
}

func TestRejectOnlyFromSubmitted(t *testing.T) {
	sm := NewStateMachine()
	o, _ := New("acc1", "600000.SH", SideBuy, 10.0, 200)
	res, _ := sm.Derive(o, Event{Kind: EventSubmit})
	sm.Apply(o, res)

	res, err := sm.Derive(o, Event{Kind: EventReject, Remark: "insufficient funds"})
	if err != nil {
		t.Fatalf("reject derive failed: %v", err)
	}
	sm.Apply(o, res)
	if o.Status != StatusRejected || o.Remark != "insufficient funds" {
		t.Fatalf("unexpected reject state: %+v", o)
	}

	// 部成之后不可拒单
	o2, _ := New("acc1", "600000.SH", SideBuy, 10.0, 200)
	res, _ = sm.Derive(o2, Event{Kind: EventSubmit})
	sm.Apply(o2, res)
	res, _ = sm.Derive(o2, Event{Kind: EventFill, FillQty: 100, FillPrice: 10})
	sm.Apply(o2, res)
	if _, err := sm.Derive(o2, Event{Kind: EventReject}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
