package risk

import (
	"errors"
	"testing"

	"settlement-core-go/order"
)

func TestPolicyCheck(t *testing.T) {
	p := NewPolicy(100_000)

	o, _ := order.New("acc1", "600000.SH", order.SideBuy, 50, 100)
	if err := p.Check(o); err != nil {
		t.Fatalf("valid order rejected: %v", err)
	}

	big, _ := order.New("acc1", "600000.SH", order.SideBuy, 50, 10_000)
	if err := p.Check(big); !errors.Is(err, ErrNotionalTooLarge) {
		t.Fatalf("expected ErrNotionalTooLarge, got %v", err)
	}

	// 上限热更新后放行
	p.SetMaxNotional(1_000_000)
	if err := p.Check(big); err != nil {
		t.Fatalf("order rejected after limit raise: %v", err)
	}

	// 0 表示不限制
	p.SetMaxNotional(0)
	if err := p.Check(big); err != nil {
		t.Fatalf("unlimited policy rejected order: %v", err)
	}
}
