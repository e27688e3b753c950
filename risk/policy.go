// Package risk 委托前风控检查。只做不变量层面的限制，
// 不含任何风险模型打分。
package risk

import (
	"errors"
	"fmt"
	"sync"

	"settlement-core-go/order"
)

var (
	ErrPriceNotPositive = errors.New("order price must be positive")
	ErrQtyNotPositive   = errors.New("order quantity must be positive")
	ErrNotionalTooLarge = errors.New("order notional exceeds limit")
)

// Policy 简单风控策略：价格/数量为正，单笔委托金额不超限。
// 金额上限可热更新。
type Policy struct {
	mu          sync.RWMutex
	maxNotional float64 // 0 表示不限制
}

// NewPolicy 创建策略。
func NewPolicy(maxNotional float64) *Policy {
	return &Policy{maxNotional: maxNotional}
}

// SetMaxNotional 更新单笔金额上限（配置热更新入口）。
func (p *Policy) SetMaxNotional(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maxNotional = v
}

// MaxNotional 当前金额上限。
func (p *Policy) MaxNotional() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.maxNotional
}

// Check 检查订单，通过返回 nil。
func (p *Policy) Check(o *order.Order) error {
	if o.Price <= 0 {
		return ErrPriceNotPositive
	}
	if o.Quantity <= 0 {
		return ErrQtyNotPositive
	}
	p.mu.RLock()
	limit := p.maxNotional
	p.mu.RUnlock()
	if limit > 0 && o.Notional() > limit {
		return fmt.Errorf("%w: %.2f > %.2f", ErrNotionalTooLarge, o.Notional(), limit)
	}
	return nil
}
