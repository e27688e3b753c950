// Package sim 模拟交易柜台：按 A 股规则对已提交订单生成成交回报，
// 替代真实网关驱动结算协调器，用于联调与回归。
package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"settlement-core-go/fees"
	"settlement-core-go/order"
	"settlement-core-go/settlement"
)

var ErrNoQuote = errors.New("no reference quote for symbol")

// Quote 标的的参考行情：最新价与当日成交量。
type Quote struct {
	Price     float64
	DayVolume int64
}

// Venue 内存撮合的模拟柜台。
//
// 撮合规则（与实盘近似）：
//   - 滑点：买入上浮、卖出下浮固定比例；
//   - 流动性：单笔成交不超过当日成交量的容量比例，向下取整到一手；
//   - 费用：按费率表计算并随回报带给结算核心；
//   - 不足一手的流动性直接废单。
type Venue struct {
	Coord         *settlement.Coordinator
	Fees          fees.Schedule
	SlippageBuy   float64
	SlippageSell  float64
	CapacityRatio float64

	mu     sync.RWMutex
	quotes map[string]Quote
}

// NewVenue 创建模拟柜台。
func NewVenue(coord *settlement.Coordinator, schedule fees.Schedule, slippageBuy, slippageSell, capacityRatio float64) *Venue {
	if capacityRatio <= 0 {
		capacityRatio = 0.1
	}
	return &Venue{
		Coord:         coord,
		Fees:          schedule,
		SlippageBuy:   slippageBuy,
		SlippageSell:  slippageSell,
		CapacityRatio: capacityRatio,
		quotes:        make(map[string]Quote),
	}
}

// SetQuote 更新标的参考行情。
func (v *Venue) SetQuote(symbol string, price float64, dayVolume int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.quotes[symbol] = Quote{Price: price, DayVolume: dayVolume}
}

// Execute 对一笔已提交订单模拟撮合并回报结算核心。
// 流动性吃不满委托量时先部分成交、再撤余量（部成部撤）。
func (v *Venue) Execute(o order.Order) error {
	v.mu.RLock()
	quote, ok := v.quotes[o.Symbol]
	v.mu.RUnlock()
	if !ok || quote.Price <= 0 {
		_ = v.Coord.RejectOrder(o.AccountID, o.ID, "no market data")
		return fmt.Errorf("%w: %s", ErrNoQuote, o.Symbol)
	}

	// 滑点
	execPrice := quote.Price
	if o.Side == order.SideBuy {
		execPrice *= 1 + v.SlippageBuy
	} else {
		execPrice *= 1 - v.SlippageSell
	}
	// 限价约束：市场价够不到限价时订单继续挂着
	if o.Side == order.SideBuy && execPrice > o.Price {
		return nil
	}
	if o.Side == order.SideSell && execPrice < o.Price {
		return nil
	}

	// 流动性容量，取整到一手
	capacity := int64(float64(quote.DayVolume) * v.CapacityRatio)
	capacity = capacity / 100 * 100
	fillQty := o.Remaining()
	if capacity < fillQty {
		fillQty = capacity
	}
	if fillQty < 100 {
		reason := fmt.Sprintf("insufficient liquidity: capacity %d", capacity)
		return v.Coord.RejectOrder(o.AccountID, o.ID, reason)
	}

	amount := float64(fillQty) * execPrice
	fee := v.Fees.Calculate(amount, o.Side == order.SideSell).Total()

	if err := v.Coord.ApplyFill(o.AccountID, settlement.Fill{
		OrderID:   o.ID,
		Qty:       fillQty,
		Price:     execPrice,
		Fee:       fee,
		Timestamp: time.Now(),
	}); err != nil {
		return err
	}
	// 余量撤单
	if fillQty < o.Remaining() {
		return v.Coord.CancelOrder(o.AccountID, o.ID)
	}
	return nil
}
