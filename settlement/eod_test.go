package settlement_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settlement-core-go/order"
	"settlement-core-go/settlement"
)

func TestEndOfDayCancelsAndRollsOver(t *testing.T) {
	c := settlement.NewCoordinator(nil, nil, nil)
	require.NoError(t, c.RegisterAccount("acc1", 100000))
	require.NoError(t, c.RegisterAccount("acc2", 100000))

	// acc1: 当日买入成交 + 一笔挂着的买单
	bought, _ := order.New("acc1", "600000.SH", order.SideBuy, 10, 300)
	require.NoError(t, c.SubmitOrder(bought))
	require.NoError(t, c.ApplyFill("acc1", settlement.Fill{OrderID: bought.ID, Qty: 300, Price: 10}))

	pending, _ := order.New("acc1", "000001.SZ", order.SideBuy, 20, 100)
	require.NoError(t, c.SubmitOrder(pending))

	// acc2: 挂着的卖单占用可用持仓
	seedPosition(t, c, "acc2", "600519.SH", 200, 100)
	sell, _ := order.New("acc2", "600519.SH", order.SideSell, 110, 100)
	require.NoError(t, c.SubmitOrder(sell))

	eod := settlement.NewEndOfDay(c, nil)
	require.NoError(t, eod.Run(context.Background()))

	// 挂单全部撤销，冻结资金/持仓全额释放
	got, _ := c.GetOrder("acc1", pending.ID)
	assert.Equal(t, order.StatusCanceled, got.Status)
	a, _ := c.GetAsset("acc1")
	assert.Equal(t, 0.0, a.FrozenCash)

	got, _ = c.GetOrder("acc2", sell.ID)
	assert.Equal(t, order.StatusCanceled, got.Status)

	// T+1：当日买入次日可用
	p, _ := c.GetPosition("acc1", "600000.SH")
	assert.Equal(t, int64(300), p.TotalVolume)
	assert.Equal(t, int64(300), p.AvailableVolume)

	p, _ = c.GetPosition("acc2", "600519.SH")
	assert.Equal(t, int64(200), p.AvailableVolume)

	// 已终结订单不受影响
	got, _ = c.GetOrder("acc1", bought.ID)
	assert.Equal(t, order.StatusFilled, got.Status)
}

func TestJournalAppendOnly(t *testing.T) {
	j := settlement.NewJournal()
	j.Append(settlement.TradeRecord{OrderID: "a", Qty: 100})
	j.Append(settlement.TradeRecord{OrderID: "b", Qty: 200})

	records := j.Records()
	require.Len(t, records, 2)
	// 副本不影响内部状态
	records[0].OrderID = "mutated"
	assert.Equal(t, "a", j.Records()[0].OrderID)
	assert.Equal(t, 2, j.Len())
	assert.False(t, j.Records()[0].Timestamp.IsZero())
}
