// Package metrics provides Prometheus metrics for the settlement core
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrdersSubmitted 按方向统计提交成功的订单数
	OrdersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_orders_submitted_total",
		Help: "Orders accepted by the coordinator, by side",
	}, []string{"side"})

	// OrdersRejected 按原因统计被拒订单数
	OrdersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_orders_rejected_total",
		Help: "Orders rejected by the coordinator, by reason",
	}, []string{"reason"})

	// FillsApplied 按方向统计已入账的成交回报数
	FillsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_fills_applied_total",
		Help: "Fill events applied to the ledgers, by side",
	}, []string{"side"})

	// SettledNotional 按方向累计结算金额
	SettledNotional = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_settled_notional_total",
		Help: "Cash notional settled through the ledgers, by side",
	}, []string{"side"})

	// OrdersCanceled 撤单数（含部成撤）
	OrdersCanceled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_orders_canceled_total",
		Help: "Orders canceled (including partial cancels)",
	})

	// Rollovers T+1 结算触发次数
	Rollovers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_rollovers_total",
		Help: "T+1 settlement rollovers executed",
	})

	// AvailableCash 账户可用资金
	AvailableCash = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "settlement_available_cash",
		Help: "Available cash per account",
	}, []string{"account"})

	// FrozenCash 账户冻结资金
	FrozenCash = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "settlement_frozen_cash",
		Help: "Frozen cash per account",
	}, []string{"account"})

	// PositionVolume 持仓数量（total/available 两档）
	PositionVolume = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "settlement_position_volume",
		Help: "Position volume per account and symbol",
	}, []string{"account", "symbol", "kind"})
)

// UpdateCashMetrics 刷新账户资金指标
func UpdateCashMetrics(account string, available, frozen float64) {
	AvailableCash.WithLabelValues(account).Set(available)
	FrozenCash.WithLabelValues(account).Set(frozen)
}

// UpdatePositionMetrics 刷新持仓指标
func UpdatePositionMetrics(account, symbol string, total, available int64) {
	PositionVolume.WithLabelValues(account, symbol, "total").Set(float64(total))
	PositionVolume.WithLabelValues(account, symbol, "available").Set(float64(available))
}

// IncrementFills 记录一笔入账成交
func IncrementFills(side string, notional float64) {
	FillsApplied.WithLabelValues(side).Inc()
	SettledNotional.WithLabelValues(side).Add(notional)
}

// StartMetricsServer 启动Prometheus指标服务器
func StartMetricsServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, nil)
	}()
}
