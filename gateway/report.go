// Package gateway 执行回报接入：从外部交易网关接收成交/撤单/拒单
// 通知并转发给结算协调器。网关协议与序列化属于基础设施层，结算核心
// 对此无感知。
package gateway

import (
	"errors"
	"time"
)

// ReportType 执行回报类型
type ReportType string

const (
	ReportFill   ReportType = "FILL"
	ReportCancel ReportType = "CANCEL"
	ReportReject ReportType = "REJECT"
)

// ExecutionReport 网关侧执行回报。
type ExecutionReport struct {
	Type      ReportType `json:"type"`
	AccountID string     `json:"account_id"`
	OrderID   string     `json:"order_id"`
	Symbol    string     `json:"symbol"`
	Qty       int64      `json:"qty"`
	Price     float64    `json:"price"`
	Fee       float64    `json:"fee"`
	Reason    string     `json:"reason"`
	EventTime int64      `json:"event_time"` // 毫秒时间戳
}

// Timestamp 事件时间；缺失时返回当前时间。
func (r ExecutionReport) Timestamp() time.Time {
	if r.EventTime <= 0 {
		return time.Now()
	}
	return time.UnixMilli(r.EventTime)
}

var (
	ErrEmptyMessage  = errors.New("empty gateway message")
	ErrUnknownReport = errors.New("unknown report type")
	ErrBadReport     = errors.New("malformed execution report")
)
