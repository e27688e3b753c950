package gateway

import (
	"encoding/json"
	"fmt"
)

// ParseExecutionReport 解析网关推送的执行回报 JSON。
func ParseExecutionReport(raw []byte) (ExecutionReport, error) {
	if len(raw) == 0 {
		return ExecutionReport{}, ErrEmptyMessage
	}
	var r ExecutionReport
	if err := json.Unmarshal(raw, &r); err != nil {
		return ExecutionReport{}, fmt.Errorf("%w: %v", ErrBadReport, err)
	}
	switch r.Type {
	case ReportFill:
		if r.Qty <= 0 || r.Price <= 0 {
			return ExecutionReport{}, fmt.Errorf("%w: fill qty=%d price=%f", ErrBadReport, r.Qty, r.Price)
		}
	case ReportCancel, ReportReject:
		// 无额外字段要求
	default:
		return ExecutionReport{}, fmt.Errorf("%w: %q", ErrUnknownReport, r.Type)
	}
	if r.AccountID == "" || r.OrderID == "" {
		return ExecutionReport{}, fmt.Errorf("%w: missing account/order id", ErrBadReport)
	}
	return r, nil
}
