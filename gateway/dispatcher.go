package gateway

import (
	"fmt"

	"settlement-core-go/settlement"
)

// Dispatcher 把执行回报翻译成协调器调用。
type Dispatcher struct {
	Coord *settlement.Coordinator
}

// Handle 处理一条执行回报。
func (d *Dispatcher) Handle(r ExecutionReport) error {
	switch r.Type {
	case ReportFill:
		return d.Coord.ApplyFill(r.AccountID, settlement.Fill{
			OrderID:   r.OrderID,
			Qty:       r.Qty,
			Price:     r.Price,
			Fee:       r.Fee,
			Timestamp: r.Timestamp(),
		})
	case ReportCancel:
		return d.Coord.CancelOrder(r.AccountID, r.OrderID)
	case ReportReject:
		return d.Coord.RejectOrder(r.AccountID, r.OrderID, r.Reason)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownReport, r.Type)
	}
}
