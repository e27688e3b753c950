package settlement

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"settlement-core-go/infrastructure/logger"
)

// EndOfDay 日终清算服务：撤销所有未终结订单（精确释放冻结凭证），
// 然后执行 T+1 持仓结算。账户之间无共享状态，并行处理。
type EndOfDay struct {
	coord *Coordinator
	log   *logger.Logger
}

// NewEndOfDay 创建日终清算服务。log 可为 nil。
func NewEndOfDay(coord *Coordinator, log *logger.Logger) *EndOfDay {
	return &EndOfDay{coord: coord, log: log}
}

// Run 对所有账户执行日终清算。
func (e *EndOfDay) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range e.coord.AccountIDs() {
		id := id
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return e.SettleAccount(id)
		})
	}
	return g.Wait()
}

// SettleAccount 单账户日终清算：先撤单后滚动结算，保证持仓凭证
// 在可用量放开之前已全部释放。
func (e *EndOfDay) SettleAccount(accountID string) error {
	open, err := e.coord.OpenOrders(accountID)
	if err != nil {
		return err
	}
	canceled := 0
	for _, o := range open {
		if err := e.coord.CancelOrder(accountID, o.ID); err != nil {
			return fmt.Errorf("eod cancel %s: %w", o.ID, err)
		}
		canceled++
	}
	if err := e.coord.Rollover(accountID); err != nil {
		return err
	}
	if e.log != nil {
		e.log.LogSettlement("eod_settled", accountID, map[string]interface{}{
			"canceled_orders": canceled,
		})
	}
	return nil
}
