package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"settlement-core-go/infrastructure/logger"
)

// WSFeed 连接网关的执行回报 WebSocket 流并逐条分发。
// 仅提供最小骨架：连接 + 读取 + 解析；重连策略由调用方控制。
type WSFeed struct {
	Endpoint    string // 例如 ws://gateway:8081/reports
	Dialer      *websocket.Dialer
	ReadTimeout time.Duration
	Log         *logger.Logger
}

// NewWSFeed 创建回报流客户端。
func NewWSFeed(endpoint string) *WSFeed {
	return &WSFeed{
		Endpoint:    endpoint,
		Dialer:      websocket.DefaultDialer,
		ReadTimeout: 30 * time.Second,
	}
}

// Run 建立连接并循环读取执行回报，交给 handler 处理。
// ctx 取消时关闭连接退出；单条消息解析/处理失败只记日志，不断流。
func (f *WSFeed) Run(ctx context.Context, handler func(ExecutionReport) error) error {
	if f.Endpoint == "" {
		return fmt.Errorf("ws feed endpoint required")
	}
	dialer := f.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	// 每个连接一个子 context：Run 退出（含读错误退出）即取消，
	// 关连接的 goroutine 随之结束，重连时不会越积越多
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, _, err := dialer.DialContext(connCtx, f.Endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial report feed: %w", err)
	}
	defer conn.Close()

	go func() {
		<-connCtx.Done()
		_ = conn.Close()
	}()

	for {
		if f.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(f.ReadTimeout))
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read report feed: %w", err)
		}
		report, err := ParseExecutionReport(message)
		if err != nil {
			f.logError(err, message)
			continue
		}
		if err := handler(report); err != nil {
			f.logError(err, message)
		}
	}
}

func (f *WSFeed) logError(err error, raw []byte) {
	if f.Log == nil {
		return
	}
	f.Log.LogError(err, map[string]interface{}{"raw": string(raw)})
}
