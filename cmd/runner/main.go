package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"settlement-core-go/config"
	"settlement-core-go/gateway"
	"settlement-core-go/infrastructure/logger"
	"settlement-core-go/metrics"
	"settlement-core-go/risk"
	"settlement-core-go/settlement"
	"settlement-core-go/sim"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	metricsAddr := flag.String("metricsAddr", "", "Prometheus metrics 监听地址，留空则使用配置值")
	eodOnExit := flag.Bool("eodOnExit", true, "退出时执行日终清算（撤单 + T+1 解冻）")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	addr := cfg.MetricsAddr
	if *metricsAddr != "" {
		addr = *metricsAddr
	}

	zlog, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Close()

	metrics.StartMetricsServer(addr)

	policy := risk.NewPolicy(cfg.Risk.MaxOrderNotional)
	coord := settlement.NewCoordinator(policy, zlog, nil)
	for _, acc := range cfg.Accounts {
		if err := coord.RegisterAccount(acc.ID, acc.InitialCash); err != nil {
			log.Fatalf("注册账户 %s 失败: %v", acc.ID, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 配置热更新：目前只有风控额度支持在线调整
	watcher := config.Watcher{Path: *cfgPath}
	go func() {
		err := watcher.Start(ctx, func(next config.AppConfig) {
			if next.Risk.MaxOrderNotional != policy.MaxNotional() {
				policy.SetMaxNotional(next.Risk.MaxOrderNotional)
				zlog.LogSettlement("risk_limit_reload", "", map[string]interface{}{
					"maxOrderNotional": next.Risk.MaxOrderNotional,
				})
			}
		})
		if err != nil {
			zlog.LogError(err, map[string]interface{}{"stage": "config_watch"})
		}
	}()

	switch cfg.Venue.Mode {
	case "ws":
		feed := gateway.NewWSFeed(cfg.Venue.FeedURL)
		feed.Log = zlog
		dispatcher := &gateway.Dispatcher{Coord: coord}
		go runFeed(ctx, feed, dispatcher, zlog)
	default:
		venue := sim.NewVenue(coord, cfg.Fees, cfg.Venue.SlippageBuy, cfg.Venue.SlippageSell, cfg.Venue.CapacityRatio)
		go replayQuotes(ctx, venue, os.Stdin, zlog)
		zlog.LogSettlement("sim_venue_ready", "", map[string]interface{}{
			"slippageBuy":   cfg.Venue.SlippageBuy,
			"slippageSell":  cfg.Venue.SlippageSell,
			"capacityRatio": cfg.Venue.CapacityRatio,
		})
	}

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		zlog.LogError(err, map[string]interface{}{"stage": "sd_notify"})
	} else if ok {
		go watchdogLoop(ctx)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	cancel()

	if *eodOnExit {
		eodCtx, eodCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer eodCancel()
		eod := settlement.NewEndOfDay(coord, zlog)
		if err := eod.Run(eodCtx); err != nil {
			zlog.LogError(err, map[string]interface{}{"stage": "eod"})
		}
	}
	zlog.LogSettlement("runner_exit", "", nil)
}

// runFeed 循环维护回报流连接，断开后指数退避重连。
func runFeed(ctx context.Context, feed *gateway.WSFeed, d *gateway.Dispatcher, zlog *logger.Logger) {
	backoff := time.Second
	for {
		err := feed.Run(ctx, d.Handle)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			zlog.LogError(err, map[string]interface{}{"stage": "ws_feed", "retryIn": backoff.String()})
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// replayQuotes 逐行读取行情快照（symbol price dayVolume），更新模拟撮合的盘口。
func replayQuotes(ctx context.Context, venue *sim.Venue, r io.Reader, zlog *logger.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) != 3 {
			continue
		}
		price, perr := strconv.ParseFloat(parts[1], 64)
		vol, verr := strconv.ParseInt(parts[2], 10, 64)
		if perr != nil || verr != nil || price <= 0 {
			continue
		}
		venue.SetQuote(parts[0], price, vol)
	}
	if err := scanner.Err(); err != nil {
		zlog.LogError(err, map[string]interface{}{"stage": "quote_replay"})
	}
}

// watchdogLoop 按 systemd 配置的间隔发送看门狗心跳。
func watchdogLoop(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}
