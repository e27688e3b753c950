package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"settlement-core-go/fees"
	"settlement-core-go/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env         string          `yaml:"env"`
	MetricsAddr string          `yaml:"metricsAddr"`
	Logging     logger.Config   `yaml:"logging"`
	Risk        RiskConfig      `yaml:"risk"`
	Fees        fees.Schedule   `yaml:"fees"`
	Venue       VenueConfig     `yaml:"venue"`
	Accounts    []AccountConfig `yaml:"accounts"`
}

type RiskConfig struct {
	MaxOrderNotional float64 `yaml:"maxOrderNotional"` // 单笔委托金额上限，0 不限制
}

// VenueConfig 撮合来源配置：sim 用内置模拟柜台，ws 接网关回报流。
type VenueConfig struct {
	Mode          string  `yaml:"mode"`          // sim 或 ws
	FeedURL       string  `yaml:"feedURL"`       // ws 模式的回报流地址
	SlippageBuy   float64 `yaml:"slippageBuy"`   // sim 模式买入滑点
	SlippageSell  float64 `yaml:"slippageSell"`  // sim 模式卖出滑点
	CapacityRatio float64 `yaml:"capacityRatio"` // sim 模式流动性容量比例
}

type AccountConfig struct {
	ID          string  `yaml:"id"`
	InitialCash float64 `yaml:"initialCash"`
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9100"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging = logger.DefaultConfig()
	}
	if cfg.Venue.Mode == "" {
		cfg.Venue.Mode = "sim"
	}
	if cfg.Venue.SlippageBuy == 0 {
		cfg.Venue.SlippageBuy = 0.001
	}
	if cfg.Venue.SlippageSell == 0 {
		cfg.Venue.SlippageSell = 0.001
	}
	if cfg.Venue.CapacityRatio == 0 {
		cfg.Venue.CapacityRatio = 0.1
	}
	zero := fees.Schedule{}
	if cfg.Fees == zero {
		cfg.Fees = fees.Default()
	}
}
