package backtest

import (
	"time"

	"quantbt/internal/config"
)

// Config 定义一次回测运行的参数。
type Config struct {
	Symbol         string                // 标的代码
	InitialCash    float64               // 初始资金
	PeriodsPerYear int                   // 年化周期数，日线为252
	LotSize        int                   // 最小交易单位
	MaxGap         time.Duration         // 相邻K线最大容忍间隔，0表示不检查
	Strategy       config.StrategyConfig // 策略选择与参数
	Risk           config.RiskConfig     // 风控参数
	Cost           config.CostConfig     // 费用参数
}

func (c *Config) normalize() Config {
	cfg := *c
	if cfg.InitialCash <= 0 {
		cfg.InitialCash = 1000000
	}
	if cfg.PeriodsPerYear <= 0 {
		cfg.PeriodsPerYear = 252
	}
	if cfg.LotSize <= 0 {
		cfg.LotSize = 100
	}
	return cfg
}
