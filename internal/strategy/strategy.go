// Package strategy 定义交易信号生成器及三种内置策略。
package strategy

import (
	"fmt"

	"quantbt/internal/config"
	"quantbt/internal/market"
)

// Signal 为策略对单根K线给出的方向建议。
type Signal int

const (
	SignalHold Signal = iota
	SignalBuy
	SignalSell
)

// String 返回信号名称。
func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Strategy 是所有信号生成器的统一契约：输入为截至当前K线的
// 历史前缀（绝不包含未来数据），输出该K线的信号。历史不足时
// 必须返回 SignalHold，不允许失败。
type Strategy interface {
	Name() string
	Compute(hist market.Series) Signal
}

// New 根据配置构建内置策略。策略集合是封闭的，新增策略需要
// 扩展此处的分支，而不是通过动态查找注入。
func New(cfg config.StrategyConfig) (Strategy, error) {
	switch cfg.Name {
	case config.StrategyRSI:
		return NewRSIReversal(cfg.RSI), nil
	case config.StrategyMACross:
		return NewMACross(cfg.MACross), nil
	case config.StrategyBreakout:
		return NewBreakout(cfg.Breakout), nil
	default:
		return nil, fmt.Errorf("strategy: 未知策略 %q", cfg.Name)
	}
}
