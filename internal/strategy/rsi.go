package strategy

import (
	"quantbt/internal/config"
	"quantbt/internal/indicator"
	"quantbt/internal/market"
)

// 编译期接口断言。
var _ Strategy = (*RSIReversal)(nil)

// RSIReversal 实现RSI反转策略：RSI自下而上穿越超卖线时买入，
// 自上而下穿越超买线时卖出。适合震荡行情。
type RSIReversal struct {
	period     int
	oversold   float64
	overbought float64
}

// NewRSIReversal 创建RSI反转策略。
func NewRSIReversal(cfg config.RSIConfig) *RSIReversal {
	return &RSIReversal{
		period:     cfg.Period,
		oversold:   cfg.Oversold,
		overbought: cfg.Overbought,
	}
}

// Name 返回策略名称。
func (s *RSIReversal) Name() string {
	return config.StrategyRSI
}

// Compute 依据历史前缀计算当前信号。RSI采用Wilder平滑，
// 需要 period+2 根K线后才能比较前后两个有效RSI值，暖机期一律观望。
func (s *RSIReversal) Compute(hist market.Series) Signal {
	if hist.Len() < s.period+2 {
		return SignalHold
	}

	rsi := indicator.RSI(hist.Close, s.period)
	cur := indicator.Last(rsi)
	prev := indicator.Prev(rsi)

	switch {
	case prev < s.oversold && cur >= s.oversold:
		return SignalBuy
	case prev > s.overbought && cur <= s.overbought:
		return SignalSell
	default:
		return SignalHold
	}
}
