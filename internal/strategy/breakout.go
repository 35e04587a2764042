package strategy

import (
	"quantbt/internal/config"
	"quantbt/internal/indicator"
	"quantbt/internal/market"
)

var _ Strategy = (*Breakout)(nil)

// Breakout 实现价格行为突破策略：收盘价放量突破前期区间高点
// 一定幅度时买入，跌破前期区间低点时卖出。区间不含当前K线。
type Breakout struct {
	lookback  int
	threshold float64
}

// NewBreakout 创建突破策略。
func NewBreakout(cfg config.BreakoutConfig) *Breakout {
	return &Breakout{
		lookback:  cfg.Lookback,
		threshold: cfg.Threshold,
	}
}

// Name 返回策略名称。
func (s *Breakout) Name() string {
	return config.StrategyBreakout
}

// Compute 依据历史前缀计算当前信号。需要 lookback+1 根K线：
// lookback 根构成参考区间，最后一根为当前K线。
func (s *Breakout) Compute(hist market.Series) Signal {
	n := hist.Len()
	if n < s.lookback+1 {
		return SignalHold
	}

	priorHigh := indicator.HighestHigh(hist.High[:n-1], s.lookback)
	priorLow := indicator.LowestLow(hist.Low[:n-1], s.lookback)
	close := hist.Close[n-1]

	switch {
	case close > priorHigh*(1+s.threshold):
		return SignalBuy
	case close < priorLow*(1-s.threshold):
		return SignalSell
	default:
		return SignalHold
	}
}
