package strategy

import (
	"quantbt/internal/config"
	"quantbt/internal/indicator"
	"quantbt/internal/market"
)

var _ Strategy = (*MACross)(nil)

// MACross 实现双均线策略：快线上穿慢线（金叉）买入，
// 下穿（死叉）卖出。均线相等视为未穿越，平盘行情不会产生信号。
type MACross struct {
	fast int
	slow int

	wasAbove bool
}

// NewMACross 创建双均线策略。
func NewMACross(cfg config.MACrossConfig) *MACross {
	return &MACross{
		fast: cfg.Fast,
		slow: cfg.Slow,
	}
}

// Name 返回策略名称。
func (s *MACross) Name() string {
	return config.StrategyMACross
}

// Compute 依据历史前缀计算当前信号。暖机期为慢线窗口长度。
// wasAbove 记录上一根K线快线是否位于慢线之上，首次出现
// 快线在上即视为金叉。
func (s *MACross) Compute(hist market.Series) Signal {
	if hist.Len() < s.slow {
		return SignalHold
	}

	fast := indicator.Last(indicator.SMA(hist.Close, s.fast))
	slow := indicator.Last(indicator.SMA(hist.Close, s.slow))
	above := fast > slow

	signal := SignalHold
	if above && !s.wasAbove {
		signal = SignalBuy
	} else if !above && s.wasAbove {
		signal = SignalSell
	}
	s.wasAbove = above

	return signal
}
