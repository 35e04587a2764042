// Package cost 定义模拟成交的费用模型。
package cost

import (
	"quantbt/internal/config"
)

// Side 表示交易方向。
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Model 根据交易方向与成交金额计算总费用，返回值必须非负。
type Model interface {
	Cost(side Side, notional float64) float64
}

// ModelFunc 允许使用函数作为费用模型。
type ModelFunc func(side Side, notional float64) float64

func (f ModelFunc) Cost(side Side, notional float64) float64 {
	return f(side, notional)
}

// AShare 实现A股费用模型：佣金买卖双向收取且有最低值，
// 过户费买卖双向收取，印花税仅在卖出时收取。
type AShare struct {
	cfg config.CostConfig
}

// NewAShare 根据配置创建A股费用模型。
func NewAShare(cfg config.CostConfig) *AShare {
	return &AShare{cfg: cfg}
}

// Cost 计算一笔成交的总费用。
func (m *AShare) Cost(side Side, notional float64) float64 {
	if notional <= 0 {
		return 0
	}

	commission := notional * m.cfg.CommissionRate
	if commission < m.cfg.MinCommission {
		commission = m.cfg.MinCommission
	}

	transfer := notional * m.cfg.TransferFeeRate

	stamp := 0.0
	if side == SideSell {
		stamp = notional * m.cfg.StampDutyRate
	}

	return commission + transfer + stamp
}
