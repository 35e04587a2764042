// Package risk 在策略信号与模拟执行之间实现风控叠加层。
package risk

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"quantbt/internal/config"
	"quantbt/internal/cost"
	"quantbt/internal/strategy"
)

// Controller 包裹任意策略信号，按固定优先级执行回撤熔断、
// 止损、仓位计算与卖空拦截。对组合状态只读，halted 是
// 它唯一的内部状态，一次回测对应一个实例。
type Controller struct {
	cfg       config.RiskConfig
	costModel cost.Model
	lotSize   int
	logger    *zap.Logger

	halted bool
}

// NewController 创建风控叠加层。lotSize 为最小交易单位（A股为100股）。
func NewController(cfg config.RiskConfig, costModel cost.Model, lotSize int, logger *zap.Logger) (*Controller, error) {
	if costModel == nil {
		return nil, fmt.Errorf("risk: 费用模型不能为空")
	}
	if lotSize <= 0 {
		return nil, fmt.Errorf("risk: lotSize 必须大于0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Controller{
		cfg:       cfg,
		costModel: costModel,
		lotSize:   lotSize,
		logger:    logger,
	}, nil
}

// Halted 返回是否已触发回撤熔断。
func (c *Controller) Halted() bool {
	return c.halted
}

// Evaluate 按优先级评估信号，首个命中的规则生效：
// 回撤熔断 > 止损 > 买入仓位计算 > 卖空拦截 > 原样放行。
func (c *Controller) Evaluate(input Input) Verdict {
	holding := input.PositionQty > 0

	// 回撤熔断：触发后本次运行内永久停止开仓。
	if input.PeakEquity > 0 {
		drawdown := (input.PeakEquity - input.Equity) / input.PeakEquity
		if !c.halted && drawdown >= c.cfg.MaxDrawdown {
			c.halted = true
			c.logger.Warn("回撤超限，触发熔断",
				zap.Time("time", input.Time),
				zap.Float64("drawdown", drawdown),
				zap.Float64("max_drawdown", c.cfg.MaxDrawdown),
			)
			if holding {
				return Verdict{
					Signal: strategy.SignalSell,
					Reason: fmt.Sprintf("回撤 %.2f%% 达到上限 %.2f%%，强制平仓", drawdown*100, c.cfg.MaxDrawdown*100),
					Halted: true,
				}
			}
			return Verdict{Signal: strategy.SignalHold, Reason: "回撤超限，停止交易", Halted: true}
		}
	}

	// 止损：持仓价格跌破成本价一定比例时强制卖出，覆盖策略信号。
	if holding && input.Price <= input.EntryPrice*(1-c.cfg.StopLoss) {
		c.logger.Info("触发止损",
			zap.Time("time", input.Time),
			zap.Float64("price", input.Price),
			zap.Float64("entry", input.EntryPrice),
			zap.Float64("stop_loss", c.cfg.StopLoss),
		)
		return Verdict{
			Signal: strategy.SignalSell,
			Reason: fmt.Sprintf("价格 %.2f 跌破止损线 %.2f", input.Price, input.EntryPrice*(1-c.cfg.StopLoss)),
			Halted: c.halted,
		}
	}

	switch input.Signal {
	case strategy.SignalBuy:
		if c.halted {
			return Verdict{Signal: strategy.SignalHold, Reason: "已熔断，买入信号被抑制", Halted: true}
		}
		if holding {
			// 单一持仓引擎：已有持仓时不再加仓。
			return Verdict{Signal: strategy.SignalHold, Reason: "已有持仓，忽略买入信号"}
		}
		qty := c.sizePosition(input)
		if qty <= 0 {
			return Verdict{Signal: strategy.SignalHold, Reason: "资金不足，买入降级为观望"}
		}
		return Verdict{Signal: strategy.SignalBuy, Quantity: qty, Reason: "买入信号通过风控"}

	case strategy.SignalSell:
		if !holding {
			// 本引擎不支持卖空。
			return Verdict{Signal: strategy.SignalHold, Reason: "空仓状态下卖出降级为观望", Halted: c.halted}
		}
		return Verdict{Signal: strategy.SignalSell, Reason: "卖出信号通过风控", Halted: c.halted}

	default:
		return Verdict{Signal: strategy.SignalHold, Halted: c.halted}
	}
}

// sizePosition 计算买入数量：预算取 min(最大仓位比例×权益, 可用现金)，
// 按最小交易单位向下取整，并逐手缩减直到现金足以覆盖本金加费用。
func (c *Controller) sizePosition(input Input) float64 {
	if input.Price <= 0 || input.Equity <= 0 {
		return 0
	}

	budget := math.Min(c.cfg.MaxPosition*input.Equity, input.Cash)
	lot := float64(c.lotSize)
	qty := math.Floor(budget/input.Price/lot) * lot

	for qty > 0 {
		notional := qty * input.Price
		if notional+c.costModel.Cost(cost.SideBuy, notional) <= input.Cash {
			break
		}
		qty -= lot
	}

	if qty < 0 {
		qty = 0
	}
	return qty
}
