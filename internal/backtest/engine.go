// Package backtest 实现事件驱动的回测引擎：按时间顺序处理K线，
// 依次完成信号计算、风控评估、模拟成交与逐日盯市。
package backtest

import (
	"fmt"

	"go.uber.org/zap"

	"quantbt/internal/cost"
	"quantbt/internal/market"
	"quantbt/internal/risk"
	"quantbt/internal/strategy"
)

// Result 汇总回测结果。
type Result struct {
	Symbol      string
	Strategy    string
	Metrics     Metrics
	Trades      []Trade
	EquityCurve []EquityPoint
	Benchmark   *BenchmarkComparison
	// OpenPosition 为回测结束时未平仓的持仓，空仓时为 nil。
	OpenPosition *OpenPosition
	FinalEquity  float64
}

// Engine 串联策略、风控与模拟执行。每次 Run 构建全新的运行状态，
// 相同输入必然得到相同输出，多个独立回测可以并发执行。
type Engine struct {
	cfg       Config
	costModel cost.Model
	logger    *zap.Logger
}

// NewEngine 构建回测引擎。costModel 传 nil 时使用配置中的A股费用模型。
func NewEngine(cfg Config, costModel cost.Model, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.normalize()

	if costModel == nil {
		costModel = cost.NewAShare(cfg.Cost)
	}

	// 提前校验策略配置，避免 Run 阶段才发现配置错误。
	if _, err := strategy.New(cfg.Strategy); err != nil {
		return nil, err
	}

	return &Engine{
		cfg:       cfg,
		costModel: costModel,
		logger:    logger,
	}, nil
}

// Run 执行完整回测。成交时点约定：第 t 根K线上产生的信号，
// 在第 t+1 根K线的收盘价成交，从结构上排除未来函数。
// benchmark 可以为 nil，此时结果不含基准对比。
func (e *Engine) Run(bars market.Series, benchmark *market.Series) (Result, error) {
	if err := market.Validate(bars, e.cfg.MaxGap); err != nil {
		return Result{}, fmt.Errorf("回测输入校验失败: %w", err)
	}
	if benchmark != nil {
		if err := market.Validate(*benchmark, e.cfg.MaxGap); err != nil {
			return Result{}, fmt.Errorf("基准数据校验失败: %w", err)
		}
	}

	strat, err := strategy.New(e.cfg.Strategy)
	if err != nil {
		return Result{}, err
	}
	ctrl, err := risk.NewController(e.cfg.Risk, e.costModel, e.cfg.LotSize, e.logger)
	if err != nil {
		return Result{}, err
	}
	sim := NewSimulator(e.cfg.InitialCash, e.costModel)

	e.logger.Info("开始回测",
		zap.String("symbol", e.cfg.Symbol),
		zap.String("strategy", strat.Name()),
		zap.Int("bars", bars.Len()),
		zap.Float64("initial_cash", e.cfg.InitialCash),
	)

	pending := strategy.SignalHold
	peak := e.cfg.InitialCash

	for i := 0; i < bars.Len(); i++ {
		price := bars.Close[i]
		ts := bars.Times[i]

		verdict := ctrl.Evaluate(risk.Input{
			Signal:      pending,
			Price:       price,
			Time:        ts,
			Cash:        sim.Cash(),
			PositionQty: sim.PositionQty(),
			EntryPrice:  sim.EntryPrice(),
			Equity:      sim.Equity(price),
			PeakEquity:  peak,
		})

		switch verdict.Signal {
		case strategy.SignalBuy:
			if err := sim.Buy(i, ts, price, verdict.Quantity); err != nil {
				return Result{}, err
			}
			e.logger.Info("买入成交",
				zap.Time("time", ts),
				zap.Float64("price", price),
				zap.Float64("quantity", verdict.Quantity),
				zap.Float64("cash", sim.Cash()),
			)
		case strategy.SignalSell:
			trade, err := sim.Sell(i, ts, price)
			if err != nil {
				return Result{}, err
			}
			e.logger.Info("卖出成交",
				zap.Time("time", ts),
				zap.Float64("price", price),
				zap.Float64("net_pnl", trade.NetPnL),
				zap.String("reason", verdict.Reason),
			)
		}

		point := sim.Mark(ts, price)
		if point.Equity > peak {
			peak = point.Equity
		}

		// 用截至当前K线的前缀计算下一根K线待执行的信号。
		pending = strat.Compute(bars.Prefix(i + 1))
	}

	curve := sim.EquityCurve()
	trades := sim.Trades()
	metrics := calculateMetrics(curve, trades, e.cfg.InitialCash, e.cfg.PeriodsPerYear)

	result := Result{
		Symbol:       e.cfg.Symbol,
		Strategy:     strat.Name(),
		Metrics:      metrics,
		Trades:       trades,
		EquityCurve:  curve,
		OpenPosition: sim.Position(),
		FinalEquity:  sim.Equity(bars.Close[bars.Len()-1]),
	}

	if benchmark != nil {
		cmp := compareBenchmark(curve, *benchmark, metrics.TotalReturn, e.cfg.InitialCash)
		result.Benchmark = &cmp
	}

	e.logger.Info("回测完成",
		zap.String("symbol", e.cfg.Symbol),
		zap.Float64("final_equity", result.FinalEquity),
		zap.Float64("total_return", metrics.TotalReturn),
		zap.Int("trades", len(trades)),
	)

	return result, nil
}
