package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"

	"quantbt/internal/backtest"
	"quantbt/internal/config"
	"quantbt/internal/log"
	"quantbt/internal/market"
	"quantbt/internal/store"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "配置文件路径，默认使用 configs/config.yaml")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("回测运行失败", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	bars, err := market.LoadCSV(cfg.Data.BarsPath)
	if err != nil {
		return err
	}

	var benchmark *market.Series
	if cfg.Data.BenchmarkPath != "" {
		series, err := market.LoadCSV(cfg.Data.BenchmarkPath)
		if err != nil {
			return err
		}
		benchmark = &series
	}

	engine, err := backtest.NewEngine(backtest.Config{
		Symbol:         cfg.Data.Symbol,
		InitialCash:    cfg.Backtest.InitialCash,
		PeriodsPerYear: cfg.Backtest.PeriodsPerYear,
		LotSize:        cfg.Backtest.LotSize,
		MaxGap:         cfg.Data.MaxGap,
		Strategy:       cfg.Strategy,
		Risk:           cfg.Risk,
		Cost:           cfg.Cost,
	}, nil, logger)
	if err != nil {
		return err
	}

	result, err := engine.Run(bars, benchmark)
	if err != nil {
		return err
	}

	logSummary(logger, result)

	resultStore, err := store.NewSQLite(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := resultStore.Close(); closeErr != nil {
			logger.Warn("关闭数据库失败", zap.Error(closeErr))
		}
	}()

	runID, err := resultStore.SaveRun(context.Background(), result, cfg.Backtest.InitialCash)
	if err != nil {
		return err
	}
	logger.Info("回测结果已入库", zap.Int64("run_id", runID))

	if cfg.Output.TradesCSV != "" {
		if err := backtest.WriteTradesCSV(result.Trades, cfg.Output.TradesCSV); err != nil {
			return err
		}
		logger.Info("交易账本已导出", zap.String("path", cfg.Output.TradesCSV))
	}

	return nil
}

func logSummary(logger *zap.Logger, result backtest.Result) {
	m := result.Metrics
	fields := []zap.Field{
		zap.String("symbol", result.Symbol),
		zap.String("strategy", result.Strategy),
		zap.Float64("final_equity", result.FinalEquity),
		zap.String("total_return", fmt.Sprintf("%+.2f%%", m.TotalReturn*100)),
		zap.String("annual_return", fmt.Sprintf("%+.2f%%", m.AnnualReturn*100)),
		zap.String("max_drawdown", fmt.Sprintf("%.2f%%", m.MaxDrawdown*100)),
		zap.String("sharpe_ratio", formatMetric(m.SharpeRatio)),
		zap.String("win_rate", fmt.Sprintf("%.1f%%", m.WinRate*100)),
		zap.String("profit_loss_ratio", formatMetric(m.ProfitLoss)),
		zap.Int("trades", m.TradeCount),
		zap.Float64("total_cost", m.TotalCost),
	}

	if result.Benchmark != nil {
		fields = append(fields,
			zap.String("benchmark_return", fmt.Sprintf("%+.2f%%", result.Benchmark.TotalReturn*100)),
			zap.String("excess_return", fmt.Sprintf("%+.2f%%", result.Benchmark.ExcessReturn*100)),
			zap.String("beta", formatMetric(result.Benchmark.Beta)),
		)
	}

	logger.Info("回测摘要", fields...)
}

// formatMetric 将无法定义的指标显示为 N/A，而不是0或无穷。
func formatMetric(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", v)
}
