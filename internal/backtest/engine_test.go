package backtest

import (
	"math"
	"reflect"
	"testing"
	"time"

	"quantbt/internal/config"
	"quantbt/internal/market"
)

func makeBarSeries(closes []float64) market.Series {
	bars := make([]market.Bar, len(closes))
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = market.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return market.NewSeries(bars)
}

func maCrossConfig(risk config.RiskConfig) Config {
	return Config{
		Symbol:         "600519.SH",
		InitialCash:    1000000,
		PeriodsPerYear: 252,
		LotSize:        100,
		Strategy: config.StrategyConfig{
			Name:    config.StrategyMACross,
			MACross: config.MACrossConfig{Fast: 10, Slow: 30},
		},
		Risk: risk,
		Cost: config.CostConfig{
			CommissionRate:  0.0003,
			MinCommission:   5.0,
			StampDutyRate:   0.001,
			TransferFeeRate: 0.00002,
		},
	}
}

func TestNewEngineRejectsUnknownStrategy(t *testing.T) {
	cfg := maCrossConfig(config.RiskConfig{MaxDrawdown: 0.10, MaxPosition: 0.95, StopLoss: 0.10})
	cfg.Strategy.Name = "magic"

	if _, err := NewEngine(cfg, nil, nil); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestRunRejectsEmptySeries(t *testing.T) {
	engine, err := NewEngine(maCrossConfig(config.RiskConfig{MaxDrawdown: 0.10, MaxPosition: 0.95, StopLoss: 0.10}), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Run(market.Series{}, nil); err == nil {
		t.Fatal("expected error for empty bar series")
	}
}

func TestRunFlatSeriesNoTrades(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100
	}
	bars := makeBarSeries(closes)

	cfg := maCrossConfig(config.RiskConfig{MaxDrawdown: 0.10, MaxPosition: 0.95, StopLoss: 0.10})
	cfg.Strategy = config.StrategyConfig{
		Name: config.StrategyRSI,
		RSI:  config.RSIConfig{Period: 14, Oversold: 30, Overbought: 70},
	}

	engine, err := NewEngine(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	result, err := engine.Run(bars, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Trades) != 0 {
		t.Fatalf("trades = %d, want 0", len(result.Trades))
	}
	// 每根K线恰好一个权益点。
	if len(result.EquityCurve) != 50 {
		t.Fatalf("equity points = %d, want 50", len(result.EquityCurve))
	}
	if result.Metrics.TotalReturn != 0 {
		t.Fatalf("total return = %v, want 0", result.Metrics.TotalReturn)
	}
	if result.Metrics.MaxDrawdown != 0 {
		t.Fatalf("max drawdown = %v, want 0", result.Metrics.MaxDrawdown)
	}
	// 零方差收益序列下夏普比率无法定义。
	if !math.IsNaN(result.Metrics.SharpeRatio) {
		t.Fatalf("sharpe = %v, want NaN", result.Metrics.SharpeRatio)
	}
	for i, p := range result.EquityCurve {
		if p.Equity != 1000000 {
			t.Fatalf("equity at bar %d = %.2f, want 1000000", i, p.Equity)
		}
	}
}

func TestRunGoldenCrossFillsNextBarClose(t *testing.T) {
	// 单边上涨40根：第29根金叉，信号在第30根收盘价130成交，
	// 回测结束时持仓未平。
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	bars := makeBarSeries(closes)

	engine, err := NewEngine(maCrossConfig(config.RiskConfig{MaxDrawdown: 0.10, MaxPosition: 0.95, StopLoss: 0.10}), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	result, err := engine.Run(bars, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Trades) != 0 {
		t.Fatalf("closed trades = %d, want 0 (position still open)", len(result.Trades))
	}
	if result.OpenPosition == nil {
		t.Fatal("expected an open position at end of run")
	}
	if result.OpenPosition.EntryPrice != 130 {
		t.Fatalf("entry price = %.2f, want 130", result.OpenPosition.EntryPrice)
	}
	if !result.OpenPosition.EntryTime.Equal(bars.Times[30]) {
		t.Fatalf("entry time = %v, want bar 30 (%v)", result.OpenPosition.EntryTime, bars.Times[30])
	}
	// 预算95万，按手取整为7300股。
	if result.OpenPosition.Quantity != 7300 {
		t.Fatalf("quantity = %.0f, want 7300", result.OpenPosition.Quantity)
	}

	// 买入后的现金 = 100万 - 94.9万本金 - 303.68费用。
	cashAfter := result.EquityCurve[30].Cash
	if math.Abs(cashAfter-50696.32) > 1e-6 {
		t.Fatalf("cash after buy = %.4f, want 50696.32", cashAfter)
	}

	wantFinal := 50696.32 + 7300*139
	if math.Abs(result.FinalEquity-wantFinal) > 1e-6 {
		t.Fatalf("final equity = %.4f, want %.4f", result.FinalEquity, wantFinal)
	}
	if result.Metrics.TotalReturn <= 0 {
		t.Fatalf("total return = %v, want positive", result.Metrics.TotalReturn)
	}
}

func TestRunStopLossForcesExit(t *testing.T) {
	// 第30根以130买入，止损线117。第35根收盘116跌破止损线，
	// 当根强制平仓。回撤上限放宽到0.5以隔离止损路径。
	closes := make([]float64, 36)
	for i := 0; i < 35; i++ {
		closes[i] = 100 + float64(i)
	}
	closes[35] = 116
	bars := makeBarSeries(closes)

	engine, err := NewEngine(maCrossConfig(config.RiskConfig{MaxDrawdown: 0.5, MaxPosition: 0.95, StopLoss: 0.10}), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	result, err := engine.Run(bars, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(result.Trades))
	}
	trade := result.Trades[0]
	if trade.EntryPrice != 130 || trade.ExitPrice != 116 {
		t.Fatalf("trade prices = %.2f -> %.2f, want 130 -> 116", trade.EntryPrice, trade.ExitPrice)
	}
	if !trade.ExitTime.Equal(bars.Times[35]) {
		t.Fatalf("exit time = %v, want bar 35", trade.ExitTime)
	}
	if trade.GrossPnL != -14*7300 {
		t.Fatalf("gross pnl = %.2f, want %.2f", trade.GrossPnL, -14.0*7300)
	}
	if trade.NetPnL >= trade.GrossPnL {
		t.Fatalf("net pnl %.2f should be below gross %.2f after costs", trade.NetPnL, trade.GrossPnL)
	}
	if result.OpenPosition != nil {
		t.Fatal("position should be closed after stop loss")
	}
}

func TestRunDrawdownHaltStopsTrading(t *testing.T) {
	// 上涨后买入，随后下跌触发回撤熔断强制平仓；之后V形反转
	// 再度金叉，但熔断后的买入信号被抑制，全程只有一笔交易。
	// 止损放宽到0.9以隔离熔断路径。
	closes := make([]float64, 0, 61)
	for i := 0; i <= 30; i++ {
		closes = append(closes, 100+float64(i))
	}
	for i := 1; i <= 10; i++ {
		closes = append(closes, 130-float64(i)*3)
	}
	for i := 1; i <= 20; i++ {
		closes = append(closes, 100+float64(i)*4)
	}
	bars := makeBarSeries(closes)

	engine, err := NewEngine(maCrossConfig(config.RiskConfig{MaxDrawdown: 0.10, MaxPosition: 0.95, StopLoss: 0.90}), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	result, err := engine.Run(bars, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Trades) != 1 {
		t.Fatalf("trades = %d, want 1 (halt must suppress re-entry)", len(result.Trades))
	}
	trade := result.Trades[0]
	// 第35根收盘115，回撤10.98%首次超过上限。
	if !trade.ExitTime.Equal(bars.Times[35]) {
		t.Fatalf("exit time = %v, want bar 35", trade.ExitTime)
	}
	if trade.ExitPrice != 115 {
		t.Fatalf("exit price = %.2f, want 115", trade.ExitPrice)
	}
	if result.OpenPosition != nil {
		t.Fatal("no position should remain after halt")
	}

	// 熔断后组合只剩现金，权益保持不变。
	finalCash := result.EquityCurve[len(result.EquityCurve)-1].Cash
	for i := 36; i < len(result.EquityCurve); i++ {
		p := result.EquityCurve[i]
		if p.PositionValue != 0 {
			t.Fatalf("position value at bar %d = %.2f, want 0", i, p.PositionValue)
		}
		if p.Cash != finalCash {
			t.Fatalf("cash at bar %d = %.2f, want %.2f", i, p.Cash, finalCash)
		}
	}
	if math.Abs(result.FinalEquity-889088.18) > 1e-6 {
		t.Fatalf("final equity = %.4f, want 889088.18", result.FinalEquity)
	}
}

func TestRunDeterministic(t *testing.T) {
	closes := make([]float64, 36)
	for i := 0; i < 35; i++ {
		closes[i] = 100 + float64(i)
	}
	closes[35] = 116
	bars := makeBarSeries(closes)

	engine, err := NewEngine(maCrossConfig(config.RiskConfig{MaxDrawdown: 0.5, MaxPosition: 0.95, StopLoss: 0.10}), nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	first, err := engine.Run(bars, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := engine.Run(bars, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first.Trades, second.Trades) {
		t.Fatal("trades differ between identical runs")
	}
	if !reflect.DeepEqual(first.EquityCurve, second.EquityCurve) {
		t.Fatal("equity curves differ between identical runs")
	}
}

func TestRunWithBenchmark(t *testing.T) {
	closes := make([]float64, 50)
	benchCloses := make([]float64, 50)
	for i := range closes {
		closes[i] = 100
		benchCloses[i] = 100 + float64(i)
	}

	cfg := maCrossConfig(config.RiskConfig{MaxDrawdown: 0.10, MaxPosition: 0.95, StopLoss: 0.10})
	cfg.Strategy = config.StrategyConfig{
		Name: config.StrategyRSI,
		RSI:  config.RSIConfig{Period: 14, Oversold: 30, Overbought: 70},
	}

	engine, err := NewEngine(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	bench := makeBarSeries(benchCloses)
	result, err := engine.Run(makeBarSeries(closes), &bench)
	if err != nil {
		t.Fatal(err)
	}

	if result.Benchmark == nil {
		t.Fatal("expected benchmark comparison")
	}
	wantBench := 149.0/100.0 - 1
	if math.Abs(result.Benchmark.TotalReturn-wantBench) > 1e-9 {
		t.Fatalf("benchmark return = %v, want %v", result.Benchmark.TotalReturn, wantBench)
	}
	// 策略空仓，超额收益为负的基准收益。
	if math.Abs(result.Benchmark.ExcessReturn-(-wantBench)) > 1e-9 {
		t.Fatalf("excess return = %v, want %v", result.Benchmark.ExcessReturn, -wantBench)
	}
	// 策略权益恒定，与基准协方差为0。
	if result.Benchmark.Beta != 0 {
		t.Fatalf("beta = %v, want 0", result.Benchmark.Beta)
	}
}
