package backtest

import (
	"math"
	"sort"

	"quantbt/internal/market"
)

// Metrics 记录回测绩效指标。分母无意义的指标（样本不足、零方差、
// 无亏损交易）以 NaN 表示"无法定义"，绝不静默折算为0或无穷。
type Metrics struct {
	TotalReturn  float64
	AnnualReturn float64
	MaxDrawdown  float64
	SharpeRatio  float64
	Volatility   float64 // 年化波动率
	VaR95        float64 // 单期收益5%分位
	CVaR95       float64 // 5%分位以下的平均收益
	WinRate      float64
	ProfitLoss   float64 // 盈亏比：平均盈利/平均亏损绝对值
	TradeCount   int
	MaxLossBars  int     // 最大连续亏损K线数
	TotalCost    float64 // 交易费用合计
}

// BenchmarkComparison 为与基准（买入持有）的对比结果。
type BenchmarkComparison struct {
	TotalReturn  float64 // 基准区间收益
	ExcessReturn float64 // 策略收益 - 基准收益
	Beta         float64 // 策略收益对基准收益的回归系数，样本不足时为 NaN
	Bars         int
}

func calculateMetrics(curve []EquityPoint, trades []Trade, initialCash float64, periodsPerYear int) Metrics {
	if len(curve) == 0 {
		return Metrics{SharpeRatio: math.NaN(), ProfitLoss: math.NaN(), VaR95: math.NaN(), CVaR95: math.NaN()}
	}

	final := curve[len(curve)-1].Equity
	totalReturn := 0.0
	if initialCash > 0 {
		totalReturn = final/initialCash - 1
	}

	annualReturn := math.Pow(1+totalReturn, float64(periodsPerYear)/float64(len(curve))) - 1

	returns := perBarReturns(curve)

	m := Metrics{
		TotalReturn:  totalReturn,
		AnnualReturn: annualReturn,
		MaxDrawdown:  computeDrawdown(curve),
		SharpeRatio:  computeSharpe(returns, periodsPerYear),
		Volatility:   computeVolatility(returns, periodsPerYear),
		TradeCount:   len(trades),
		MaxLossBars:  maxConsecutiveLosses(returns),
	}

	m.VaR95, m.CVaR95 = computeVaR(returns)
	m.WinRate, m.ProfitLoss = tradeStats(trades)

	for _, t := range trades {
		m.TotalCost += t.Cost
	}

	return m
}

// perBarReturns 由相邻权益点推导单期简单收益率。
func perBarReturns(curve []EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			continue
		}
		returns = append(returns, curve[i].Equity/prev-1)
	}
	return returns
}

func computeDrawdown(curve []EquityPoint) float64 {
	var peak float64
	maxDD := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - p.Equity) / peak
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// computeSharpe 计算年化夏普比率。样本不足两个或标准差为0时无法定义。
func computeSharpe(returns []float64, periodsPerYear int) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}

	mean, std := meanStd(returns)
	if std == 0 {
		return math.NaN()
	}

	return mean / std * math.Sqrt(float64(periodsPerYear))
}

func computeVolatility(returns []float64, periodsPerYear int) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}
	_, std := meanStd(returns)
	return std * math.Sqrt(float64(periodsPerYear))
}

// computeVaR 返回单期收益的5%分位（VaR95）及其尾部均值（CVaR95）。
func computeVaR(returns []float64) (float64, float64) {
	if len(returns) == 0 {
		return math.NaN(), math.NaN()
	}

	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	idx := int(math.Floor(0.05 * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	varValue := sorted[idx]

	sum, count := 0.0, 0
	for _, r := range sorted {
		if r <= varValue {
			sum += r
			count++
		}
	}
	cvar := math.NaN()
	if count > 0 {
		cvar = sum / float64(count)
	}

	return varValue, cvar
}

func maxConsecutiveLosses(returns []float64) int {
	maxRun, run := 0, 0
	for _, r := range returns {
		if r < 0 {
			run++
			if run > maxRun {
				maxRun = run
			}
		} else {
			run = 0
		}
	}
	return maxRun
}

// tradeStats 计算胜率与盈亏比。没有亏损交易时盈亏比无法定义。
func tradeStats(trades []Trade) (float64, float64) {
	if len(trades) == 0 {
		return 0, math.NaN()
	}

	var winSum, lossSum float64
	var winCount, lossCount int
	for _, t := range trades {
		if t.NetPnL > 0 {
			winSum += t.NetPnL
			winCount++
		} else if t.NetPnL < 0 {
			lossSum += t.NetPnL
			lossCount++
		}
	}

	winRate := float64(winCount) / float64(len(trades))

	if lossCount == 0 {
		return winRate, math.NaN()
	}

	meanWin := 0.0
	if winCount > 0 {
		meanWin = winSum / float64(winCount)
	}
	meanLoss := lossSum / float64(lossCount)

	return winRate, meanWin / math.Abs(meanLoss)
}

func meanStd(values []float64) (float64, float64) {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	if len(values) > 1 {
		variance /= float64(len(values) - 1)
	}

	return mean, math.Sqrt(variance)
}

// compareBenchmark 用与策略相同的权益构造方式计算买入持有基准：
// 初始资金在第一根K线收盘全部投入，逐根盯市。
func compareBenchmark(curve []EquityPoint, bench market.Series, strategyReturn, initialCash float64) BenchmarkComparison {
	benchCurve := make([]float64, bench.Len())
	first := bench.Close[0]
	for i, c := range bench.Close {
		benchCurve[i] = initialCash * c / first
	}

	benchReturn := bench.Close[bench.Len()-1]/first - 1

	cmp := BenchmarkComparison{
		TotalReturn:  benchReturn,
		ExcessReturn: strategyReturn - benchReturn,
		Beta:         math.NaN(),
		Bars:         bench.Len(),
	}

	// Beta按对齐后的单期收益计算，样本不足或基准零方差时保持 NaN。
	n := len(curve)
	if bench.Len() < n {
		n = bench.Len()
	}
	if n < 3 {
		return cmp
	}

	stratReturns := make([]float64, 0, n-1)
	benchReturns := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		if curve[i-1].Equity <= 0 {
			continue
		}
		stratReturns = append(stratReturns, curve[i].Equity/curve[i-1].Equity-1)
		benchReturns = append(benchReturns, bench.Close[i]/bench.Close[i-1]-1)
	}
	if len(benchReturns) < 2 {
		return cmp
	}

	benchMean, _ := meanStd(benchReturns)
	stratMean, _ := meanStd(stratReturns)

	var cov, benchVar float64
	for i := range benchReturns {
		cov += (stratReturns[i] - stratMean) * (benchReturns[i] - benchMean)
		benchVar += (benchReturns[i] - benchMean) * (benchReturns[i] - benchMean)
	}
	if benchVar > 0 {
		cmp.Beta = cov / benchVar
	}

	return cmp
}
