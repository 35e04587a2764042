// Package indicator 封装策略用到的技术指标计算。
package indicator

import (
	"math"

	talib "github.com/markcheno/go-talib"
)

// RSI 计算Wilder平滑的相对强弱指数序列。有效值从下标 period 开始，
// 之前的暖机区间为0。
func RSI(closes []float64, period int) []float64 {
	if len(closes) <= period {
		return nil
	}
	return talib.Rsi(closes, period)
}

// SMA 计算简单移动平均序列。有效值从下标 period-1 开始。
func SMA(closes []float64, period int) []float64 {
	if len(closes) < period {
		return nil
	}
	return talib.Sma(closes, period)
}

// HighestHigh 返回 values 末尾 period 个值的最大值，数据不足时返回 NaN。
func HighestHigh(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return math.NaN()
	}
	return Last(talib.Max(values, period))
}

// LowestLow 返回 values 末尾 period 个值的最小值，数据不足时返回 NaN。
func LowestLow(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return math.NaN()
	}
	return Last(talib.Min(values, period))
}

// Last 返回序列最后一个值，若为空则返回 NaN。
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

// Prev 返回序列倒数第二个值，若不足两个元素则返回 NaN。
func Prev(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	return values[len(values)-2]
}

// SafeDivide 除法保护，除数为0时返回0。
func SafeDivide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
