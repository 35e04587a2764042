package market

import (
	"fmt"
	"time"
)

// Bar 代表单根日线（或其他固定周期）行情。
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series 将K线数据按列拆分，便于指标计算与只读切片。
type Series struct {
	Times  []time.Time
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// NewSeries 从K线切片构建 Series，不做排序，顺序由校验保证。
func NewSeries(bars []Bar) Series {
	length := len(bars)
	series := Series{
		Times:  make([]time.Time, length),
		Open:   make([]float64, length),
		High:   make([]float64, length),
		Low:    make([]float64, length),
		Close:  make([]float64, length),
		Volume: make([]float64, length),
	}

	for i := 0; i < length; i++ {
		bar := bars[i]
		series.Times[i] = bar.Time.UTC()
		series.Open[i] = bar.Open
		series.High[i] = bar.High
		series.Low[i] = bar.Low
		series.Close[i] = bar.Close
		series.Volume[i] = bar.Volume
	}

	return series
}

// Len 返回序列长度。
func (s Series) Len() int {
	return len(s.Close)
}

// Prefix 返回前 n 根K线的只读视图。策略只能看到截至当前的历史，
// 通过前缀视图从结构上杜绝未来函数。
func (s Series) Prefix(n int) Series {
	if n > s.Len() {
		n = s.Len()
	}
	return Series{
		Times:  s.Times[:n],
		Open:   s.Open[:n],
		High:   s.High[:n],
		Low:    s.Low[:n],
		Close:  s.Close[:n],
		Volume: s.Volume[:n],
	}
}

// Bar 返回第 i 根K线。
func (s Series) Bar(i int) Bar {
	return Bar{
		Time:   s.Times[i],
		Open:   s.Open[i],
		High:   s.High[i],
		Low:    s.Low[i],
		Close:  s.Close[i],
		Volume: s.Volume[i],
	}
}

// Validate 校验K线序列是否满足回测输入要求：非空、时间严格递增、
// 价格为正、最高价不低于最低价、成交量非负。maxGap 大于 0 时，
// 相邻K线间隔超过 maxGap 视为数据缺口并报错。
func Validate(s Series, maxGap time.Duration) error {
	if s.Len() == 0 {
		return fmt.Errorf("market: K线序列为空")
	}

	for i := 0; i < s.Len(); i++ {
		if s.Open[i] <= 0 || s.High[i] <= 0 || s.Low[i] <= 0 || s.Close[i] <= 0 {
			return fmt.Errorf("market: 第%d根K线(%s)存在非正价格 open=%.4f high=%.4f low=%.4f close=%.4f",
				i, s.Times[i].Format("2006-01-02"), s.Open[i], s.High[i], s.Low[i], s.Close[i])
		}
		if s.High[i] < s.Low[i] {
			return fmt.Errorf("market: 第%d根K线(%s)最高价低于最低价 high=%.4f low=%.4f",
				i, s.Times[i].Format("2006-01-02"), s.High[i], s.Low[i])
		}
		if s.Volume[i] < 0 {
			return fmt.Errorf("market: 第%d根K线(%s)成交量为负 volume=%.2f",
				i, s.Times[i].Format("2006-01-02"), s.Volume[i])
		}
		if i == 0 {
			continue
		}
		if !s.Times[i].After(s.Times[i-1]) {
			return fmt.Errorf("market: 第%d根K线时间戳未递增 %s -> %s",
				i, s.Times[i-1].Format(time.RFC3339), s.Times[i].Format(time.RFC3339))
		}
		if maxGap > 0 && s.Times[i].Sub(s.Times[i-1]) > maxGap {
			return fmt.Errorf("market: 第%d根K线与前一根间隔 %s 超过容忍上限 %s (%s -> %s)",
				i, s.Times[i].Sub(s.Times[i-1]), maxGap,
				s.Times[i-1].Format("2006-01-02"), s.Times[i].Format("2006-01-02"))
		}
	}

	return nil
}
