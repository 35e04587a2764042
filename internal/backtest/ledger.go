package backtest

import "time"

// Trade 记录一笔完整的买入-卖出往返，平仓时生成，之后不可变。
type Trade struct {
	EntryTime   time.Time
	EntryPrice  float64
	ExitTime    time.Time
	ExitPrice   float64
	Quantity    float64
	GrossPnL    float64 // 毛利 = (卖出价-买入价) × 数量
	Cost        float64 // 买卖双边费用合计
	NetPnL      float64 // 净利 = 毛利 - 费用
	HoldingBars int     // 持仓K线数
}

// OpenPosition 描述回测结束时尚未平仓的持仓。
type OpenPosition struct {
	Quantity   float64
	EntryPrice float64
	EntryTime  time.Time
}

// EquityPoint 为单根K线收盘后的组合快照，逐根构成权益曲线。
type EquityPoint struct {
	Time          time.Time
	Cash          float64
	PositionValue float64
	Equity        float64
}
