package risk

import (
	"time"

	"quantbt/internal/strategy"
)

// Input 为一次风控评估的输入，全部为派生只读值，
// 风控本身不持有也不修改组合状态。
type Input struct {
	Signal      strategy.Signal // 策略给出的原始信号
	Price       float64         // 本根K线的成交参考价
	Time        time.Time       // 评估时间
	Cash        float64         // 可用现金
	PositionQty float64         // 当前持股数量，0表示空仓
	EntryPrice  float64         // 持仓成本价，空仓时为0
	Equity      float64         // 当前总权益
	PeakEquity  float64         // 历史权益峰值
}

// Verdict 为风控评估输出：最终信号、买入数量与决策说明。
type Verdict struct {
	Signal   strategy.Signal
	Quantity float64 // 仅在 Signal 为买入时有效
	Reason   string
	Halted   bool // 本次评估后是否处于停止交易状态
}
