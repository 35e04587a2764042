package backtest

import (
	"fmt"
	"time"

	"quantbt/internal/cost"
)

// position 记录当前唯一持仓。数量为0表示空仓。
type position struct {
	qty       float64
	entry     float64
	entryTime time.Time
	entryBar  int
	entryFee  float64
}

// Simulator 模拟订单成交并独占组合状态（现金与持仓），
// 其他组件只能通过参数拿到派生只读值。
type Simulator struct {
	initialCash float64
	cash        float64
	pos         position
	costModel   cost.Model

	trades []Trade
	curve  []EquityPoint
}

// NewSimulator 创建执行模拟器。
func NewSimulator(initialCash float64, costModel cost.Model) *Simulator {
	return &Simulator{
		initialCash: initialCash,
		cash:        initialCash,
		costModel:   costModel,
	}
}

// Cash 返回可用现金。
func (s *Simulator) Cash() float64 {
	return s.cash
}

// PositionQty 返回当前持股数量。
func (s *Simulator) PositionQty() float64 {
	return s.pos.qty
}

// EntryPrice 返回持仓成本价，空仓时为0。
func (s *Simulator) EntryPrice() float64 {
	return s.pos.entry
}

// Equity 按给定价格计算当前总权益。
func (s *Simulator) Equity(price float64) float64 {
	return s.cash + s.pos.qty*price
}

// Buy 以给定价格买入 qty 股。数量由风控层计算，若本金加费用
// 超出现金则说明风控计算有误，视为不变式破坏并使整个回测失败。
func (s *Simulator) Buy(barIdx int, ts time.Time, price, qty float64) error {
	if qty <= 0 {
		return fmt.Errorf("backtest: 第%d根K线买入数量非法 qty=%.0f", barIdx, qty)
	}

	notional := qty * price
	fee := s.costModel.Cost(cost.SideBuy, notional)
	total := notional + fee
	if total > s.cash {
		return fmt.Errorf("backtest: 不变式破坏：第%d根K线(%s)买入所需资金 %.2f 超过现金 %.2f (qty=%.0f price=%.2f fee=%.2f)",
			barIdx, ts.Format("2006-01-02"), total, s.cash, qty, price, fee)
	}

	s.cash -= total
	s.pos = position{
		qty:       qty,
		entry:     price,
		entryTime: ts,
		entryBar:  barIdx,
		entryFee:  fee,
	}
	return nil
}

// Sell 以给定价格清空全部持仓并生成一笔 Trade。基础设计只支持
// 全仓退出，不做部分减仓。
func (s *Simulator) Sell(barIdx int, ts time.Time, price float64) (Trade, error) {
	if s.pos.qty <= 0 {
		return Trade{}, fmt.Errorf("backtest: 不变式破坏：第%d根K线(%s)空仓状态下执行卖出", barIdx, ts.Format("2006-01-02"))
	}

	qty := s.pos.qty
	notional := qty * price
	fee := s.costModel.Cost(cost.SideSell, notional)

	gross := (price - s.pos.entry) * qty
	totalCost := s.pos.entryFee + fee

	trade := Trade{
		EntryTime:   s.pos.entryTime,
		EntryPrice:  s.pos.entry,
		ExitTime:    ts,
		ExitPrice:   price,
		Quantity:    qty,
		GrossPnL:    gross,
		Cost:        totalCost,
		NetPnL:      gross - totalCost,
		HoldingBars: barIdx - s.pos.entryBar,
	}

	s.cash += notional - fee
	s.pos = position{}
	s.trades = append(s.trades, trade)

	return trade, nil
}

// Mark 以收盘价对组合做逐日盯市，追加一个权益点并返回它。
// 每根K线无论是否成交都恰好调用一次。
func (s *Simulator) Mark(ts time.Time, price float64) EquityPoint {
	point := EquityPoint{
		Time:          ts,
		Cash:          s.cash,
		PositionValue: s.pos.qty * price,
		Equity:        s.cash + s.pos.qty*price,
	}
	s.curve = append(s.curve, point)
	return point
}

// Position 返回当前未平仓持仓，空仓时返回 nil。
func (s *Simulator) Position() *OpenPosition {
	if s.pos.qty <= 0 {
		return nil
	}
	return &OpenPosition{
		Quantity:   s.pos.qty,
		EntryPrice: s.pos.entry,
		EntryTime:  s.pos.entryTime,
	}
}

// Trades 返回成交账本副本。
func (s *Simulator) Trades() []Trade {
	return append([]Trade(nil), s.trades...)
}

// EquityCurve 返回权益曲线副本。
func (s *Simulator) EquityCurve() []EquityPoint {
	return append([]EquityPoint(nil), s.curve...)
}
