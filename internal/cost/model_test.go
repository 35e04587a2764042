package cost

import (
	"math"
	"testing"

	"quantbt/internal/config"
)

func defaultCostConfig() config.CostConfig {
	return config.CostConfig{
		CommissionRate:  0.0003,
		MinCommission:   5.0,
		StampDutyRate:   0.001,
		TransferFeeRate: 0.00002,
	}
}

func TestAShareBuyCost(t *testing.T) {
	m := NewAShare(defaultCostConfig())

	// 10万元买入：佣金30元 + 过户费2元，无印花税。
	got := m.Cost(SideBuy, 100000)
	want := 100000*0.0003 + 100000*0.00002
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("buy cost = %.4f, want %.4f", got, want)
	}
}

func TestAShareSellCostIncludesStampDuty(t *testing.T) {
	m := NewAShare(defaultCostConfig())

	buy := m.Cost(SideBuy, 100000)
	sell := m.Cost(SideSell, 100000)

	// 卖出比买入多出千一印花税。
	if math.Abs((sell-buy)-100) > 1e-9 {
		t.Fatalf("sell-buy cost diff = %.4f, want 100", sell-buy)
	}
}

func TestAShareMinCommission(t *testing.T) {
	m := NewAShare(defaultCostConfig())

	// 1000元小额交易按最低佣金5元收取。
	got := m.Cost(SideBuy, 1000)
	want := 5.0 + 1000*0.00002
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("small trade cost = %.4f, want %.4f", got, want)
	}
}

func TestAShareZeroNotional(t *testing.T) {
	m := NewAShare(defaultCostConfig())
	if got := m.Cost(SideSell, 0); got != 0 {
		t.Fatalf("zero notional cost = %.4f, want 0", got)
	}
}

func TestModelFunc(t *testing.T) {
	flat := ModelFunc(func(side Side, notional float64) float64 { return 1 })
	if got := flat.Cost(SideBuy, 50000); got != 1 {
		t.Fatalf("ModelFunc cost = %.4f, want 1", got)
	}
}
