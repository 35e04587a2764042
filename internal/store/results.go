package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"quantbt/internal/backtest"
)

// SaveRun 在单个事务内写入一次回测的汇总、交易账本与权益曲线，
// 返回新建的 run ID。NaN 指标（无法定义）以 NULL 存储。
func (s *Store) SaveRun(ctx context.Context, result backtest.Result, initialCash float64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: 开启事务失败: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	m := result.Metrics
	res, err := tx.ExecContext(ctx,
		`INSERT INTO backtest_runs (
			created_at, symbol, strategy, initial_cash, final_equity,
			total_return, annual_return, max_drawdown, sharpe_ratio,
			win_rate, profit_loss_ratio, trade_count, total_cost
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		result.Symbol,
		result.Strategy,
		initialCash,
		result.FinalEquity,
		m.TotalReturn,
		m.AnnualReturn,
		m.MaxDrawdown,
		nullable(m.SharpeRatio),
		m.WinRate,
		nullable(m.ProfitLoss),
		m.TradeCount,
		m.TotalCost,
	)
	if err != nil {
		return 0, fmt.Errorf("store: 写入回测汇总失败: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: 获取 run ID 失败: %w", err)
	}

	for _, t := range result.Trades {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO backtest_trades (
				run_id, entry_time, entry_price, exit_time, exit_price,
				quantity, gross_pnl, cost, net_pnl, holding_bars
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID,
			t.EntryTime.Format(time.RFC3339),
			t.EntryPrice,
			t.ExitTime.Format(time.RFC3339),
			t.ExitPrice,
			t.Quantity,
			t.GrossPnL,
			t.Cost,
			t.NetPnL,
			t.HoldingBars,
		); err != nil {
			return 0, fmt.Errorf("store: 写入交易记录失败: %w", err)
		}
	}

	for _, p := range result.EquityCurve {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO backtest_equity (run_id, ts, cash, position_value, equity)
			 VALUES (?, ?, ?, ?, ?)`,
			runID,
			p.Time.Format(time.RFC3339),
			p.Cash,
			p.PositionValue,
			p.Equity,
		); err != nil {
			return 0, fmt.Errorf("store: 写入权益曲线失败: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: 提交事务失败: %w", err)
	}

	return runID, nil
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
