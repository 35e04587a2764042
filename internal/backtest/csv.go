package backtest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// WriteTradesCSV 将成交账本导出为CSV，便于外部报表使用。
func WriteTradesCSV(trades []Trade, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("backtest: 创建导出文件失败: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"entry_time", "entry_price", "exit_time", "exit_price", "quantity",
		"gross_pnl", "cost", "net_pnl", "holding_bars",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("backtest: 写入表头失败: %w", err)
	}

	for _, t := range trades {
		record := []string{
			t.EntryTime.Format("2006-01-02"),
			formatF(t.EntryPrice),
			t.ExitTime.Format("2006-01-02"),
			formatF(t.ExitPrice),
			formatF(t.Quantity),
			formatF(t.GrossPnL),
			formatF(t.Cost),
			formatF(t.NetPnL),
			strconv.Itoa(t.HoldingBars),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("backtest: 写入交易记录失败: %w", err)
		}
	}

	return nil
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
