package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// 行情CSV列顺序：date,open,high,low,close,volume。首行可以是表头。
const csvColumns = 6

// LoadCSV 从CSV文件读取K线序列。日期支持 2006-01-02 与 RFC3339 两种格式。
func LoadCSV(path string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, fmt.Errorf("market: 打开行情文件失败: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = csvColumns

	var bars []Bar
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Series{}, fmt.Errorf("market: 解析 %s 第%d行失败: %w", path, line+1, err)
		}
		line++

		// 跳过表头。
		if line == 1 && !isNumeric(record[1]) {
			continue
		}

		bar, err := parseBar(record)
		if err != nil {
			return Series{}, fmt.Errorf("market: %s 第%d行: %w", path, line, err)
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return Series{}, fmt.Errorf("market: 行情文件 %s 不含任何K线", path)
	}

	return NewSeries(bars), nil
}

func parseBar(record []string) (Bar, error) {
	ts, err := parseDate(record[0])
	if err != nil {
		return Bar{}, err
	}

	values := make([]float64, csvColumns-1)
	names := []string{"open", "high", "low", "close", "volume"}
	for i := 1; i < csvColumns; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("解析 %s 失败: %w", names[i-1], err)
		}
		values[i-1] = v
	}

	return Bar{
		Time:   ts,
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "20060102"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("无法识别的日期 %q", value)
}

func isNumeric(value string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return err == nil
}
