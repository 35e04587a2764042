package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// 内置策略名称。
const (
	StrategyRSI      = "rsi"
	StrategyMACross  = "ma_cross"
	StrategyBreakout = "breakout"
)

// Config 聚合了一次回测运行所需的全部配置项。
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Data     DataConfig     `mapstructure:"data"`
	Backtest BacktestConfig `mapstructure:"backtest"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Cost     CostConfig     `mapstructure:"cost"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Output   OutputConfig   `mapstructure:"output"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// DataConfig 描述行情数据来源。
type DataConfig struct {
	Symbol        string        `mapstructure:"symbol"`
	BarsPath      string        `mapstructure:"bars_path"`
	BenchmarkPath string        `mapstructure:"benchmark_path"`
	MaxGap        time.Duration `mapstructure:"max_gap"`
}

// BacktestConfig 定义回测参数。
type BacktestConfig struct {
	InitialCash    float64 `mapstructure:"initial_cash"`
	PeriodsPerYear int     `mapstructure:"periods_per_year"`
	LotSize        int     `mapstructure:"lot_size"`
}

// StrategyConfig 选择策略并携带各变体参数。
type StrategyConfig struct {
	Name     string         `mapstructure:"name"`
	RSI      RSIConfig      `mapstructure:"rsi"`
	MACross  MACrossConfig  `mapstructure:"ma_cross"`
	Breakout BreakoutConfig `mapstructure:"breakout"`
}

// RSIConfig 为RSI反转策略参数。
type RSIConfig struct {
	Period     int     `mapstructure:"period"`
	Oversold   float64 `mapstructure:"oversold"`
	Overbought float64 `mapstructure:"overbought"`
}

// MACrossConfig 为双均线策略参数。
type MACrossConfig struct {
	Fast int `mapstructure:"fast"`
	Slow int `mapstructure:"slow"`
}

// BreakoutConfig 为价格行为突破策略参数。
type BreakoutConfig struct {
	Lookback  int     `mapstructure:"lookback"`
	Threshold float64 `mapstructure:"threshold"`
}

// RiskConfig 管理风控参数。
type RiskConfig struct {
	MaxDrawdown float64 `mapstructure:"max_drawdown"`
	MaxPosition float64 `mapstructure:"max_position"`
	StopLoss    float64 `mapstructure:"stop_loss"`
}

// CostConfig 描述A股交易费用。
type CostConfig struct {
	CommissionRate  float64 `mapstructure:"commission_rate"`
	MinCommission   float64 `mapstructure:"min_commission"`
	StampDutyRate   float64 `mapstructure:"stamp_duty_rate"`
	TransferFeeRate float64 `mapstructure:"transfer_fee_rate"`
}

// DatabaseConfig 管理结果数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// OutputConfig 控制结果导出。
type OutputConfig struct {
	TradesCSV string `mapstructure:"trades_csv"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.Data.Symbol == "" {
		err = multierr.Append(err, errors.New("data.symbol 不能为空"))
	}
	if c.Data.BarsPath == "" {
		err = multierr.Append(err, errors.New("data.bars_path 不能为空"))
	}
	if c.Data.MaxGap < 0 {
		err = multierr.Append(err, errors.New("data.max_gap 不能为负"))
	}
	if c.Backtest.InitialCash <= 0 {
		err = multierr.Append(err, errors.New("backtest.initial_cash 必须大于0"))
	}
	if c.Backtest.PeriodsPerYear <= 0 {
		err = multierr.Append(err, errors.New("backtest.periods_per_year 必须大于0"))
	}
	if c.Backtest.LotSize <= 0 {
		err = multierr.Append(err, errors.New("backtest.lot_size 必须大于0"))
	}

	switch c.Strategy.Name {
	case StrategyRSI:
		if c.Strategy.RSI.Period <= 1 {
			err = multierr.Append(err, errors.New("strategy.rsi.period 必须大于1"))
		}
		if c.Strategy.RSI.Oversold <= 0 || c.Strategy.RSI.Oversold >= 100 {
			err = multierr.Append(err, errors.New("strategy.rsi.oversold 必须位于(0,100)"))
		}
		if c.Strategy.RSI.Overbought <= 0 || c.Strategy.RSI.Overbought >= 100 {
			err = multierr.Append(err, errors.New("strategy.rsi.overbought 必须位于(0,100)"))
		}
		if c.Strategy.RSI.Oversold >= c.Strategy.RSI.Overbought {
			err = multierr.Append(err, errors.New("strategy.rsi.oversold 必须小于 overbought"))
		}
	case StrategyMACross:
		if c.Strategy.MACross.Fast <= 0 {
			err = multierr.Append(err, errors.New("strategy.ma_cross.fast 必须大于0"))
		}
		if c.Strategy.MACross.Slow <= c.Strategy.MACross.Fast {
			err = multierr.Append(err, errors.New("strategy.ma_cross.slow 必须大于 fast"))
		}
	case StrategyBreakout:
		if c.Strategy.Breakout.Lookback <= 0 {
			err = multierr.Append(err, errors.New("strategy.breakout.lookback 必须大于0"))
		}
		if c.Strategy.Breakout.Threshold < 0 {
			err = multierr.Append(err, errors.New("strategy.breakout.threshold 不能为负"))
		}
	case "":
		err = multierr.Append(err, errors.New("strategy.name 不能为空"))
	default:
		err = multierr.Append(err, fmt.Errorf("strategy.name %q 不是内置策略", c.Strategy.Name))
	}

	if c.Risk.MaxDrawdown <= 0 || c.Risk.MaxDrawdown > 1 {
		err = multierr.Append(err, errors.New("risk.max_drawdown 必须位于(0,1]"))
	}
	if c.Risk.MaxPosition <= 0 || c.Risk.MaxPosition > 1 {
		err = multierr.Append(err, errors.New("risk.max_position 必须位于(0,1]"))
	}
	if c.Risk.StopLoss <= 0 || c.Risk.StopLoss >= 1 {
		err = multierr.Append(err, errors.New("risk.stop_loss 必须位于(0,1)"))
	}
	if c.Cost.CommissionRate < 0 {
		err = multierr.Append(err, errors.New("cost.commission_rate 不能为负"))
	}
	if c.Cost.MinCommission < 0 {
		err = multierr.Append(err, errors.New("cost.min_commission 不能为负"))
	}
	if c.Cost.StampDutyRate < 0 {
		err = multierr.Append(err, errors.New("cost.stamp_duty_rate 不能为负"))
	}
	if c.Cost.TransferFeeRate < 0 {
		err = multierr.Append(err, errors.New("cost.transfer_fee_rate 不能为负"))
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
