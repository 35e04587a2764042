package config

import (
	"errors"
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "quantbt"
)

// Load 读取配置文件并结合环境变量返回 Config。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = defaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("未找到配置文件 %q: %w", path, err)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")

	v.SetDefault("data.max_gap", "240h")

	v.SetDefault("backtest.initial_cash", 1000000)
	v.SetDefault("backtest.periods_per_year", 252)
	v.SetDefault("backtest.lot_size", 100)

	v.SetDefault("strategy.name", StrategyMACross)
	v.SetDefault("strategy.rsi.period", 14)
	v.SetDefault("strategy.rsi.oversold", 30)
	v.SetDefault("strategy.rsi.overbought", 70)
	v.SetDefault("strategy.ma_cross.fast", 10)
	v.SetDefault("strategy.ma_cross.slow", 30)
	v.SetDefault("strategy.breakout.lookback", 20)
	v.SetDefault("strategy.breakout.threshold", 0.02)

	v.SetDefault("risk.max_drawdown", 0.10)
	v.SetDefault("risk.max_position", 0.95)
	v.SetDefault("risk.stop_loss", 0.10)

	// A股默认费率：万三佣金（最低5元）、千一印花税（仅卖出）、万分之二过户费。
	v.SetDefault("cost.commission_rate", 0.0003)
	v.SetDefault("cost.min_commission", 5.0)
	v.SetDefault("cost.stamp_duty_rate", 0.001)
	v.SetDefault("cost.transfer_fee_rate", 0.00002)

	v.SetDefault("database.path", "data/quantbt.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.in_memory", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})

	v.SetDefault("output.trades_csv", "")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
