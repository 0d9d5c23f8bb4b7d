package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	tokenDiscordENV   = "DISCORD_TOKEN"
	webullTokenENV    = "WEBULL_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

type Channel struct {
	Name string `mapstructure:"name"`
	ID   string `mapstructure:"id"`
}

// Config ...
type Config struct {
	Telegram struct {
		Token  string `mapstructure:"token"`
		ChatID int64  `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`

	DB string `mapstructure:"db_dsn"`

	Discord struct {
		Token    string    `mapstructure:"token"`
		GuildTag string    `mapstructure:"guild_tag"`
		Channels []Channel `mapstructure:"channels"`
		Stream   bool      `mapstructure:"stream"`
	} `mapstructure:"discord"`

	Webull struct {
		Endpoint string `mapstructure:"endpoint"`
		DeviceID string `mapstructure:"device_id"`
		Token    string `mapstructure:"token"`
		Paper    bool   `mapstructure:"paper"`
	} `mapstructure:"webull"`

	Trading struct {
		InvestPct float64 `mapstructure:"invest_pct"` // fraction of buying power per open
		DefaultSL float64 `mapstructure:"default_sl"` // default stop distance, e.g. 0.2 => 20%
		// Max drift in cents between the quote and a working Buy before the order is dropped.
		MaxPriceDiff float64 `mapstructure:"max_price_diff"`
		BuyCutoff    string  `mapstructure:"buy_cutoff"` // "HH:MM", no same-day opens after this
	} `mapstructure:"trading"`

	Market struct {
		Open  string `mapstructure:"open"`
		Close string `mapstructure:"close"`
	} `mapstructure:"market"`

	Jaeger struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"jaeger"`

	Developer bool `mapstructure:"developer"`
}

func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}

	v := viper.New()
	v.SetConfigFile("configs/" + configFileName)

	v.SetDefault("trading.invest_pct", 0.5)
	v.SetDefault("trading.default_sl", 0.2)
	v.SetDefault("trading.max_price_diff", 10)
	v.SetDefault("trading.buy_cutoff", "12:00")
	v.SetDefault("market.open", "06:30")
	v.SetDefault("market.close", "13:00")
	v.SetDefault("jaeger.port", 6831)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// secrets can always be overridden from the environment
	if token := os.Getenv(tokenTelegramENV); token != "" {
		config.Telegram.Token = token
	}
	if token := os.Getenv(tokenDiscordENV); token != "" {
		config.Discord.Token = token
	}
	if token := os.Getenv(webullTokenENV); token != "" {
		config.Webull.Token = token
	}
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		config.DB = dsn
	}

	if len(config.Discord.Channels) == 0 {
		return nil, fmt.Errorf("no alert channels configured")
	}

	return &config, nil
}

// ClockTime parses a "HH:MM" config value into hours and minutes.
func ClockTime(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad clock time %q", s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("bad clock time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}
