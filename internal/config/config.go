package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"token-price-alerts/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Sampler  SamplerConfig  `mapstructure:"sampler"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Export   ExportConfig   `mapstructure:"export"`
	Tokens   []TokenConfig  `mapstructure:"tokens"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// GraphConfig covers subgraph connectivity.
type GraphConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// SamplerConfig governs the two polling cadences.
type SamplerConfig struct {
	ReferencePollInterval time.Duration `mapstructure:"reference_poll_interval"`
	TokenPollInterval     time.Duration `mapstructure:"token_poll_interval"`
	StartupDelay          time.Duration `mapstructure:"startup_delay"`
}

// AlertingConfig defines alert routing.
type AlertingConfig struct {
	SoundEnabled    bool           `mapstructure:"sound_enabled"`
	DispatchTimeout time.Duration  `mapstructure:"dispatch_timeout"`
	Telegram        TelegramConfig `mapstructure:"telegram"`
	Kafka           KafkaConfig    `mapstructure:"kafka"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// KafkaConfig describes the alert event topic.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// MetricsConfig exposes the optional Prometheus listener.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// ExportConfig sets CLI export and history behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
	HistorySize   int `mapstructure:"history_size"`
}

// TokenConfig declares one watched token with its threshold ladders.
// Thresholds are decimal strings in declared ladder order.
type TokenConfig struct {
	Address    string   `mapstructure:"address"`
	Name       string   `mapstructure:"name"`
	DexPair    string   `mapstructure:"dex_pair"`
	AlertsUp   []string `mapstructure:"alerts_up"`
	AlertsDown []string `mapstructure:"alerts_down"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TOKENWATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tokenwatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("graph.endpoint", "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v2")
	v.SetDefault("graph.request_timeout", "10s")
	v.SetDefault("graph.user_agent", "tokenwatcher/1.0")

	v.SetDefault("sampler.reference_poll_interval", "3s")
	v.SetDefault("sampler.token_poll_interval", "30s")
	v.SetDefault("sampler.startup_delay", "0s")

	v.SetDefault("alerting.sound_enabled", false)
	v.SetDefault("alerting.dispatch_timeout", "10s")
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.kafka.enabled", false)
	v.SetDefault("alerting.kafka.topic", "token-alerts")
	v.SetDefault("alerting.kafka.write_timeout", "10s")

	v.SetDefault("export.max_data_points", 100000)
	v.SetDefault("export.history_size", 2880)
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

// Validate performs basic sanity checks on the configuration values.
// Anything caught here halts startup; the engine never runs on a
// half-valid rule set.
func (c *Config) Validate() error {
	if c.Sampler.ReferencePollInterval <= 0 {
		return fmt.Errorf("sampler.reference_poll_interval must be greater than zero")
	}
	if c.Sampler.TokenPollInterval <= 0 {
		return fmt.Errorf("sampler.token_poll_interval must be greater than zero")
	}
	if c.Graph.Endpoint == "" {
		return fmt.Errorf("graph.endpoint is required")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Export.HistorySize <= 0 {
		return fmt.Errorf("export.history_size must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	if c.Alerting.Kafka.Enabled {
		if len(c.Alerting.Kafka.Brokers) == 0 {
			return fmt.Errorf("alerting.kafka.brokers is required when kafka is enabled")
		}
		if c.Alerting.Kafka.Topic == "" {
			return fmt.Errorf("alerting.kafka.topic is required when kafka is enabled")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
