package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Collect  CollectConfig  `mapstructure:"collect"`
	News     NewsConfig     `mapstructure:"news"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// SourceConfig tunes the AKTools gateway client and its retry behavior.
type SourceConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// CollectConfig tunes request pacing and collection windows.
type CollectConfig struct {
	BaseDelay   time.Duration `mapstructure:"base_delay"`   // minimum pause before each source call
	RandomDelay time.Duration `mapstructure:"random_delay"` // upper bound of the jitter added to base_delay
	BatchDelay  time.Duration `mapstructure:"batch_delay"`  // extra pause after every batch_size calls
	BatchSize   int           `mapstructure:"batch_size"`

	HistoryDays   int `mapstructure:"history_days"`   // fallback window when a symbol has no stored quotes
	CalendarYears int `mapstructure:"calendar_years"` // how far back the trading calendar is kept
}

type NewsConfig struct {
	MaxProcessCount int `mapstructure:"max_process_count"` // cap per collection run
	RetentionDays   int `mapstructure:"retention_days"`
}

// NotifyConfig configures the completion webhook. An empty URL disables it.
type NotifyConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// It reads config.yaml when present and overrides with environment
// variables (e.g. SOURCE_BASE_URL, POSTGRES_PASSWORD). Configuration is
// read once at process start; there is no hot reload.
func Load() *Config {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	// Support environment variables with dot notation (e.g., SOURCE_BASE_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("failed to read config: %v", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.base_url", "http://127.0.0.1:8080")
	v.SetDefault("source.timeout", "30s")
	v.SetDefault("source.retry_count", 3)
	v.SetDefault("source.retry_delay", "5s")

	v.SetDefault("collect.base_delay", "100ms")
	v.SetDefault("collect.random_delay", "200ms")
	v.SetDefault("collect.batch_delay", "2s")
	v.SetDefault("collect.batch_size", 50)
	v.SetDefault("collect.history_days", 30)
	v.SetDefault("collect.calendar_years", 5)

	v.SetDefault("news.max_process_count", 10)
	v.SetDefault("news.retention_days", 7)

	v.SetDefault("notify.timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.dbname", "akshell")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "Asia/Shanghai")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", "1h")
}
