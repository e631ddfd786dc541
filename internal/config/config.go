// Package config is the typed view of the service configuration, loaded
// through viper with GATING_* environment overrides.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/cli/common"
)

type Config struct {
	Log common.LogConfig `mapstructure:"log"`

	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`

	Redis struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"redis"`

	Brake struct {
		// SettleSeconds is the pausing->paused observation window.
		SettleSeconds int `mapstructure:"settle_seconds"`
	} `mapstructure:"brake"`

	Approvals struct {
		TTLHours     int `mapstructure:"ttl_hours"`
		SweepMinutes int `mapstructure:"sweep_minutes"`
	} `mapstructure:"approvals"`

	Events struct {
		Backend      string   `mapstructure:"backend"` // log|redis|kafka|noop
		RedisURL     string   `mapstructure:"redis_url"`
		RedisStream  string   `mapstructure:"redis_stream"`
		RedisMaxLen  int64    `mapstructure:"redis_maxlen"`
		KafkaBrokers []string `mapstructure:"kafka_brokers"`
		KafkaTopic   string   `mapstructure:"kafka_topic"`
	} `mapstructure:"events"`

	Policy struct {
		// File enables the YAML restriction policy source with hot reload;
		// empty means rules come from the database.
		File string `mapstructure:"file"`
	} `mapstructure:"policy"`

	HTTP struct {
		Addr string `mapstructure:"addr"`
		// Tokens maps bearer tokens to admin subjects for the control surface.
		Tokens map[string]string `mapstructure:"tokens"`
	} `mapstructure:"http"`

	RBAC struct {
		ModelFile  string `mapstructure:"model_file"`
		PolicyFile string `mapstructure:"policy_file"`
	} `mapstructure:"rbac"`

	Audit struct {
		ChainFile string `mapstructure:"chain_file"`
	} `mapstructure:"audit"`

	Telemetry struct {
		Enabled       bool    `mapstructure:"enabled"`
		ServiceName   string  `mapstructure:"service_name"`
		Endpoint      string  `mapstructure:"endpoint"`
		Insecure      bool    `mapstructure:"insecure"`
		SamplingRatio float64 `mapstructure:"sampling_ratio"`
	} `mapstructure:"telemetry"`
}

// Load reads the optional config file plus GATING_* env overrides into a
// Config with defaults applied.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GATING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("brake.settle_seconds", 30)
	v.SetDefault("approvals.ttl_hours", 48)
	v.SetDefault("approvals.sweep_minutes", 10)
	v.SetDefault("events.backend", "log")
	v.SetDefault("http.addr", ":8086")
	v.SetDefault("telemetry.service_name", "outreach-gating")
	v.SetDefault("telemetry.sampling_ratio", 1.0)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
