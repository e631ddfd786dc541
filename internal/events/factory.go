package events

import (
	"fmt"
	"log/slog"
)

// Config selects the event backend: log (default), redis, kafka, noop.
type Config struct {
	Backend      string
	RedisURL     string
	RedisStream  string
	RedisMaxLen  int64
	KafkaBrokers []string
	KafkaTopic   string
}

// New builds a Publisher from config. Unknown backends fail loudly instead
// of silently dropping notifications.
func New(cfg Config) (Publisher, error) {
	switch cfg.Backend {
	case "", "log":
		return NewLog(), nil
	case "noop":
		return NewNoop(), nil
	case "redis":
		url := cfg.RedisURL
		if url == "" {
			url = "redis://localhost:6379/0"
		}
		return NewRedis(url, cfg.RedisStream, cfg.RedisMaxLen)
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			slog.Warn("events: kafka backend without brokers, defaulting to localhost:9092")
			cfg.KafkaBrokers = []string{"localhost:9092"}
		}
		return NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	}
	return nil, fmt.Errorf("events: unsupported backend %q", cfg.Backend)
}
