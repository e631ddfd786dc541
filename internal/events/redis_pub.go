package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisPublisher appends events to a redis Stream, one field holding the
// JSON body for schema flexibility.
type RedisPublisher struct {
	cli    *redis.Client
	stream string
	maxLen int64
}

func NewRedis(url, stream string, maxLen int64) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("events: redis parse url: %w", err)
	}
	if stream == "" {
		stream = "gating:events"
	}
	return &RedisPublisher{cli: redis.NewClient(opt), stream: stream, maxLen: maxLen}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{"data": string(b)},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	return p.cli.XAdd(ctx, args).Err()
}

func (p *RedisPublisher) Close() error { return p.cli.Close() }
