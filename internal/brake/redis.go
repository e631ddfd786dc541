package brake

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore keeps brake state in redis so every worker observes an engaged
// brake immediately. One hash per principal plus an in-flight counter; the
// enforcement fast path is a single EXISTS.
type RedisStore struct {
	cli    *redis.Client
	settle time.Duration
	now    func() time.Time
}

func NewRedisStore(url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("brake: redis parse url: %w", err)
	}
	return &RedisStore{cli: redis.NewClient(opt), settle: DefaultSettleWindow, now: time.Now}, nil
}

func (s *RedisStore) WithSettleWindow(d time.Duration) *RedisStore { s.settle = d; return s }

func (s *RedisStore) Close() error { return s.cli.Close() }

func brakeKey(principal string) string { return "brake:" + principal }
func tasksKey(principal string) string { return "brake:tasks:" + principal }

func (s *RedisStore) Activate(ctx context.Context, principal string) (Status, error) {
	key := brakeKey(principal)
	// HSETNX keeps the original activation timestamp when called twice.
	if err := s.cli.HSetNX(ctx, key, "activated_at", s.now().Unix()).Err(); err != nil {
		return Status{}, fmt.Errorf("brake: activate %s: %w", principal, err)
	}
	return s.Status(ctx, principal)
}

func (s *RedisStore) Resume(ctx context.Context, principal string) error {
	if err := s.cli.Del(ctx, brakeKey(principal)).Err(); err != nil {
		return fmt.Errorf("brake: resume %s: %w", principal, err)
	}
	return nil
}

func (s *RedisStore) Status(ctx context.Context, principal string) (Status, error) {
	v, err := s.cli.HGet(ctx, brakeKey(principal), "activated_at").Result()
	if err == redis.Nil {
		return Status{State: StateRunning}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("brake: status %s: %w", principal, err)
	}
	unix, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return Status{}, fmt.Errorf("brake: status %s: bad activated_at %q", principal, v)
	}
	at := time.Unix(unix, 0)
	n := 0
	if tv, err := s.cli.Get(ctx, tasksKey(principal)).Result(); err == nil {
		if parsed, perr := strconv.Atoi(tv); perr == nil && parsed > 0 {
			n = parsed
		}
	}
	return Status{
		State:       deriveState(at, s.now(), s.settle, n),
		ActivatedAt: at,
		PausedTasks: n,
	}, nil
}

func (s *RedisStore) Active(ctx context.Context, principal string) (bool, error) {
	n, err := s.cli.Exists(ctx, brakeKey(principal)).Result()
	if err != nil {
		// Callers must fail closed on this error; do not mask it.
		return false, fmt.Errorf("brake: active %s: %w", principal, err)
	}
	return n > 0, nil
}

func (s *RedisStore) TaskStarted(ctx context.Context, principal string) error {
	return s.cli.Incr(ctx, tasksKey(principal)).Err()
}

func (s *RedisStore) TaskFinished(ctx context.Context, principal string) error {
	n, err := s.cli.Decr(ctx, tasksKey(principal)).Result()
	if err != nil {
		return err
	}
	if n < 0 {
		// Gauge drifted (e.g. resume cleared state mid-action); clamp.
		return s.cli.Set(ctx, tasksKey(principal), 0, 0).Err()
	}
	return nil
}
