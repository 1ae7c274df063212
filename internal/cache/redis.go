package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/redis/go-redis/v9"
)

type RedisOpts struct {
	KeyPrefix string        // default "dmtool:rate-tables:"
	TTL       time.Duration // 0 keeps entries until overwritten
}

// RedisStore keeps the cached list under one key per environment.
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(rdb redis.Cmdable, opts RedisOpts) *RedisStore {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "dmtool:rate-tables:"
	}

	return &RedisStore{rdb: rdb, prefix: opts.KeyPrefix, ttl: opts.TTL}
}

func (s *RedisStore) Key(env model.Environment) string { return s.prefix + env.String() }

func (s *RedisStore) Save(ctx context.Context, env model.Environment, series []model.RateTableSeries) error {
	if series == nil {
		series = []model.RateTableSeries{}
	}

	b, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	if err := s.rdb.Set(ctx, s.Key(env), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.Key(env), err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, env model.Environment) ([]model.RateTableSeries, error) {
	b, err := s.rdb.Get(ctx, s.Key(env)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.Key(env), err)
	}

	var out []model.RateTableSeries
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", s.Key(env), err)
	}
	return out, nil
}
