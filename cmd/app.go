package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmehdipour/rate-table-editor/internal/cache"
	"github.com/jmehdipour/rate-table-editor/internal/config"
	"github.com/jmehdipour/rate-table-editor/internal/dateconv"
	"github.com/jmehdipour/rate-table-editor/internal/db"
	"github.com/jmehdipour/rate-table-editor/internal/events"
	"github.com/jmehdipour/rate-table-editor/internal/licensing"
	"github.com/jmehdipour/rate-table-editor/internal/logger"
	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/jmehdipour/rate-table-editor/internal/service/editor"
	"github.com/jmehdipour/rate-table-editor/internal/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// app is everything a command needs, built from config.
type app struct {
	cfg    config.Config
	sess   *session.Session
	editor *editor.Service
	remote func(model.Environment) *licensing.Client
	redis  *redis.Client

	closers []func()
}

func bootstrap(ctx context.Context, g *globalFlags) (*app, error) {
	cfg, err := config.Load(g.cfgPath, g.profile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if g.env != "" {
		if _, ok := model.ParseEnvironment(g.env); !ok {
			return nil, fmt.Errorf("--env must be prod or uat, got %q", g.env)
		}
		cfg.Environment = g.env
	}

	if err := logger.Init(logger.Options{
		Level:       cfg.Log.Level,
		Encoding:    cfg.Log.Encoding,
		OutputPaths: cfg.Log.OutputPaths,
	}); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	loc, err := dateconv.LoadLocation(cfg.Dates.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Dates.Timezone, err)
	}

	a := &app{cfg: cfg, sess: session.New(cfg.Env())}
	a.closers = append(a.closers, logger.Sync)

	a.remote = clientsFor(cfg.Remote, logger.Log)

	store, err := a.cacheStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	var pub events.Publisher = events.Nop{}
	if cfg.Kafka.Enabled {
		kp := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		})
		a.closers = append(a.closers, func() { _ = kp.Close() })
		pub = kp
	}

	a.editor = editor.New(editor.Options{
		Remote:           func(env model.Environment) licensing.API { return a.remote(env) },
		Cache:            store,
		Events:           pub,
		Dates:            dateconv.New(loc),
		ExcludedAccounts: cfg.Accounts.Excluded(),
		InstancePageSize: cfg.Accounts.PageSize,
		Logger:           logger.Log,
	})

	return a, nil
}

func (a *app) cacheStore(ctx context.Context) (cache.Store, error) {
	switch a.cfg.Cache.Backend {
	case "none":
		return cache.Nop{}, nil
	case "redis":
		rdb, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return cache.NewRedisStore(rdb, cache.RedisOpts{KeyPrefix: a.cfg.Cache.KeyPrefix, TTL: a.cfg.Cache.TTL}), nil
	default:
		return cache.NewFileStore(a.cfg.Cache.Dir), nil
	}
}

func (a *app) redisClient(ctx context.Context) (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}

	rdb, err := db.NewRedisClient(ctx, db.RedisOpts{
		Addr:        a.cfg.Redis.Addr,
		Password:    a.cfg.Redis.Password,
		DB:          a.cfg.Redis.DB,
		DialTimeout: a.cfg.Redis.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	a.redis = rdb
	a.closers = append(a.closers, func() { _ = rdb.Close() })
	return rdb, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// clientsFor builds one licensing client per environment on first use.
func clientsFor(rc config.RemoteConfig, log *zap.Logger) func(model.Environment) *licensing.Client {
	var (
		mu      sync.Mutex
		clients = map[model.Environment]*licensing.Client{}
	)

	return func(env model.Environment) *licensing.Client {
		mu.Lock()
		defer mu.Unlock()

		if c, ok := clients[env]; ok {
			return c
		}
		c := licensing.NewClient(licensing.Options{
			Site:        rc.Site,
			Geo:         rc.Geo,
			Environment: env,
			BaseURL:     rc.BaseURL,
			ReportURL:   rc.ReportURL,
			JWT:         rc.JWT,
			BasicAuth:   rc.BasicAuth,
			TimeoutMs:   rc.TimeoutMs,
			Logger:      log.With(zap.String("env", env.String())),
		})
		clients[env] = c
		return c
	}
}

// blockEditor serves the text-only operations that need no config.
func blockEditor() *editor.Service {
	return editor.New(editor.Options{Dates: dateconv.New(nil)})
}
