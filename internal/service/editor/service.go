package editor

import (
	"context"
	"errors"
	"time"

	"github.com/jmehdipour/rate-table-editor/internal/cache"
	"github.com/jmehdipour/rate-table-editor/internal/dateconv"
	"github.com/jmehdipour/rate-table-editor/internal/events"
	"github.com/jmehdipour/rate-table-editor/internal/licensing"
	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/jmehdipour/rate-table-editor/internal/ratetable"
	"github.com/jmehdipour/rate-table-editor/internal/session"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a series, customer or line item the caller
// named is not among what was fetched.
var ErrNotFound = errors.New("not found")

// RemoteFunc returns the licensing client for an environment.
type RemoteFunc func(env model.Environment) licensing.API

type Options struct {
	Remote RemoteFunc
	Cache  cache.Store
	Events events.Publisher
	Dates  dateconv.Codec

	// ExcludedAccounts lists account id prefixes hidden from the customer
	// list, per environment. Matching ignores case.
	ExcludedAccounts map[model.Environment][]string
	InstancePageSize int

	Logger *zap.Logger
	Now    func() time.Time
}

// Service runs the editor's use cases against one licensing service. All
// per-user state lives in the session.Session passed to each call.
type Service struct {
	remote   RemoteFunc
	cache    cache.Store
	events   events.Publisher
	dates    dateconv.Codec
	codec    ratetable.TextCodec
	excluded map[model.Environment][]string
	pageSize int
	log      *zap.Logger
	now      func() time.Time
}

func New(opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}

	if opts.Events == nil {
		opts.Events = events.Nop{}
	}

	if opts.InstancePageSize <= 0 {
		opts.InstancePageSize = 500
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		remote:   opts.Remote,
		cache:    opts.Cache,
		events:   opts.Events,
		dates:    opts.Dates,
		codec:    ratetable.NewTextCodec(opts.Dates),
		excluded: opts.ExcludedAccounts,
		pageSize: opts.InstancePageSize,
		log:      opts.Logger,
		now:      opts.Now,
	}
}

func (s *Service) Dates() dateconv.Codec { return s.dates }

func (s *Service) api(sess *session.Session) licensing.API { return s.remote(sess.Env) }

// publish announces a change that already succeeded remotely. A failed
// publish is logged and never undoes the change.
func (s *Service) publish(ctx context.Context, sess *session.Session, t events.Type, payload any) {
	ev, err := events.New(t, sess.Env, s.now(), payload)
	if err != nil {
		s.log.Warn("build change event", zap.String("type", string(t)), zap.Error(err))
		return
	}

	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish change event",
			zap.String("id", ev.ID),
			zap.String("type", string(t)),
			zap.Error(err),
		)
	}
}
