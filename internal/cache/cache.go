// Package cache keeps the last fetched rate-table list per environment so the
// editor can still show something when the licensing service is unreachable.
package cache

import (
	"context"
	"errors"

	"github.com/jmehdipour/rate-table-editor/internal/model"
)

// ErrEmpty is returned by Load when nothing was saved for the environment.
var ErrEmpty = errors.New("cache: nothing stored")

type Store interface {
	Save(ctx context.Context, env model.Environment, series []model.RateTableSeries) error
	Load(ctx context.Context, env model.Environment) ([]model.RateTableSeries, error)
}

// Nop stores nothing and always reports ErrEmpty.
type Nop struct{}

var _ Store = Nop{}

func (Nop) Save(context.Context, model.Environment, []model.RateTableSeries) error { return nil }

func (Nop) Load(context.Context, model.Environment) ([]model.RateTableSeries, error) {
	return nil, ErrEmpty
}
