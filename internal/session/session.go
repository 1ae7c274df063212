// Package session holds the per-user editing state: which environment is
// targeted and what was last fetched from it.
package session

import (
	"github.com/jmehdipour/rate-table-editor/internal/model"
)

type Session struct {
	Env model.Environment

	// Series is the last fetched rate-table list, identity sorted.
	Series []model.RateTableSeries
	// FromCache is set when Series came from the local cache instead of the service.
	FromCache bool

	Customers []model.Instance
}

func New(env model.Environment) *Session {
	if !env.Valid() {
		env = model.EnvProd
	}
	return &Session{Env: env}
}

// SwitchEnvironment targets env and drops everything fetched from the
// previous environment.
func (s *Session) SwitchEnvironment(env model.Environment) {
	if env == s.Env {
		return
	}
	s.Env = env
	s.Series = nil
	s.FromCache = false
	s.Customers = nil
}

// Customer looks up a loaded customer by account id.
func (s *Session) Customer(accountID string) (model.Instance, bool) {
	for _, c := range s.Customers {
		if c.AccountID == accountID {
			return c, true
		}
	}
	return model.Instance{}, false
}

// RemoveSeries forgets a deleted series version.
func (s *Session) RemoveSeries(series, version string) {
	out := s.Series[:0]
	for _, rt := range s.Series {
		if rt.Series == series && rt.Version == version {
			continue
		}
		out = append(out, rt)
	}
	s.Series = out
}
