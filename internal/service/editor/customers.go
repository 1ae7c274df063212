package editor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmehdipour/rate-table-editor/internal/apperr"
	"github.com/jmehdipour/rate-table-editor/internal/events"
	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/jmehdipour/rate-table-editor/internal/session"
	"go.uber.org/zap"
)

// ListCustomers loads the customer instances of the session's environment,
// hiding excluded account prefixes. UAT lists are sorted by account id
// descending, production ascending.
func (s *Service) ListCustomers(ctx context.Context, sess *session.Session) ([]model.Instance, error) {
	all, err := s.api(sess).ListInstances(ctx, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	prefixes := s.excluded[sess.Env]
	out := make([]model.Instance, 0, len(all))
	for _, inst := range all {
		if excluded(inst.AccountID, prefixes) {
			continue
		}
		out = append(out, inst)
	}

	desc := sess.Env == model.EnvUAT
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].AccountID > out[j].AccountID
		}
		return out[i].AccountID < out[j].AccountID
	})

	sess.Customers = out
	return out, nil
}

func excluded(accountID string, prefixes []string) bool {
	id := strings.ToLower(accountID)
	for _, p := range prefixes {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" && strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}

// Registered is the outcome of RegisterCustomer.
type Registered struct {
	Instance model.Instance
	Existed  bool // the account already had a default instance
}

// RegisterCustomer creates a customer instance unless the account already
// has one, in which case the existing instance is returned.
func (s *Service) RegisterCustomer(ctx context.Context, sess *session.Session, accountID, shortName string) (Registered, error) {
	accountID = strings.TrimSpace(accountID)
	shortName = strings.TrimSpace(shortName)
	if accountID == "" {
		return Registered{}, apperr.New(apperr.ErrFormat, "accountId", "customer account id is required")
	}
	if shortName == "" {
		return Registered{}, apperr.New(apperr.ErrFormat, "shortName", "customer name is required")
	}

	api := s.api(sess)

	existing, err := api.FindInstances(ctx, accountID)
	if err != nil {
		return Registered{}, fmt.Errorf("look up customer %s: %w", accountID, err)
	}
	if len(existing) > 0 {
		return Registered{Instance: existing[0], Existed: true}, nil
	}

	inst, err := api.CreateInstance(ctx, model.Instance{AccountID: accountID, ShortName: shortName})
	if err != nil {
		return Registered{}, fmt.Errorf("register customer %s: %w", accountID, err)
	}

	s.log.Info("customer registered",
		zap.String("env", sess.Env.String()),
		zap.String("account_id", accountID),
		zap.String("instance_id", inst.ID),
	)
	s.publish(ctx, sess, events.CustomerCreated, inst)

	sess.Customers = nil

	return Registered{Instance: inst}, nil
}

// ResolveCustomer finds a customer by account id, loading the list when the
// session has none yet.
func (s *Service) ResolveCustomer(ctx context.Context, sess *session.Session, accountID string) (model.Instance, error) {
	if c, ok := sess.Customer(accountID); ok {
		return c, nil
	}

	if _, err := s.ListCustomers(ctx, sess); err != nil {
		return model.Instance{}, err
	}

	if c, ok := sess.Customer(accountID); ok {
		return c, nil
	}
	return model.Instance{}, fmt.Errorf("customer %s: %w", accountID, ErrNotFound)
}
