package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmehdipour/rate-table-editor/internal/apperr"
	"github.com/jmehdipour/rate-table-editor/internal/cache"
	"github.com/jmehdipour/rate-table-editor/internal/events"
	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/jmehdipour/rate-table-editor/internal/ratetable"
	"github.com/jmehdipour/rate-table-editor/internal/session"
	"go.uber.org/zap"
)

// RateTables is the outcome of a list.
type RateTables struct {
	Listings  []model.RateTableListing
	FromCache bool // the service was unreachable and the cached list was used
	Example   bool // the service had none and the example series was offered
}

// LoadRateTables fetches every series, caches the list and stores it in the
// session. When filtered is set only current/future entries and the latest
// historic version per series are returned. If the service cannot be reached
// the last cached list for the environment is used instead.
func (s *Service) LoadRateTables(ctx context.Context, sess *session.Session, filtered bool) (RateTables, error) {
	var out RateTables

	series, err := s.api(sess).ListRateTables(ctx)
	switch {
	case err == nil:
		if len(series) == 0 {
			series = []model.RateTableSeries{ratetable.Example()}
			out.Example = true
		}
		ratetable.SortByIdentity(series)
		if cerr := s.cache.Save(ctx, sess.Env, series); cerr != nil {
			s.log.Warn("save rate table cache", zap.String("env", sess.Env.String()), zap.Error(cerr))
		}

	case unreachable(err):
		cached, cerr := s.cache.Load(ctx, sess.Env)
		if cerr != nil {
			if !errors.Is(cerr, cache.ErrEmpty) {
				s.log.Warn("load rate table cache", zap.Error(cerr))
			}
			return RateTables{}, fmt.Errorf("list rate tables: %w", err)
		}
		s.log.Warn("licensing service unavailable, using cached rate tables", zap.Error(err))
		series = cached
		out.FromCache = true

	default:
		return RateTables{}, fmt.Errorf("list rate tables: %w", err)
	}

	sess.Series = series
	sess.FromCache = out.FromCache

	listings := ratetable.ToListings(series, s.dates)
	if filtered {
		listings, err = ratetable.Filter(listings, s.now(), s.dates)
		if err != nil {
			return RateTables{}, fmt.Errorf("filter rate tables: %w", err)
		}
	}
	out.Listings = listings

	return out, nil
}

// unreachable reports a network failure: the service gave no HTTP answer.
func unreachable(err error) bool {
	var e *apperr.Error
	return errors.As(err, &e) && e.Kind == apperr.ErrRemoteUnavailable && e.Status == 0
}

func (s *Service) ensureSeries(ctx context.Context, sess *session.Session) error {
	if len(sess.Series) > 0 {
		return nil
	}
	_, err := s.LoadRateTables(ctx, sess, false)
	return err
}

// RenderRateTable returns the text block of one loaded series version.
func (s *Service) RenderRateTable(ctx context.Context, sess *session.Session, series, version string) (string, error) {
	if err := s.ensureSeries(ctx, sess); err != nil {
		return "", err
	}

	rt, ok := ratetable.Find(sess.Series, series, version)
	if !ok {
		return "", fmt.Errorf("rate table %s v%s: %w", series, version, ErrNotFound)
	}
	return s.codec.Encode(rt), nil
}

// EditorBlock is RenderRateTable prepared for editing: the read-only
// Created Date and the separator line are dropped.
func (s *Service) EditorBlock(ctx context.Context, sess *session.Session, series, version string) (string, error) {
	block, err := s.RenderRateTable(ctx, sess, series, version)
	if err != nil {
		return "", err
	}
	return ratetable.EditorCopy(block), nil
}

// Posted is the outcome of PostRateTable.
type Posted struct {
	Series  model.RateTableSeries
	Dropped []string // item lines that were ignored
}

// PostRateTable decodes an edited block and creates it as a new series
// version. The Created date is assigned by the service and never sent.
func (s *Service) PostRateTable(ctx context.Context, sess *session.Session, block string) (Posted, error) {
	draft := s.codec.Decode(block)
	rt, err := draft.Complete()
	if err != nil {
		return Posted{}, err
	}
	rt.Created = nil

	if len(draft.Dropped) > 0 {
		s.log.Warn("ignored rate table lines",
			zap.String("series", rt.Series),
			zap.Strings("lines", draft.Dropped),
		)
	}

	if err := s.api(sess).CreateRateTable(ctx, rt); err != nil {
		if errors.Is(err, apperr.ErrRemoteConflict) {
			return Posted{}, &apperr.Error{
				Kind:    apperr.ErrRemoteConflict,
				Status:  409,
				Message: "Rate Table with the specified Series and Version already exists",
				Err:     err,
			}
		}
		return Posted{}, fmt.Errorf("post rate table %s v%s: %w", rt.Series, rt.Version, err)
	}

	s.log.Info("rate table posted",
		zap.String("env", sess.Env.String()),
		zap.String("series", rt.Series),
		zap.String("version", rt.Version),
	)
	s.publish(ctx, sess, events.RateTableCreated, rt)

	// the next list picks up the server's copy with its Created date
	sess.Series = nil

	return Posted{Series: rt, Dropped: draft.Dropped}, nil
}

// DeleteRateTable removes one series version. The service refuses with a
// conflict when that version is already in effect.
func (s *Service) DeleteRateTable(ctx context.Context, sess *session.Session, series, version string) error {
	if err := s.api(sess).DeleteRateTable(ctx, series, version); err != nil {
		if errors.Is(err, apperr.ErrRemoteConflict) {
			return &apperr.Error{
				Kind:    apperr.ErrRemoteConflict,
				Status:  409,
				Message: "Rate Table is already in effect and cannot be deleted",
				Err:     err,
			}
		}
		return fmt.Errorf("delete rate table %s v%s: %w", series, version, err)
	}

	sess.RemoveSeries(series, version)
	s.log.Info("rate table deleted",
		zap.String("env", sess.Env.String()),
		zap.String("series", series),
		zap.String("version", version),
	)
	s.publish(ctx, sess, events.RateTableDeleted, map[string]string{"series": series, "version": version})

	return nil
}

// RateTableNames lists the distinct series names available for entitlements.
func (s *Service) RateTableNames(ctx context.Context, sess *session.Session) ([]string, error) {
	if err := s.ensureSeries(ctx, sess); err != nil {
		return nil, err
	}
	return ratetable.SeriesNames(sess.Series), nil
}

// Bump increments the Series Version of block.
func (s *Service) Bump(block string) (string, error) {
	out, ok := ratetable.IncrementVersion(block)
	if !ok {
		return block, apperr.New(apperr.ErrFormat, ratetable.LabelSeriesVersion, "block has no Series Version line")
	}
	return out, nil
}

// Restamp sets the Start Date of block to date, or today when date is zero.
func (s *Service) Restamp(block string, date time.Time) (string, error) {
	if date.IsZero() {
		date = s.now()
	}

	out, ok := ratetable.RestampStartDate(block, date.In(s.dates.Location()))
	if !ok {
		return block, apperr.New(apperr.ErrFormat, ratetable.LabelStartDate, "block has no Start Date line")
	}
	return out, nil
}
