package ratetable

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmehdipour/rate-table-editor/internal/apperr"
	"github.com/jmehdipour/rate-table-editor/internal/dateconv"
	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/shopspring/decimal"
)

// ErrAmbiguousVersion is returned when two historic entries of one series
// carry numerically equal versions, e.g. "2" and "2.0".
var ErrAmbiguousVersion = errors.New("ambiguous historic version")

// Filter keeps every series effective at or after now, plus the highest
// version of each series that is already in effect. The result is sorted by
// series name, descending.
//
// An effective date that does not parse counts as epoch 0, i.e. historic.
func Filter(listings []model.RateTableListing, now time.Time, dates dateconv.Codec) ([]model.RateTableListing, error) {
	nowMs := now.UnixMilli()

	out := make([]model.RateTableListing, 0, len(listings))
	latest := make(map[string]int) // series -> index in historic
	historic := make([]model.RateTableListing, 0)
	versions := make([]decimal.Decimal, 0)

	for _, l := range listings {
		if effectiveEpoch(l.EffectiveFrom, dates) >= nowMs {
			out = append(out, l)
			continue
		}

		v, err := decimal.NewFromString(l.Version)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrFormat, "version", fmt.Errorf("series %s: %w", l.Series, err))
		}

		idx, ok := latest[l.Series]
		if !ok {
			latest[l.Series] = len(historic)
			historic = append(historic, l)
			versions = append(versions, v)
			continue
		}

		switch v.Cmp(versions[idx]) {
		case 1:
			historic[idx] = l
			versions[idx] = v
		case 0:
			return nil, apperr.Wrap(apperr.ErrFormat, "version",
				fmt.Errorf("%w: %s v%s and v%s", ErrAmbiguousVersion, l.Series, historic[idx].Version, l.Version))
		}
	}

	out = append(out, historic...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Series > out[j].Series })

	return out, nil
}

// effectiveEpoch accepts both the full listing form and a bare date.
func effectiveEpoch(s string, dates dateconv.Codec) int64 {
	if ms, err := dates.EpochMillis(s, dateconv.DateTimeLayout); err == nil {
		return ms
	}
	ms, _ := dates.EpochMillis(s, dateconv.DateLayout)
	return ms
}
