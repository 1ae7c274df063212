package ratetable

import (
	"sort"

	"github.com/jmehdipour/rate-table-editor/internal/dateconv"
	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/shopspring/decimal"
)

// ToListing renders the epoch fields of s for display. Unset or zero dates
// stay empty; dates the codec cannot render become dateconv.InvalidDate.
func ToListing(s model.RateTableSeries, dates dateconv.Codec) model.RateTableListing {
	return model.RateTableListing{
		Series:        s.Series,
		Version:       s.Version,
		EffectiveFrom: renderEpoch(s.EffectiveFrom, dates),
		Created:       renderEpoch(s.Created, dates),
		Items:         s.Items,
	}
}

func ToListings(series []model.RateTableSeries, dates dateconv.Codec) []model.RateTableListing {
	out := make([]model.RateTableListing, 0, len(series))
	for _, s := range series {
		out = append(out, ToListing(s, dates))
	}
	return out
}

func renderEpoch(ms *int64, dates dateconv.Codec) string {
	if ms == nil || *ms == 0 {
		return ""
	}
	s, _ := dates.Format(*ms)
	return s
}

// SortByIdentity orders series by name then numeric version, both descending.
// Versions that do not parse sort as zero.
func SortByIdentity(series []model.RateTableSeries) {
	sort.SliceStable(series, func(i, j int) bool {
		if series[i].Series != series[j].Series {
			return series[i].Series > series[j].Series
		}
		return versionOrZero(series[i].Version).GreaterThan(versionOrZero(series[j].Version))
	})
}

// Find returns the series with the given identity.
func Find(series []model.RateTableSeries, name, version string) (model.RateTableSeries, bool) {
	for _, s := range series {
		if s.Series == name && s.Version == version {
			return s, true
		}
	}
	return model.RateTableSeries{}, false
}

// SeriesNames lists distinct series names in first-seen order.
func SeriesNames(series []model.RateTableSeries) []string {
	seen := make(map[string]struct{}, len(series))
	names := make([]string, 0, len(series))
	for _, s := range series {
		if _, ok := seen[s.Series]; ok {
			continue
		}
		seen[s.Series] = struct{}{}
		names = append(names, s.Series)
	}
	return names
}

func versionOrZero(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}
