// Package report shapes the elastic usage report for the dashboard.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmehdipour/rate-table-editor/internal/licensing"
	"github.com/shopspring/decimal"
)

const (
	DefaultDays = 3

	// UsageTimeLayout renders usageTime in UTC with milliseconds.
	UsageTimeLayout = "2006-01-02 15:04:05.000"
)

// Usage is what the dashboard charts: the distinct accounts and the rows.
type Usage struct {
	Accounts []string         `json:"accounts"`
	Data     []map[string]any `json:"data"`
}

type Service struct {
	src         licensing.UsageSource
	defaultDays int
}

func NewService(src licensing.UsageSource, defaultDays int) *Service {
	if defaultDays <= 0 {
		defaultDays = DefaultDays
	}
	return &Service{src: src, defaultDays: defaultDays}
}

// Fetch pulls the last days of usage and normalizes it. days <= 0 uses the
// service default.
func (s *Service) Fetch(ctx context.Context, days int) (Usage, error) {
	if days <= 0 {
		days = s.defaultDays
	}

	rep, err := s.src.UsageReport(ctx, days)
	if err != nil {
		return Usage{}, fmt.Errorf("fetch usage for %d days: %w", days, err)
	}
	return Normalize(rep.Data), nil
}

// Normalize renders usageTime (epoch ms) as a UTC timestamp, rounds used and
// meterQuantity to two places, sorts rows by usage time ascending and lists
// the distinct account ids in row order. Missing or non-numeric values count
// as zero. rows is not modified.
func Normalize(rows []map[string]any) Usage {
	type keyed struct {
		at  float64
		row map[string]any
	}

	ks := make([]keyed, 0, len(rows))
	for _, r := range rows {
		out := make(map[string]any, len(r))
		for k, v := range r {
			out[k] = v
		}

		at := number(r["usageTime"])
		out["usageTime"] = time.UnixMilli(int64(at)).UTC().Format(UsageTimeLayout)
		out["used"] = round2(r["used"])
		out["meterQuantity"] = round2(r["meterQuantity"])

		ks = append(ks, keyed{at: at, row: out})
	}

	sort.SliceStable(ks, func(i, j int) bool { return ks[i].at < ks[j].at })

	u := Usage{Accounts: []string{}, Data: make([]map[string]any, 0, len(ks))}
	seen := map[string]struct{}{}
	for _, k := range ks {
		u.Data = append(u.Data, k.row)

		acct, ok := k.row["accountId"]
		if !ok || acct == nil {
			continue
		}
		id := fmt.Sprint(acct)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		u.Accounts = append(u.Accounts, id)
	}

	return u
}

func round2(v any) decimal.Decimal {
	return decimal.NewFromFloat(number(v)).Round(2)
}

// number coerces JSON values to float64; anything else is 0.
func number(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		f, _ = x.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
