package model

import "github.com/shopspring/decimal"

// The licensing API sends and expects rates and usage as JSON numbers.
func init() { decimal.MarshalJSONWithoutQuotes = true }

// RateTableSeries is one posted version of a named rate table.
// (Series, Version) identifies it; a new version is a new entity.
type RateTableSeries struct {
	Series        string          `json:"series"`
	Version       string          `json:"version"`
	EffectiveFrom *int64          `json:"effectiveFrom,omitempty"` // epoch ms
	Created       *int64          `json:"created,omitempty"`       // epoch ms
	Items         []RateTableItem `json:"items"`
}

type RateTableItem struct {
	Name    string          `json:"name"`
	Version string          `json:"version"`
	Rate    decimal.Decimal `json:"rate"`
}

// RateTableListing is the display form of a series: dates already rendered
// as strings. It is what the local cache holds and what the picker shows.
type RateTableListing struct {
	Series        string          `json:"series"`
	Version       string          `json:"version"`
	EffectiveFrom string          `json:"effectiveFrom"`
	Created       string          `json:"created"`
	Items         []RateTableItem `json:"items"`
}

// Label is the picker text, "Gold - v2".
func (l RateTableListing) Label() string {
	return l.Series + " - v" + l.Version
}
