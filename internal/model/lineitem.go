package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

type LineItemState string

const (
	StateDeployed LineItemState = "DEPLOYED"
	StateInactive LineItemState = "INACTIVE"
	StateObsolete LineItemState = "OBSOLETE"
)

func (s LineItemState) String() string { return string(s) }

func (s LineItemState) Valid() bool {
	return s == StateDeployed || s == StateInactive || s == StateObsolete
}

// ParseLineItemState normalizes input; returns (value, false) when unknown.
func ParseLineItemState(s string) (LineItemState, bool) {
	st := LineItemState(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

// LineItem is a customer's token entitlement. Quantity >= Used always holds.
type LineItem struct {
	ActivationID string             `json:"activationId"`
	State        LineItemState      `json:"state"`
	Quantity     int64              `json:"quantity"`
	Used         decimal.Decimal    `json:"used"`
	Start        int64              `json:"start"` // epoch ms
	End          int64              `json:"end"`   // epoch ms or dateconv.PermanentEpoch
	Attributes   LineItemAttributes `json:"attributes"`
}

type LineItemAttributes struct {
	Elastic         bool   `json:"elastic"`
	RateTableSeries string `json:"rateTableSeries"`
}
