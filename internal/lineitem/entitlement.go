package lineitem

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jmehdipour/rate-table-editor/internal/apperr"
	"github.com/jmehdipour/rate-table-editor/internal/dateconv"
	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/shopspring/decimal"
)

// EntitlementRequest is what a user fills in to grant tokens to a customer.
type EntitlementRequest struct {
	Quantity        int64
	StartDate       string // YYYY-MM-DD
	EndDate         string // YYYY-MM-DD, ignored when Permanent
	Permanent       bool
	RateTableSeries string
}

// NewEntitlement builds a DEPLOYED, unused, elastic line item with a fresh
// activation id.
func NewEntitlement(req EntitlementRequest, dates dateconv.Codec) (model.LineItem, error) {
	if req.Quantity <= 0 {
		return model.LineItem{}, apperr.New(apperr.ErrInvalidQuantity, "quantity", "token quantity must be a positive whole number")
	}

	series := strings.TrimSpace(req.RateTableSeries)
	if series == "" {
		return model.LineItem{}, apperr.New(apperr.ErrFormat, "rateTableSeries", "rate table series is required")
	}

	start, err := dates.EpochMillis(req.StartDate, dateconv.DateLayout)
	if err != nil {
		return model.LineItem{}, apperr.New(apperr.ErrFormat, "start", "start date is required (YYYY-MM-DD)")
	}

	end, err := ResolveEnd(req.Permanent, req.EndDate, dates)
	if err != nil {
		return model.LineItem{}, err
	}
	if !req.Permanent && end <= start {
		return model.LineItem{}, apperr.New(apperr.ErrFormat, "end", "End Date must be after Start Date")
	}

	return model.LineItem{
		ActivationID: uuid.NewString(),
		State:        model.StateDeployed,
		Quantity:     req.Quantity,
		Used:         decimal.Zero,
		Start:        start,
		End:          end,
		Attributes: model.LineItemAttributes{
			Elastic:         true,
			RateTableSeries: series,
		},
	}, nil
}
