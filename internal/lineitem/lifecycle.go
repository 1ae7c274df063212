package lineitem

import (
	"fmt"
	"strings"

	"github.com/jmehdipour/rate-table-editor/internal/apperr"
	"github.com/jmehdipour/rate-table-editor/internal/dateconv"
	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/shopspring/decimal"
)

// CanTransition reports whether a line item in from may move to to.
// OBSOLETE is terminal.
func CanTransition(from, to model.LineItemState) bool {
	if !to.Valid() {
		return false
	}
	switch from {
	case model.StateDeployed, model.StateInactive:
		return true
	case model.StateObsolete:
		return to == model.StateObsolete
	default:
		return false
	}
}

func ValidateTransition(from, to model.LineItemState) error {
	if !CanTransition(from, to) {
		return apperr.New(apperr.ErrPolicyViolation, "state", fmt.Sprintf("cannot move line item from %s to %s", from, to))
	}
	return nil
}

// IsDestructive reports whether the transition cannot be undone and so
// needs explicit confirmation before it is applied.
func IsDestructive(from, to model.LineItemState) bool {
	return to == model.StateObsolete && from != model.StateObsolete
}

// ValidateQuantity accepts quantity only when it is strictly greater than used.
func ValidateQuantity(item model.LineItem, quantity int64) error {
	if !decimal.NewFromInt(quantity).GreaterThan(item.Used) {
		return apperr.New(apperr.ErrInvalidQuantity, "quantity",
			fmt.Sprintf("quantity %d must be greater than used %s", quantity, item.Used.String()))
	}
	return nil
}

// ResolveEnd returns PermanentEpoch when permanent is set, ignoring picked;
// otherwise picked (YYYY-MM-DD) converted to epoch ms.
func ResolveEnd(permanent bool, picked string, dates dateconv.Codec) (int64, error) {
	if permanent {
		return dateconv.PermanentEpoch, nil
	}
	ms, err := dates.EpochMillis(picked, dateconv.DateLayout)
	if err != nil {
		return 0, apperr.New(apperr.ErrFormat, "end", fmt.Sprintf("%q is not a YYYY-MM-DD date", picked))
	}
	return ms, nil
}

// CanDelete allows deletion only for OBSOLETE line items.
func CanDelete(item model.LineItem) error {
	if item.State != model.StateObsolete {
		return apperr.New(apperr.ErrPolicyViolation, "state",
			fmt.Sprintf("line item %s is %s; only OBSOLETE line items can be deleted", item.ActivationID, item.State))
	}
	return nil
}

// Edit is a set of proposed changes to an existing line item. Zero values
// leave the corresponding field untouched.
type Edit struct {
	State           model.LineItemState
	Quantity        *int64
	Permanent       bool
	EndDate         string
	RateTableSeries *string
}

// Apply validates e against item and returns the edited copy. item is not
// modified; on error nothing is applied. The resulting quantity must exceed
// used even when e leaves it unchanged.
func Apply(item model.LineItem, e Edit, dates dateconv.Codec) (model.LineItem, error) {
	out := item

	if e.State != "" {
		if err := ValidateTransition(item.State, e.State); err != nil {
			return item, err
		}
		out.State = e.State
	}

	if e.Quantity != nil {
		out.Quantity = *e.Quantity
	}
	// every submitted item must keep quantity above used, changed or not
	if err := ValidateQuantity(item, out.Quantity); err != nil {
		return item, err
	}

	if e.Permanent || e.EndDate != "" {
		end, err := ResolveEnd(e.Permanent, e.EndDate, dates)
		if err != nil {
			return item, err
		}
		out.End = end
	}

	if e.RateTableSeries != nil {
		series := strings.TrimSpace(*e.RateTableSeries)
		if series == "" {
			return item, apperr.New(apperr.ErrFormat, "rateTableSeries", "rate table series is required")
		}
		out.Attributes.RateTableSeries = series
	}

	return out, nil
}

// Find returns the line item with activationID.
func Find(items []model.LineItem, activationID string) (model.LineItem, bool) {
	for _, it := range items {
		if it.ActivationID == activationID {
			return it, true
		}
	}
	return model.LineItem{}, false
}
