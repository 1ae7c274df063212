package lineitem

import (
	"sort"

	"github.com/jmehdipour/rate-table-editor/internal/dateconv"
	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Row is the display form of a line item.
type Row struct {
	Start           string
	End             string
	Quantity        int64
	Used            decimal.Decimal // one decimal place
	PercentUsed     decimal.Decimal // one decimal place
	RateTableSeries string
	State           model.LineItemState
	Item            model.LineItem
}

// Rows renders items for display, ordered by start date.
func Rows(items []model.LineItem, dates dateconv.Codec) []Row {
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		used := it.Used.Round(1)
		rows = append(rows, Row{
			Start:           dates.DatePart(it.Start),
			End:             dates.DisplayEnd(it.End),
			Quantity:        it.Quantity,
			Used:            used,
			PercentUsed:     percent(used, it.Quantity),
			RateTableSeries: it.Attributes.RateTableSeries,
			State:           it.State,
			Item:            it,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Item.Start != rows[j].Item.Start {
			return rows[i].Item.Start < rows[j].Item.Start
		}
		return rows[i].Item.End < rows[j].Item.End
	})

	return rows
}

func percent(used decimal.Decimal, quantity int64) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return used.Div(decimal.NewFromInt(quantity)).Mul(hundred).Round(1)
}
