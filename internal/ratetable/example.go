package ratetable

import (
	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/shopspring/decimal"
)

// Example is offered for editing when the remote service has no rate tables yet.
func Example() model.RateTableSeries {
	return model.RateTableSeries{
		Series:  "NewSeries",
		Version: "1",
		Items: []model.RateTableItem{
			{Name: "Intermediate", Version: "1.0", Rate: decimal.NewFromInt(7)},
			{Name: "Basic", Version: "1.0", Rate: decimal.NewFromInt(5)},
			{Name: "Advanced", Version: "1.0", Rate: decimal.NewFromInt(10)},
		},
	}
}
