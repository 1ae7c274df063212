package session

import (
	"testing"

	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestNewDefaultsToProd(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.EnvProd, New("").Env)
	assert.Equal(t, model.EnvUAT, New(model.EnvUAT).Env)
}

func TestSwitchEnvironmentClearsState(t *testing.T) {
	t.Parallel()

	s := New(model.EnvProd)
	s.Series = []model.RateTableSeries{{Series: "Gold", Version: "1"}}
	s.Customers = []model.Instance{{AccountID: "ACME"}}
	s.FromCache = true

	s.SwitchEnvironment(model.EnvProd)
	assert.Len(t, s.Series, 1)

	s.SwitchEnvironment(model.EnvUAT)
	assert.Equal(t, model.EnvUAT, s.Env)
	assert.Empty(t, s.Series)
	assert.Empty(t, s.Customers)
	assert.False(t, s.FromCache)
}

func TestCustomer(t *testing.T) {
	t.Parallel()

	s := New(model.EnvProd)
	s.Customers = []model.Instance{{ID: "i-1", AccountID: "ACME"}}

	c, ok := s.Customer("ACME")
	assert.True(t, ok)
	assert.Equal(t, "i-1", c.ID)

	_, ok = s.Customer("acme")
	assert.False(t, ok)
}

func TestRemoveSeries(t *testing.T) {
	t.Parallel()

	s := New(model.EnvProd)
	s.Series = []model.RateTableSeries{
		{Series: "Gold", Version: "2"},
		{Series: "Gold", Version: "1"},
		{Series: "Silver", Version: "1"},
	}

	s.RemoveSeries("Gold", "1")
	assert.Equal(t, []model.RateTableSeries{{Series: "Gold", Version: "2"}, {Series: "Silver", Version: "1"}}, s.Series)
}
