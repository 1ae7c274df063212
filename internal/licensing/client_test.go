package licensing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmehdipour/rate-table-editor/internal/apperr"
	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	reqID  string
	body   []byte
}

// stub answers every request with status and body and keeps the last request.
func stub(t *testing.T, status int, body string) (*Client, *recorded) {
	t.Helper()

	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.auth = r.Header.Get("Authorization")
		rec.reqID = r.Header.Get("X-Request-ID")
		rec.body, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Options{
		BaseURL:   srv.URL + "/api/v1.0",
		ReportURL: srv.URL + "/data/api/v1/report/usage",
		JWT:       "jwt-token",
		BasicAuth: "dXNlcjpwYXNz",
	})
	return c, rec
}

func TestProvisioningURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"https://acme.flexnetoperations.com/dynamicmonetization/provisioning/api/v1.0",
		ProvisioningURL("acme", "com", model.EnvProd))
	assert.Equal(t,
		"https://acme-uat.flexnetoperations.eu/dynamicmonetization/provisioning/api/v1.0",
		ProvisioningURL("acme", "eu", model.EnvUAT))
	assert.Equal(t,
		"https://acme-uat.flexnetoperations.com/data/api/v1/report/usage",
		ReportURL("acme", "com", model.EnvUAT))
}

func TestNewClientDerivesBaseURL(t *testing.T) {
	t.Parallel()

	c := NewClient(Options{Site: "acme", Geo: "com", Environment: model.EnvUAT})
	assert.Equal(t, "https://acme-uat.flexnetoperations.com/dynamicmonetization/provisioning/api/v1.0", c.BaseURL())
}

func TestListRateTables(t *testing.T) {
	t.Parallel()

	c, rec := stub(t, http.StatusOK, `[
		{"series":"Gold","version":"2","effectiveFrom":1735689600000,"created":1735000000000,
		 "items":[{"name":"Basic","version":"1.0","rate":5}]}
	]`)

	got, err := c.ListRateTables(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/v1.0/rate-tables", rec.path)
	assert.Equal(t, "Bearer jwt-token", rec.auth)
	assert.Len(t, rec.reqID, 26)

	assert.Equal(t, "Gold", got[0].Series)
	assert.Equal(t, "2", got[0].Version)
	require.NotNil(t, got[0].EffectiveFrom)
	assert.Equal(t, int64(1735689600000), *got[0].EffectiveFrom)
	assert.True(t, got[0].Items[0].Rate.Equal(decimal.NewFromInt(5)))
}

func TestListRateTablesEmptyBody(t *testing.T) {
	t.Parallel()

	c, _ := stub(t, http.StatusOK, ``)

	got, err := c.ListRateTables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCreateRateTable(t *testing.T) {
	t.Parallel()

	c, rec := stub(t, http.StatusCreated, `{}`)

	eff := int64(1735689600000)
	err := c.CreateRateTable(context.Background(), model.RateTableSeries{
		Series:        "Gold",
		Version:       "3",
		EffectiveFrom: &eff,
		Items:         []model.RateTableItem{{Name: "Basic", Version: "1.0", Rate: decimal.RequireFromString("5.5")}},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/v1.0/rate-tables", rec.path)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(rec.body, &sent))
	assert.Equal(t, "Gold", sent["series"])
	assert.Equal(t, "3", sent["version"])
	assert.NotContains(t, sent, "created")
}

func TestCreateRateTableConflict(t *testing.T) {
	t.Parallel()

	c, _ := stub(t, http.StatusConflict, `{"message":"exists"}`)

	err := c.CreateRateTable(context.Background(), model.RateTableSeries{Series: "Gold", Version: "2"})
	require.ErrorIs(t, err, apperr.ErrRemoteConflict)
	assert.Equal(t, "409\n{\"message\":\"exists\"}", apperr.UserMessage(err))
}

func TestDeleteRateTable(t *testing.T) {
	t.Parallel()

	c, rec := stub(t, http.StatusNoContent, ``)

	require.NoError(t, c.DeleteRateTable(context.Background(), "Gold Plus", "2"))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/api/v1.0/rate-tables", rec.path)
	assert.Equal(t, "series=Gold+Plus&version=2", rec.query)
}

func TestDeleteRateTableInEffect(t *testing.T) {
	t.Parallel()

	c, _ := stub(t, http.StatusConflict, `in effect`)

	err := c.DeleteRateTable(context.Background(), "Gold", "1")
	require.ErrorIs(t, err, apperr.ErrRemoteConflict)
}

func TestServerErrorIsUnavailable(t *testing.T) {
	t.Parallel()

	c, _ := stub(t, http.StatusInternalServerError, "boom\n")

	_, err := c.ListInstances(context.Background(), 0)
	require.ErrorIs(t, err, apperr.ErrRemoteUnavailable)

	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
	assert.Equal(t, "boom", e.Message)
}

func TestUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(Options{BaseURL: base})
	_, err := c.ListRateTables(context.Background())
	require.ErrorIs(t, err, apperr.ErrRemoteUnavailable)
	assert.Contains(t, apperr.UserMessage(err), "request failed: ")
}

func TestMalformedResponse(t *testing.T) {
	t.Parallel()

	c, _ := stub(t, http.StatusOK, `{"not":"a list"}`)

	_, err := c.ListRateTables(context.Background())
	require.ErrorIs(t, err, apperr.ErrFormat)
}

func TestInstances(t *testing.T) {
	t.Parallel()

	c, rec := stub(t, http.StatusOK, `{"content":[{"id":"i-1","accountId":"ACME","shortName":"Acme"}]}`)

	got, err := c.FindInstances(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, []model.Instance{{ID: "i-1", AccountID: "ACME", ShortName: "Acme"}}, got)
	assert.Equal(t, "/api/v1.0/instances", rec.path)
	assert.Equal(t, "accountId=ACME&default=true", rec.query)

	_, err = c.ListInstances(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "size=500", rec.query)
}

func TestCreateInstance(t *testing.T) {
	t.Parallel()

	c, rec := stub(t, http.StatusCreated, `{"id":"i-9","accountId":"NEW","shortName":"New Co"}`)

	got, err := c.CreateInstance(context.Background(), model.Instance{ID: "ignored", AccountID: "NEW", ShortName: "New Co"})
	require.NoError(t, err)
	assert.Equal(t, "i-9", got.ID)
	assert.JSONEq(t, `{"accountId":"NEW","shortName":"New Co"}`, string(rec.body))
}

func TestLineItems(t *testing.T) {
	t.Parallel()

	c, rec := stub(t, http.StatusOK, `[{"activationId":"a-1","state":"DEPLOYED","quantity":100,"used":12.345,
		"start":1735689600000,"end":253402300799999,"attributes":{"elastic":true,"rateTableSeries":"Gold"}}]`)

	got, err := c.ListLineItems(context.Background(), "i/1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "/api/v1.0/instances/i/1/line-items", rec.path)
	assert.Equal(t, model.StateDeployed, got[0].State)
	assert.Equal(t, "12.345", got[0].Used.String())

	require.NoError(t, c.UpsertLineItem(context.Background(), "i-1", got[0]))
	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/api/v1.0/instances/i-1/line-items", rec.path)

	var sent model.LineItem
	require.NoError(t, json.Unmarshal(rec.body, &sent))
	assert.Equal(t, "a-1", sent.ActivationID)

	require.NoError(t, c.DeleteLineItem(context.Background(), "i-1", "a-1"))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/api/v1.0/instances/i-1/line-items/a-1", rec.path)
}

func TestUsageReport(t *testing.T) {
	t.Parallel()

	c, rec := stub(t, http.StatusOK, `{"data":[{"accountId":"ACME","used":1.5}]}`)

	got, err := c.UsageReport(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, got.Data, 1)

	assert.Equal(t, "/data/api/v1/report/usage", rec.path)
	assert.Equal(t, "Basic dXNlcjpwYXNz", rec.auth)
	assert.Equal(t, "format=json&meterType=elastic&mode=batch&pastDays=7", rec.query)
}
