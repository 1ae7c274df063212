package licensing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmehdipour/rate-table-editor/internal/apperr"
	"github.com/jmehdipour/rate-table-editor/internal/metrics"
	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/jmehdipour/rate-table-editor/internal/util"
	"go.uber.org/zap"
)

// maxBody bounds how much of a response is kept for decoding or error text.
const maxBody = 8 << 20

// API is the part of the licensing service the editor depends on.
type API interface {
	ListRateTables(ctx context.Context) ([]model.RateTableSeries, error)
	CreateRateTable(ctx context.Context, s model.RateTableSeries) error
	DeleteRateTable(ctx context.Context, series, version string) error

	FindInstances(ctx context.Context, accountID string) ([]model.Instance, error)
	CreateInstance(ctx context.Context, inst model.Instance) (model.Instance, error)
	ListInstances(ctx context.Context, size int) ([]model.Instance, error)

	ListLineItems(ctx context.Context, instanceID string) ([]model.LineItem, error)
	UpsertLineItem(ctx context.Context, instanceID string, item model.LineItem) error
	DeleteLineItem(ctx context.Context, instanceID, activationID string) error
}

// UsageSource serves the elastic usage report.
type UsageSource interface {
	UsageReport(ctx context.Context, pastDays int) (model.UsageReport, error)
}

var (
	_ API         = (*Client)(nil)
	_ UsageSource = (*Client)(nil)
)

type Options struct {
	Site        string
	Geo         string
	Environment model.Environment
	BaseURL     string // overrides the provisioning URL derived from Site/Geo
	ReportURL   string // overrides the usage report URL derived from Site/Geo
	JWT         string
	BasicAuth   string // pre-encoded user:password for the report endpoint
	TimeoutMs   int
	Logger      *zap.Logger
}

// Client talks to one environment of the licensing service. It never retries.
type Client struct {
	baseURL   string
	reportURL string
	jwt       string
	basicAuth string
	client    *http.Client
	log       *zap.Logger
}

func NewClient(opts Options) *Client {
	if opts.TimeoutMs <= 0 {
		opts.TimeoutMs = 30000
	}

	if opts.BaseURL == "" {
		opts.BaseURL = ProvisioningURL(opts.Site, opts.Geo, opts.Environment)
	}

	if opts.ReportURL == "" {
		opts.ReportURL = ReportURL(opts.Site, opts.Geo, opts.Environment)
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		reportURL: opts.ReportURL,
		jwt:       opts.JWT,
		basicAuth: opts.BasicAuth,
		client:    &http.Client{Timeout: time.Duration(opts.TimeoutMs) * time.Millisecond},
		log:       opts.Logger,
	}
}

func host(site, geo string, env model.Environment) string {
	if env == model.EnvUAT {
		site += "-uat"
	}
	return fmt.Sprintf("https://%s.flexnetoperations.%s", site, geo)
}

// ProvisioningURL is the provisioning API root for site, geo and env.
func ProvisioningURL(site, geo string, env model.Environment) string {
	return host(site, geo, env) + "/dynamicmonetization/provisioning/api/v1.0"
}

// ReportURL is the usage report endpoint for site, geo and env.
func ReportURL(site, geo string, env model.Environment) string {
	return host(site, geo, env) + "/data/api/v1/report/usage"
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) ListRateTables(ctx context.Context) ([]model.RateTableSeries, error) {
	var out []model.RateTableSeries
	if err := c.do(ctx, "list_rate_tables", http.MethodGet, c.baseURL+"/rate-tables", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateRateTable(ctx context.Context, s model.RateTableSeries) error {
	return c.do(ctx, "create_rate_table", http.MethodPost, c.baseURL+"/rate-tables", s, nil)
}

func (c *Client) DeleteRateTable(ctx context.Context, series, version string) error {
	q := url.Values{}
	q.Set("series", series)
	q.Set("version", version)

	return c.do(ctx, "delete_rate_table", http.MethodDelete, c.baseURL+"/rate-tables?"+q.Encode(), nil, nil)
}

func (c *Client) FindInstances(ctx context.Context, accountID string) ([]model.Instance, error) {
	q := url.Values{}
	q.Set("accountId", accountID)
	q.Set("default", "true")

	var page model.InstancePage
	if err := c.do(ctx, "find_instances", http.MethodGet, c.baseURL+"/instances?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return page.Content, nil
}

func (c *Client) CreateInstance(ctx context.Context, inst model.Instance) (model.Instance, error) {
	payload := model.Instance{AccountID: inst.AccountID, ShortName: inst.ShortName}

	var out model.Instance
	if err := c.do(ctx, "create_instance", http.MethodPost, c.baseURL+"/instances", payload, &out); err != nil {
		return model.Instance{}, err
	}
	return out, nil
}

func (c *Client) ListInstances(ctx context.Context, size int) ([]model.Instance, error) {
	if size <= 0 {
		size = 500
	}

	var page model.InstancePage
	u := c.baseURL + "/instances?size=" + strconv.Itoa(size)
	if err := c.do(ctx, "list_instances", http.MethodGet, u, nil, &page); err != nil {
		return nil, err
	}
	return page.Content, nil
}

func (c *Client) ListLineItems(ctx context.Context, instanceID string) ([]model.LineItem, error) {
	var out []model.LineItem
	if err := c.do(ctx, "list_line_items", http.MethodGet, c.lineItemsURL(instanceID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertLineItem creates or replaces the line item with item.ActivationID.
func (c *Client) UpsertLineItem(ctx context.Context, instanceID string, item model.LineItem) error {
	return c.do(ctx, "upsert_line_item", http.MethodPut, c.lineItemsURL(instanceID), item, nil)
}

func (c *Client) DeleteLineItem(ctx context.Context, instanceID, activationID string) error {
	u := c.lineItemsURL(instanceID) + "/" + url.PathEscape(activationID)
	return c.do(ctx, "delete_line_item", http.MethodDelete, u, nil, nil)
}

func (c *Client) lineItemsURL(instanceID string) string {
	return c.baseURL + "/instances/" + url.PathEscape(instanceID) + "/line-items"
}

func (c *Client) UsageReport(ctx context.Context, pastDays int) (model.UsageReport, error) {
	q := url.Values{}
	q.Set("mode", "batch")
	q.Set("format", "json")
	q.Set("pastDays", strconv.Itoa(pastDays))
	q.Set("meterType", "elastic")

	var out model.UsageReport
	if err := c.do(ctx, "usage_report", http.MethodGet, c.reportURL+"?"+q.Encode(), nil, &out); err != nil {
		return model.UsageReport{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, u string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", util.New())
	if op == "usage_report" {
		req.Header.Set("Authorization", "Basic "+c.basicAuth)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.jwt)
	}

	start := time.Now()
	res, err := c.client.Do(req)
	metrics.RemoteRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RemoteRequestsTotal.WithLabelValues(op, "unreachable").Inc()
		c.log.Warn("licensing request failed",
			zap.String("op", op),
			zap.String("method", method),
			zap.Error(err),
		)
		return apperr.Wrap(apperr.ErrRemoteUnavailable, op, err)
	}

	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		metrics.RemoteRequestsTotal.WithLabelValues(op, "unreachable").Inc()
		return apperr.Wrap(apperr.ErrRemoteUnavailable, op, fmt.Errorf("read response: %w", err))
	}

	c.log.Debug("licensing request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", req.URL.Path),
		zap.Int("status", res.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if res.StatusCode/100 != 2 {
		kind, outcome := apperr.ErrRemoteUnavailable, "failed"
		if res.StatusCode == http.StatusConflict {
			kind, outcome = apperr.ErrRemoteConflict, "conflict"
		}
		metrics.RemoteRequestsTotal.WithLabelValues(op, outcome).Inc()
		c.log.Warn("licensing request rejected",
			zap.String("op", op),
			zap.Int("status", res.StatusCode),
		)
		return apperr.Remote(kind, res.StatusCode, strings.TrimSpace(string(raw)))
	}

	metrics.RemoteRequestsTotal.WithLabelValues(op, "ok").Inc()

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Wrap(apperr.ErrFormat, op, fmt.Errorf("decode response: %w", err))
	}

	return nil
}
