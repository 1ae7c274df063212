package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jmehdipour/rate-table-editor/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with args and returns stdout and stderr.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(append([]string{"--no-color"}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)

	err := root.Execute()
	return out.String(), errOut.String(), err
}

// writeConfig points the tool at baseURL with a file cache under a temp dir.
func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "dmtool.yaml")
	body := fmt.Sprintf(`log:
  level: error
dates:
  timezone: UTC
remote:
  base_url: %s
  jwt: test-token
cache:
  dir: %s
`, baseURL, dir)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

type recorded struct {
	mu   sync.Mutex
	reqs []string
}

func (r *recorded) add(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req.Method+" "+req.URL.RequestURI())
}

func (r *recorded) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reqs...)
}

func TestRateTablesList(t *testing.T) {
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"series":"Gold","version":"1","effectiveFrom":1704067200000,"items":[{"name":"Basic","version":"1.0","rate":5}]},
			{"series":"Gold","version":"2","effectiveFrom":1735689600000,"items":[]}
		]`))
	}))
	defer srv.Close()

	cfg := writeConfig(t, srv.URL)
	out, _, err := run(t, "", "--config", cfg, "rate-tables", "list")
	require.NoError(t, err)

	assert.Equal(t, []string{"GET /rate-tables"}, rec.all())
	assert.Contains(t, out, "SERIES")
	assert.Contains(t, out, "2024-01-01 00:00:00")
	assert.Less(t, strings.Index(out, "2025-01-01"), strings.Index(out, "2024-01-01"))

	_, err = os.Stat(filepath.Join(filepath.Dir(cfg), "rate_tables.prod.json"))
	require.NoError(t, err)
}

func TestRateTablesPostConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"exists"}`))
	}))
	defer srv.Close()

	block := "Series Name:\t\tGold\nSeries Version:\t\t2\n"
	_, _, err := run(t, block, "--config", writeConfig(t, srv.URL), "rate-tables", "post", "-")
	require.ErrorIs(t, err, apperr.ErrRemoteConflict)
	assert.Contains(t, apperr.UserMessage(err), "already exists")
}

func TestRateTablesBump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gold.txt")
	require.NoError(t, os.WriteFile(path, []byte("Series Name:\t\tGold\nSeries Version:\t\t4\n"), 0o644))

	out, _, err := run(t, "", "rate-tables", "bump", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Series Version:\t\t5\n")

	_, _, err = run(t, "", "rate-tables", "bump", "-w", path)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Series Version:\t\t5\n")
}

func TestRateTablesDeleteDeclined(t *testing.T) {
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r)
	}))
	defer srv.Close()

	_, stderr, err := run(t, "n\n", "--config", writeConfig(t, srv.URL), "rate-tables", "delete", "Gold", "2")
	require.ErrorIs(t, err, errAborted)
	assert.Contains(t, stderr, "Delete rate table Gold v2 in prod?")
	assert.Empty(t, rec.all())
}

func TestLineItemsDeleteRequiresObsolete(t *testing.T) {
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/instances":
			_, _ = w.Write([]byte(`{"content":[{"id":"inst-1","accountId":"ACME","shortName":"Acme"}]}`))
		case r.URL.Path == "/instances/inst-1/line-items":
			_, _ = w.Write([]byte(`[{"activationId":"a-1","state":"DEPLOYED","quantity":10,"used":1,"start":0,"end":253402300799999}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	_, _, err := run(t, "", "--config", writeConfig(t, srv.URL), "line-items", "delete", "ACME", "a-1", "--yes")
	require.ErrorIs(t, err, apperr.ErrPolicyViolation)
	for _, r := range rec.all() {
		assert.False(t, strings.HasPrefix(r, http.MethodDelete), r)
	}
}

func TestLineItemsEditRejectsUnknownState(t *testing.T) {
	_, _, err := run(t, "", "line-items", "edit", "ACME", "a-1", "--state", "RETIRED")
	require.ErrorIs(t, err, apperr.ErrFormat)
	assert.NotErrorIs(t, err, apperr.ErrPolicyViolation)
	assert.Contains(t, apperr.UserMessage(err), `unknown state "RETIRED"`)
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, apperr.New(apperr.ErrInvalidQuantity, "quantity", "quantity must be greater than tokens used"))
	assert.Contains(t, buf.String(), "You cannot reduce the token amount")

	buf.Reset()
	printError(&buf, errors.New("plain"))
	assert.Contains(t, buf.String(), "plain")
}
