package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listRequest(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func TestParseListOptsDefaults(t *testing.T) {
	opts := parseListOpts(listRequest("/api/audit"))
	assert.Equal(t, 50, opts.Limit)
	assert.Zero(t, opts.Offset)
	assert.Nil(t, opts.Since)
	assert.Nil(t, opts.Until)
}

func TestParseListOptsPagination(t *testing.T) {
	opts := parseListOpts(listRequest("/api/audit?limit=25&offset=100"))
	assert.Equal(t, 25, opts.Limit)
	assert.Equal(t, 100, opts.Offset)

	opts = parseListOpts(listRequest("/api/audit?limit=9999"))
	assert.Equal(t, 500, opts.Limit, "limit is clamped")

	opts = parseListOpts(listRequest("/api/audit?limit=-1&offset=-1"))
	assert.Equal(t, 50, opts.Limit, "out-of-range values fall back to defaults")
	assert.Zero(t, opts.Offset)
}

func TestParseListOptsTimeWindow(t *testing.T) {
	opts := parseListOpts(listRequest("/api/audit?since=2026-08-30T09:00:00Z&until=2026-08-30T17:00:00Z"))
	require.NotNil(t, opts.Since)
	require.NotNil(t, opts.Until)
	assert.Equal(t, time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC), opts.Since.UTC())
	assert.Equal(t, time.Date(2026, 8, 30, 17, 0, 0, 0, time.UTC), opts.Until.UTC())

	opts = parseListOpts(listRequest("/api/audit?since=yesterday"))
	assert.Nil(t, opts.Since, "unparsable timestamps are ignored")
}
