package api

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTimeRange(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/architecture/current?start=2025-06-01T10:00:00Z&end=2025-06-01T11:00:00Z", nil)

	start, end, err := ParseTimeRange(r)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), start.UTC())
	require.Equal(t, time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC), end.UTC())
}

func TestParseTimeRangeAbsent(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/architecture/current", nil)

	start, end, err := ParseTimeRange(r)
	require.NoError(t, err)
	require.Nil(t, start)
	require.Nil(t, end)
}

func TestParseTimeRangeInvalid(t *testing.T) {
	r := httptest.NewRequest("GET", "/?start=yesterday", nil)
	_, _, err := ParseTimeRange(r)
	require.Error(t, err)

	r = httptest.NewRequest("GET", "/?start=2025-06-01T11:00:00Z&end=2025-06-01T10:00:00Z", nil)
	_, _, err = ParseTimeRange(r)
	require.Error(t, err)
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, 400, "missing span_id")

	require.Equal(t, 400, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"detail":"missing span_id"}`, w.Body.String())
}
