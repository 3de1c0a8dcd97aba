package distributor

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/grafana/dskit/user"
	"github.com/stretchr/testify/require"

	"github.com/nexarch/nexarch/modules/overrides"
	"github.com/nexarch/nexarch/modules/storage"
	"github.com/nexarch/nexarch/pkg/api"
	"github.com/nexarch/nexarch/pkg/model"
)

const testTenant = "tenant-1"

type fakeInvalidator struct {
	mtx     sync.Mutex
	tenants []string
}

func (f *fakeInvalidator) InvalidateTenant(_ context.Context, tenantID string) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.tenants = append(f.tenants, tenantID)
}

func testOverrides(t *testing.T, mutate func(*overrides.Limits)) *overrides.Overrides {
	t.Helper()
	var l overrides.Limits
	l.RegisterFlagsAndApplyDefaults(&flag.FlagSet{})
	if mutate != nil {
		mutate(&l)
	}
	o, err := overrides.NewOverrides(l)
	require.NoError(t, err)
	return o
}

func testDistributor(t *testing.T, store storage.Store, o *overrides.Overrides) (*Distributor, *fakeInvalidator) {
	t.Helper()
	var cfg Config
	cfg.RegisterFlagsAndApplyDefaults("distributor", &flag.FlagSet{})

	inv := &fakeInvalidator{}
	d := New(cfg, store, o, inv, log.NewNopLogger())
	t.Cleanup(func() {
		require.NoError(t, d.stopping(nil))
	})
	return d, inv
}

func validSpan(id string) model.Span {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return model.Span{
		TraceID:     "trace-1",
		SpanID:      id,
		ServiceName: "checkout",
		Operation:   "GET /cart",
		Kind:        model.SpanKindServer,
		StartTime:   start,
		EndTime:     start.Add(120 * time.Millisecond),
		LatencyMs:   120,
	}
}

func waitForSpans(t *testing.T, store storage.Store, tenant string, want int) []model.Span {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		spans, err := store.QuerySpans(context.Background(), tenant, storage.SpanFilter{})
		require.NoError(t, err)
		if len(spans) >= want || time.Now().After(deadline) {
			require.Len(t, spans, want)
			return spans
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPushSpansReachesStore(t *testing.T) {
	store := storage.NewInmemoryStore()
	d, inv := testDistributor(t, store, testOverrides(t, nil))

	err := d.PushSpans(context.Background(), testTenant, []model.Span{validSpan("s1"), validSpan("s2")})
	require.NoError(t, err)

	waitForSpans(t, store, testTenant, 2)
	require.Contains(t, inv.tenants, testTenant)
}

func TestPushSpansRateLimited(t *testing.T) {
	o := testOverrides(t, func(l *overrides.Limits) {
		l.IngestionRateSpans = 1
		l.IngestionBurstSpans = 1
	})
	d, _ := testDistributor(t, storage.NewInmemoryStore(), o)

	require.NoError(t, d.PushSpans(context.Background(), testTenant, []model.Span{validSpan("s1")}))
	err := d.PushSpans(context.Background(), testTenant, []model.Span{validSpan("s2")})
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestPushSpansTenantIsolation(t *testing.T) {
	store := storage.NewInmemoryStore()
	d, _ := testDistributor(t, store, testOverrides(t, nil))

	require.NoError(t, d.PushSpans(context.Background(), "tenant-a", []model.Span{validSpan("s1")}))
	require.NoError(t, d.PushSpans(context.Background(), "tenant-b", []model.Span{validSpan("s2")}))

	a := waitForSpans(t, store, "tenant-a", 1)
	require.Equal(t, "s1", a[0].SpanID)
	b := waitForSpans(t, store, "tenant-b", 1)
	require.Equal(t, "s2", b[0].SpanID)
}

func doRequest(handler http.HandlerFunc, path string, body []byte, tenant string) *httptest.ResponseRecorder {
	r := httptest.NewRequest("POST", path, bytes.NewReader(body))
	if tenant != "" {
		r = r.WithContext(user.InjectOrgID(r.Context(), tenant))
	}
	w := httptest.NewRecorder()
	handler(w, r)
	return w
}

func TestPushHandlerAccepts(t *testing.T) {
	store := storage.NewInmemoryStore()
	d, _ := testDistributor(t, store, testOverrides(t, nil))

	body, err := json.Marshal(validSpan("s1"))
	require.NoError(t, err)

	w := doRequest(d.PushHandler, api.PathIngestSpan, body, testTenant)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.JSONEq(t, `{"status":"accepted","span_id":"s1"}`, w.Body.String())

	waitForSpans(t, store, testTenant, 1)
}

func TestPushHandlerValidation(t *testing.T) {
	d, _ := testDistributor(t, storage.NewInmemoryStore(), testOverrides(t, nil))

	s := validSpan("s1")
	s.ServiceName = ""
	body, err := json.Marshal(s)
	require.NoError(t, err)

	w := doRequest(d.PushHandler, api.PathIngestSpan, body, testTenant)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"detail":"missing service_name"}`, w.Body.String())
}

func TestPushHandlerMalformedBody(t *testing.T) {
	d, _ := testDistributor(t, storage.NewInmemoryStore(), testOverrides(t, nil))

	w := doRequest(d.PushHandler, api.PathIngestSpan, []byte("{not json"), testTenant)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPushHandlerMissingTenant(t *testing.T) {
	d, _ := testDistributor(t, storage.NewInmemoryStore(), testOverrides(t, nil))

	body, err := json.Marshal(validSpan("s1"))
	require.NoError(t, err)

	w := doRequest(d.PushHandler, api.PathIngestSpan, body, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPushHandlerRateLimited(t *testing.T) {
	o := testOverrides(t, func(l *overrides.Limits) {
		l.IngestionRateSpans = 1
		l.IngestionBurstSpans = 1
	})
	d, _ := testDistributor(t, storage.NewInmemoryStore(), o)

	body, err := json.Marshal(validSpan("s1"))
	require.NoError(t, err)

	require.Equal(t, http.StatusAccepted, doRequest(d.PushHandler, api.PathIngestSpan, body, testTenant).Code)
	w := doRequest(d.PushHandler, api.PathIngestSpan, body, testTenant)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestPushBatchHandlerPartialSuccess(t *testing.T) {
	store := storage.NewInmemoryStore()
	d, _ := testDistributor(t, store, testOverrides(t, nil))

	bad := validSpan("")
	spans := []model.Span{validSpan("s1"), bad, validSpan("s2")}
	body, err := json.Marshal(spans)
	require.NoError(t, err)

	w := doRequest(d.PushBatchHandler, api.PathIngestBatch, body, testTenant)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp batchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Accepted)
	require.Len(t, resp.Rejected, 1)
	require.Equal(t, 1, resp.Rejected[0].Index)
	require.Equal(t, "missing span_id", resp.Rejected[0].Reason)

	waitForSpans(t, store, testTenant, 2)
}

func TestPushBatchHandlerTooLarge(t *testing.T) {
	o := testOverrides(t, func(l *overrides.Limits) {
		l.MaxBatchSize = 2
	})
	d, _ := testDistributor(t, storage.NewInmemoryStore(), o)

	spans := make([]model.Span, 3)
	for i := range spans {
		spans[i] = validSpan(fmt.Sprintf("s%d", i))
	}
	body, err := json.Marshal(spans)
	require.NoError(t, err)

	w := doRequest(d.PushBatchHandler, api.PathIngestBatch, body, testTenant)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestIdempotent(t *testing.T) {
	store := storage.NewInmemoryStore()
	d, _ := testDistributor(t, store, testOverrides(t, nil))

	span := validSpan("s1")
	require.NoError(t, d.PushSpans(context.Background(), testTenant, []model.Span{span}))
	require.NoError(t, d.PushSpans(context.Background(), testTenant, []model.Span{span}))

	// one flush may still be in flight
	time.Sleep(50 * time.Millisecond)
	waitForSpans(t, store, testTenant, 1)
}
