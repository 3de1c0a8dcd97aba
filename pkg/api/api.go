// Package api defines the HTTP surface: route paths, shared response
// envelopes, and query-parameter parsing.
package api

import (
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

const (
	PathHealth = "/health"

	PathIngestSpan  = "/api/v1/spans"
	PathIngestBatch = "/api/v1/spans/batch"

	PathArchitecture       = "/api/v1/architecture/current"
	PathIssues             = "/api/v1/architecture/issues"
	PathWorkflows          = "/api/v1/workflows/generated"
	PathWorkflowComparison = "/api/v1/workflows/comparison"
	PathGraphAnalysis      = "/api/v1/graph/analysis"
)

// Query parameters accepted by the read endpoints.
const (
	ParamStart   = "start"
	ParamEnd     = "end"
	ParamService = "service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResponse is the envelope for every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, ErrorResponse{Detail: detail})
}

// ParseTimeRange reads the optional start and end query parameters as
// RFC 3339 timestamps. Absent parameters return nil times.
func ParseTimeRange(r *http.Request) (start, end *time.Time, err error) {
	if v := r.URL.Query().Get(ParamStart); v != "" {
		t, perr := time.Parse(time.RFC3339, v)
		if perr != nil {
			return nil, nil, errors.Wrap(perr, "invalid start")
		}
		start = &t
	}
	if v := r.URL.Query().Get(ParamEnd); v != "" {
		t, perr := time.Parse(time.RFC3339, v)
		if perr != nil {
			return nil, nil, errors.Wrap(perr, "invalid end")
		}
		end = &t
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, errors.New("end before start")
	}
	return start, end, nil
}
