package distributor

import (
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/nexarch/nexarch/pkg/api"
	"github.com/nexarch/nexarch/pkg/model"
	"github.com/nexarch/nexarch/pkg/validation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type pushResponse struct {
	Status string `json:"status"`
	SpanID string `json:"span_id"`
}

type batchRejection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type batchResponse struct {
	Accepted int              `json:"accepted"`
	Rejected []batchRejection `json:"rejected"`
}

// PushHandler accepts a single span.
func (d *Distributor) PushHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, err := validation.ExtractValidTenantID(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	var span model.Span
	if err := json.Unmarshal(body, &span); err != nil {
		api.WriteError(w, http.StatusBadRequest, "malformed span payload")
		return
	}

	if err := validation.ValidateSpan(&span, len(body), d.overrides.MaxSpanBytes(tenantID)); err != nil {
		api.WriteError(w, http.StatusBadRequest, rejectionReason(err))
		return
	}

	if err := d.PushSpans(r.Context(), tenantID, []model.Span{span}); err != nil {
		writePushError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusAccepted, pushResponse{Status: "accepted", SpanID: span.SpanID})
}

// PushBatchHandler accepts an array of spans and reports per-item
// validation results. A single bad span does not fail the batch.
func (d *Distributor) PushBatchHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, err := validation.ExtractValidTenantID(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	var spans []model.Span
	if err := json.Unmarshal(body, &spans); err != nil {
		api.WriteError(w, http.StatusBadRequest, "malformed batch payload")
		return
	}
	if max := d.overrides.MaxBatchSize(tenantID); len(spans) > max {
		api.WriteError(w, http.StatusBadRequest, "batch exceeds maximum size")
		return
	}

	maxBytes := d.overrides.MaxSpanBytes(tenantID)
	accepted := make([]model.Span, 0, len(spans))
	rejected := []batchRejection{}
	for i := range spans {
		size := spanSize(&spans[i])
		if err := validation.ValidateSpan(&spans[i], size, maxBytes); err != nil {
			rejected = append(rejected, batchRejection{Index: i, Reason: rejectionReason(err)})
			continue
		}
		accepted = append(accepted, spans[i])
	}

	if err := d.PushSpans(r.Context(), tenantID, accepted); err != nil {
		writePushError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusAccepted, batchResponse{Accepted: len(accepted), Rejected: rejected})
}

func spanSize(s *model.Span) int {
	b, err := json.Marshal(s)
	if err != nil {
		return 0
	}
	return len(b)
}

func rejectionReason(err error) string {
	var rejected *validation.RejectedError
	if errors.As(err, &rejected) {
		return string(rejected.Reason)
	}
	return err.Error()
}

func writePushError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrQueueSaturated):
		api.WriteError(w, http.StatusTooManyRequests, err.Error())
	default:
		api.WriteError(w, http.StatusInternalServerError, "failed to accept spans")
	}
}
