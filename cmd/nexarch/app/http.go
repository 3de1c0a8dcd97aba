package app

import (
	"net/http"
	"time"

	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/services"
	"gopkg.in/yaml.v2"

	"github.com/nexarch/nexarch/pkg/api"
	"github.com/nexarch/nexarch/pkg/util/log"
)

func (t *App) setupRoutes() {
	// liveness is the only unauthenticated endpoint
	t.router.Path(api.PathHealth).Methods(http.MethodGet).HandlerFunc(healthHandler)

	authed := func(h http.Handler) http.Handler {
		return t.httpAuthMiddleware.Wrap(h)
	}

	t.router.Path(api.PathIngestSpan).Methods(http.MethodPost).
		Handler(authed(http.HandlerFunc(t.distributor.PushHandler)))
	t.router.Path(api.PathIngestBatch).Methods(http.MethodPost).
		Handler(authed(http.HandlerFunc(t.distributor.PushBatchHandler)))

	t.router.Path(api.PathArchitecture).Methods(http.MethodGet).
		Handler(authed(t.querier.ArchitectureHandler()))
	t.router.Path(api.PathIssues).Methods(http.MethodGet).
		Handler(authed(t.querier.IssuesHandler()))
	t.router.Path(api.PathWorkflows).Methods(http.MethodGet).
		Handler(authed(t.querier.WorkflowsHandler()))
	t.router.Path(api.PathWorkflowComparison).Methods(http.MethodGet).
		Handler(authed(t.querier.ComparisonHandler()))
	t.router.Path(api.PathGraphAnalysis).Methods(http.MethodGet).
		Handler(authed(t.querier.GraphAnalysisHandler()))
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	api.WriteJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

func (t *App) readyHandler(sm *services.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !sm.IsHealthy() {
			http.Error(w, "services not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	}
}

func (t *App) configHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		out, err := yaml.Marshal(t.cfg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/yaml")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(out); err != nil {
			level.Error(log.Logger).Log("msg", "error writing response", "err", err)
		}
	}
}
