package querier

import (
	"context"
	"net/http"
	"time"

	"github.com/go-kit/log/level"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/nexarch/nexarch/modules/analyzer"
	"github.com/nexarch/nexarch/modules/reasoner"
	"github.com/nexarch/nexarch/modules/storage"
	"github.com/nexarch/nexarch/pkg/api"
	"github.com/nexarch/nexarch/pkg/model"
	"github.com/nexarch/nexarch/pkg/validation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type architectureResponse struct {
	Nodes       []model.Node         `json:"nodes"`
	Edges       []model.Edge         `json:"edges"`
	Summary     model.MetricsSummary `json:"summary"`
	GeneratedAt time.Time            `json:"generated_at"`
}

type issuesResponse struct {
	Issues      []model.Issue `json:"issues"`
	Count       int           `json:"count"`
	GeneratedAt time.Time     `json:"generated_at"`
}

type workflowsResponse struct {
	Workflows   []model.Workflow `json:"workflows"`
	GeneratedAt time.Time        `json:"generated_at"`
}

type comparisonRow struct {
	WorkflowID      string `json:"workflow_id"`
	Name            string `json:"name"`
	ComplexityScore int    `json:"complexity_score"`
	RiskScore       int    `json:"risk_score"`
	ChangeCount     int    `json:"change_count"`
}

type comparisonResponse struct {
	Workflows      []comparisonRow `json:"workflows"`
	Recommendation string          `json:"recommendation"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

type analysisResponse struct {
	analyzer.GraphAnalysis
	GeneratedAt time.Time `json:"generated_at"`
}

func (q *Querier) ArchitectureHandler() http.HandlerFunc {
	return q.handleRead("architecture", func(s reasoner.State) interface{} {
		return architectureResponse{
			Nodes:       s.Arch.Nodes,
			Edges:       s.Arch.Edges,
			Summary:     s.Arch.Summary,
			GeneratedAt: time.Now().UTC(),
		}
	})
}

func (q *Querier) IssuesHandler() http.HandlerFunc {
	return q.handleRead("issues", func(s reasoner.State) interface{} {
		issues := s.Issues
		if issues == nil {
			issues = []model.Issue{}
		}
		return issuesResponse{Issues: issues, Count: len(issues), GeneratedAt: time.Now().UTC()}
	})
}

func (q *Querier) WorkflowsHandler() http.HandlerFunc {
	return q.handleRead("workflows", func(s reasoner.State) interface{} {
		workflows := s.Workflows
		if workflows == nil {
			workflows = []model.Workflow{}
		}
		return workflowsResponse{Workflows: workflows, GeneratedAt: time.Now().UTC()}
	})
}

func (q *Querier) ComparisonHandler() http.HandlerFunc {
	return q.handleRead("comparison", func(s reasoner.State) interface{} {
		rows := make([]comparisonRow, 0, len(s.Workflows))
		for i := range s.Workflows {
			w := &s.Workflows[i]
			rows = append(rows, comparisonRow{
				WorkflowID:      w.ID,
				Name:            w.Name,
				ComplexityScore: w.ComplexityScore,
				RiskScore:       w.RiskScore,
				ChangeCount:     w.ChangeCount(),
			})
		}
		return comparisonResponse{
			Workflows:      rows,
			Recommendation: reasoner.Recommend(s.Workflows, s.Issues),
			GeneratedAt:    time.Now().UTC(),
		}
	})
}

func (q *Querier) GraphAnalysisHandler() http.HandlerFunc {
	return q.handleRead("analysis", func(s reasoner.State) interface{} {
		return analysisResponse{GraphAnalysis: s.Analysis, GeneratedAt: time.Now().UTC()}
	})
}

// handleRead wraps the shared read flow: tenant resolution, parameter
// parsing, cache lookup, analysis, render, cache fill.
func (q *Querier) handleRead(name string, render func(reasoner.State) interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		tenantID, err := validation.ExtractValidTenantID(ctx)
		if err != nil {
			api.WriteError(w, http.StatusUnauthorized, err.Error())
			return
		}

		if !q.readRateLimiter.AllowN(time.Now(), tenantID, 1) {
			api.WriteError(w, http.StatusTooManyRequests, "read rate limit exceeded")
			return
		}

		start, end, err := api.ParseTimeRange(r)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter := storage.SpanFilter{
			ServiceName: r.URL.Query().Get(api.ParamService),
		}
		if start != nil {
			filter.Start = *start
		}
		if end != nil {
			filter.End = *end
		}

		cacheKey := name + "?" + r.URL.RawQuery
		if cached, ok := q.cache.Fetch(ctx, tenantID, cacheKey); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}

		state, err := q.analyze(ctx, tenantID, filter)
		if err != nil {
			q.writeReadError(w, tenantID, name, err)
			return
		}

		body, err := json.Marshal(render(state))
		if err != nil {
			q.writeReadError(w, tenantID, name, err)
			return
		}

		q.cache.Store(ctx, tenantID, cacheKey, body, q.overrides.CacheTTL(tenantID))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

func (q *Querier) writeReadError(w http.ResponseWriter, tenantID, operation string, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		api.WriteError(w, http.StatusServiceUnavailable, "deadline exceeded")
	case errors.Is(err, storage.ErrUnavailable):
		api.WriteError(w, http.StatusServiceUnavailable, "span store unavailable")
	default:
		level.Error(q.logger).Log("msg", "read operation failed", "tenant", tenantID, "operation", operation, "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
