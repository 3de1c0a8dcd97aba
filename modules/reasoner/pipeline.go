package reasoner

import (
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nexarch/nexarch/modules/analyzer"
	"github.com/nexarch/nexarch/pkg/graph"
	"github.com/nexarch/nexarch/pkg/model"
)

var metricPipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nexarch",
	Name:      "reasoner_pipeline_runs_total",
	Help:      "Completed reasoning pipeline runs.",
}, []string{"outcome"})

// Pipeline runs the reasoning state graph over an architecture.
type Pipeline struct {
	logger   log.Logger
	detector *analyzer.Detector
}

func NewPipeline(logger log.Logger) *Pipeline {
	return &Pipeline{
		logger:   logger,
		detector: analyzer.NewDetector(logger),
	}
}

// Run executes the full state graph and returns the final state. The
// three workflow generators run concurrently but write to fixed slots,
// so the output order is always minimal, performance, cost.
func (p *Pipeline) Run(arch *model.Architecture, g *graph.DiGraph, th analyzer.Thresholds) State {
	s := State{Arch: arch, Graph: g}

	p.detect(&s, th)
	p.classify(&s)
	p.analyze(&s)
	p.selectStrategies(&s)

	if len(s.Issues) == 0 {
		p.finalize(&s)
		metricPipelineRuns.WithLabelValues("clean").Inc()
		return s
	}

	workflows := make([]model.Workflow, 3)
	generators := []func(*State) model.Workflow{
		p.generateMinimal,
		p.generatePerformance,
		p.generateCost,
	}

	var wg sync.WaitGroup
	for i, gen := range generators {
		wg.Add(1)
		go func(slot int, gen func(*State) model.Workflow) {
			defer wg.Done()
			workflows[slot] = gen(&s)
		}(i, gen)
	}
	wg.Wait()

	s.Workflows = workflows
	p.finalize(&s)
	metricPipelineRuns.WithLabelValues("issues").Inc()
	return s
}

func (p *Pipeline) detect(s *State, th analyzer.Thresholds) {
	s.Issues = p.detector.Detect(s.Arch, s.Graph, th)
}

// classify buckets issues by remediation concern. Latency and chain
// depth are performance problems, error rates and failure points are
// reliability problems, and fan-out is a coupling problem.
func (p *Pipeline) classify(s *State) {
	s.IssueCategories = map[string][]model.Issue{}
	for _, i := range s.Issues {
		var cat string
		switch i.Type {
		case model.IssueHighLatencyEdge, model.IssueDeepSyncChain:
			cat = CategoryPerformance
		case model.IssueHighErrorRate, model.IssueSinglePointOfFailure:
			cat = CategoryReliability
		case model.IssueFanOutOverload:
			cat = CategoryCoupling
		default:
			continue
		}
		s.IssueCategories[cat] = append(s.IssueCategories[cat], i)
	}
}

func (p *Pipeline) analyze(s *State) {
	s.Analysis = analyzer.Analyze(s.Graph)
}

func (p *Pipeline) selectStrategies(s *State) {
	for _, i := range s.Issues {
		switch i.Type {
		case model.IssueHighLatencyEdge:
			// Caching only pays off when the slow edge ends in a
			// database.
			if len(i.AffectedNodes) == 2 && s.nodeType(i.AffectedNodes[1]) == model.NodeTypeDatabase {
				s.Strategies.NeedsCaching = true
			}
		case model.IssueDeepSyncChain:
			s.Strategies.NeedsAsync = true
		case model.IssueHighErrorRate:
			s.Strategies.NeedsCircuitBreaker = true
		case model.IssueSinglePointOfFailure:
			s.Strategies.NeedsBulkhead = true
		case model.IssueFanOutOverload:
			s.Strategies.NeedsConsolidation = true
		}
	}
}

func (p *Pipeline) finalize(s *State) {
	s.AnalysisComplete = true
	level.Debug(p.logger).Log(
		"msg", "reasoning pipeline complete",
		"issues", len(s.Issues),
		"workflows", len(s.Workflows),
	)
}
