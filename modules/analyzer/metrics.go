package analyzer

import (
	"math"

	"github.com/nexarch/nexarch/pkg/model"
)

// accumulator folds spans into the three aggregate metrics. It is
// mergeable: combining two accumulators equals accumulating the
// concatenated span groups, which keeps windowed and partitioned
// aggregation consistent.
type accumulator struct {
	count      int
	latencySum float64
	errorCount int
}

func (a *accumulator) observe(s *model.Span) {
	a.count++
	a.latencySum += s.LatencyMs
	if s.Failed() {
		a.errorCount++
	}
}

func (a *accumulator) merge(b accumulator) {
	a.count += b.count
	a.latencySum += b.latencySum
	a.errorCount += b.errorCount
}

func (a *accumulator) metrics() model.Metrics {
	if a.count == 0 {
		return model.Metrics{}
	}
	return model.Metrics{
		CallCount:    a.count,
		AvgLatencyMs: round2(a.latencySum / float64(a.count)),
		ErrorRate:    round4(float64(a.errorCount) / float64(a.count)),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
