package reasoner

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nexarch/nexarch/pkg/model"
)

// Change types emitted by the generators.
const (
	ChangeCaching        = "caching"
	ChangeCircuitBreaker = "circuit_breaker"
	ChangeTimeoutBudget  = "timeout_budget"
	ChangeBatching       = "request_batching"
	ChangeMonitoring     = "monitoring"
	ChangeAsyncMessaging = "async_messaging"
	ChangeConsolidation  = "service_consolidation"
	ChangeRetryPolicy    = "retry_optimization"
	ChangeRightSizing    = "right_sizing"
)

// workflowID derives a stable identifier from the workflow name, so
// repeated runs over the same architecture produce the same IDs.
func workflowID(name string) string {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("nexarch/workflow/"+name))
	return "workflow-" + id.String()[:8]
}

// generateMinimal proposes the least invasive fix for each of the top
// three issues.
func (p *Pipeline) generateMinimal(s *State) model.Workflow {
	issues := s.Issues
	if len(issues) > 3 {
		issues = issues[:3]
	}

	var changes []model.WorkflowChange
	for _, i := range issues {
		switch i.Type {
		case model.IssueHighLatencyEdge:
			target := i.AffectedNodes[len(i.AffectedNodes)-1]
			impact := "Reduce p95 latency on the slow call by 30-50%"
			if s.nodeType(target) == model.NodeTypeDatabase {
				impact = "Reduce p95 latency by 30-50% and cut database load on the cached path"
			}
			changes = append(changes, model.WorkflowChange{
				Type:        ChangeCaching,
				Target:      target,
				Description: fmt.Sprintf("Add a read-through cache in front of %s", target),
				Impact:      impact,
			})
		case model.IssueHighErrorRate:
			changes = append(changes, model.WorkflowChange{
				Type:        ChangeCircuitBreaker,
				Target:      i.AffectedNodes[0],
				Description: fmt.Sprintf("Wrap calls from %s in a circuit breaker", i.AffectedNodes[0]),
				Impact:      "Stop error cascades before they spread upstream",
			})
		case model.IssueDeepSyncChain:
			changes = append(changes, model.WorkflowChange{
				Type:        ChangeTimeoutBudget,
				Target:      i.AffectedNodes[0],
				Description: fmt.Sprintf("Set an end-to-end timeout budget for the chain starting at %s", i.AffectedNodes[0]),
				Impact:      "Bound worst-case latency without restructuring the chain",
			})
		case model.IssueFanOutOverload:
			changes = append(changes, model.WorkflowChange{
				Type:        ChangeBatching,
				Target:      i.AffectedNodes[0],
				Description: fmt.Sprintf("Batch outbound requests from %s where call targets allow it", i.AffectedNodes[0]),
				Impact:      "Fewer concurrent downstream calls per request",
			})
		case model.IssueSinglePointOfFailure:
			changes = append(changes, model.WorkflowChange{
				Type:        ChangeMonitoring,
				Target:      i.AffectedNodes[0],
				Description: fmt.Sprintf("Add saturation alerts and a health check for %s", i.AffectedNodes[0]),
				Impact:      "Early warning before the shared dependency degrades",
			})
		}
	}
	if len(changes) == 0 {
		changes = append(changes, model.WorkflowChange{
			Type:        ChangeMonitoring,
			Target:      "all",
			Description: "Add baseline latency and error dashboards across services",
			Impact:      "Visibility into regressions before they become incidents",
		})
	}

	return model.Workflow{
		ID:          workflowID("minimal"),
		Name:        "Minimal Intervention",
		Description: "Address the most severe issues with the smallest possible changes",
		ProposedChanges: changes,
		Pros: []string{
			"Low implementation effort",
			"Minimal disruption to running services",
			"Each change can ship independently",
		},
		Cons: []string{
			"Treats symptoms rather than structure",
			"May need revisiting as traffic grows",
		},
		ComplexityScore: 2,
		RiskScore:       1,
		ExpectedImpact: map[string]string{
			"latency_improvement": "20-30%",
			"error_reduction":     "30-40%",
		},
	}
}

// generatePerformance proposes the latency-focused restructuring the
// selected strategies call for.
func (p *Pipeline) generatePerformance(s *State) model.Workflow {
	var changes []model.WorkflowChange

	if s.Strategies.NeedsCaching {
		cached := 0
		for _, i := range s.Issues {
			if i.Type != model.IssueHighLatencyEdge || cached >= 2 {
				continue
			}
			target := i.AffectedNodes[len(i.AffectedNodes)-1]
			changes = append(changes, model.WorkflowChange{
				Type:        ChangeCaching,
				Target:      target,
				Description: fmt.Sprintf("Deploy a distributed cache tier in front of %s with explicit invalidation", target),
				Impact:      "Serve repeated reads without touching the slow dependency",
			})
			cached++
		}
	}
	if s.Strategies.NeedsAsync {
		changes = append(changes, model.WorkflowChange{
			Type:        ChangeAsyncMessaging,
			Target:      "architecture",
			Description: "Replace deep synchronous call chains with message-driven handoffs",
			Impact:      "Callers stop paying the full chain latency on every request",
		})
	}
	if len(changes) == 0 {
		changes = append(changes, model.WorkflowChange{
			Type:        "profiling",
			Target:      "all",
			Description: "Profile the hottest request paths and optimize the top offenders",
			Impact:      "Targeted wins where the latency actually accrues",
		})
	}

	return model.Workflow{
		ID:          workflowID("performance"),
		Name:        "Performance Optimization",
		Description: "Restructure the hot paths for throughput and latency",
		ProposedChanges: changes,
		Pros: []string{
			"Largest latency and throughput gains",
			"Removes the structural causes of slowness",
		},
		Cons: []string{
			"Significant engineering investment",
			"Cache invalidation and async flows add operational complexity",
			"Higher rollout risk than point fixes",
		},
		ComplexityScore: 6,
		RiskScore:       4,
		ExpectedImpact: map[string]string{
			"latency_improvement": "40-60%",
			"throughput_increase": "2-3x",
		},
	}
}

// generateCost proposes changes that reduce spend, accepting modest
// performance tradeoffs.
func (p *Pipeline) generateCost(s *State) model.Workflow {
	var changes []model.WorkflowChange

	if s.Strategies.NeedsConsolidation {
		for _, i := range s.Issues {
			if i.Type != model.IssueFanOutOverload {
				continue
			}
			changes = append(changes, model.WorkflowChange{
				Type:        ChangeConsolidation,
				Target:      i.AffectedNodes[0],
				Description: fmt.Sprintf("Merge the smallest downstreams of %s into a single deployable", i.AffectedNodes[0]),
				Impact:      "Fewer deployments and network hops to operate and pay for",
			})
			break
		}
	}
	for _, i := range s.Issues {
		if i.Type != model.IssueHighErrorRate {
			continue
		}
		changes = append(changes, model.WorkflowChange{
			Type:        ChangeRetryPolicy,
			Target:      i.AffectedNodes[0],
			Description: fmt.Sprintf("Cap retries from %s and add jittered backoff", i.AffectedNodes[0]),
			Impact:      "Failed calls stop multiplying into wasted compute",
		})
		break
	}
	if len(changes) == 0 {
		changes = append(changes, model.WorkflowChange{
			Type:        ChangeRightSizing,
			Target:      "infrastructure",
			Description: "Right-size instances against observed utilization",
			Impact:      "Pay for the capacity the traffic actually needs",
		})
	}

	return model.Workflow{
		ID:          workflowID("cost"),
		Name:        "Cost Reduction",
		Description: "Cut infrastructure spend while keeping the system healthy",
		ProposedChanges: changes,
		Pros: []string{
			"Direct and measurable savings",
			"Simplifies the operational surface",
		},
		Cons: []string{
			"Some headroom is traded away",
			"Consolidation couples previously independent services",
		},
		ComplexityScore: 4,
		RiskScore:       3,
		ExpectedImpact: map[string]string{
			"cost_change":         "-20% to -30%",
			"latency_improvement": "10-20%",
		},
	}
}

// Addresses reports whether a workflow proposes a change touching any
// node the issue affects. Changes scoped to the whole system count for
// every issue.
func Addresses(w *model.Workflow, issue *model.Issue) bool {
	for _, c := range w.ProposedChanges {
		switch c.Target {
		case "all", "architecture", "infrastructure":
			return true
		}
		for _, n := range issue.AffectedNodes {
			if c.Target == n {
				return true
			}
		}
	}
	return false
}

// Recommend picks the workflow with the lowest combined complexity and
// risk among those addressing the highest-severity issue. Ties prefer
// the earlier workflow, which keeps the minimal plan ahead.
func Recommend(workflows []model.Workflow, issues []model.Issue) string {
	if len(workflows) == 0 {
		return ""
	}

	candidates := workflows
	if len(issues) > 0 {
		top := issues[0]
		var addressing []model.Workflow
		for _, w := range workflows {
			if Addresses(&w, &top) {
				addressing = append(addressing, w)
			}
		}
		if len(addressing) > 0 {
			candidates = addressing
		}
	}

	best := candidates[0]
	for _, w := range candidates[1:] {
		if w.ComplexityScore+w.RiskScore < best.ComplexityScore+best.RiskScore {
			best = w
		}
	}
	return best.ID
}
