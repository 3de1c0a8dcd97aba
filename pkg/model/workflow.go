package model

// WorkflowChange is a single proposed remediation step.
type WorkflowChange struct {
	Type        string `json:"type"`
	Target      string `json:"target"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// Workflow is a proposed remediation bundle. Complexity and risk are
// scored 1-10; expected impact carries labeled deltas such as
// "latency_improvement".
type Workflow struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	ProposedChanges []WorkflowChange  `json:"proposed_changes"`
	Pros            []string          `json:"pros"`
	Cons            []string          `json:"cons"`
	ComplexityScore int               `json:"complexity_score"`
	RiskScore       int               `json:"risk_score"`
	ExpectedImpact  map[string]string `json:"expected_impact"`
}

// ChangeCount is the number of proposed changes, used by the
// comparison matrix.
func (w *Workflow) ChangeCount() int {
	return len(w.ProposedChanges)
}
