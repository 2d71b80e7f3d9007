package batch

import "strings"

// Unbounded marks a plan with no batch-size cap.
const Unbounded = -1

// PlanPolicy holds the operational limits of a subscription plan. These are
// product policy constants consumed as data, not derived.
type PlanPolicy struct {
	Plan           string
	MaxConcurrency int
	MaxBatchSize   int
}

// Bounded reports whether the plan caps bulk-anchor batch sizes.
func (p PlanPolicy) Bounded() bool {
	return p.MaxBatchSize != Unbounded
}

var planPolicies = map[string]PlanPolicy{
	"free":       {Plan: "free", MaxConcurrency: 2, MaxBatchSize: 10},
	"personal":   {Plan: "personal", MaxConcurrency: 3, MaxBatchSize: 30},
	"pro":        {Plan: "pro", MaxConcurrency: 5, MaxBatchSize: Unbounded},
	"enterprise": {Plan: "enterprise", MaxConcurrency: 8, MaxBatchSize: Unbounded},
}

// ResolvePolicy maps a plan key to its limits. Unrecognized plans fall back
// to the most conservative tier.
func ResolvePolicy(plan string) PlanPolicy {
	if policy, ok := planPolicies[strings.ToLower(strings.TrimSpace(plan))]; ok {
		return policy
	}
	return planPolicies["free"]
}
