package batch

// GateOutcome is the pre-flight verdict over a requested batch.
type GateOutcome int

const (
	// GateEmpty means nothing is pending: a user-visible no-op, not an
	// error.
	GateEmpty GateOutcome = iota
	// GateProceed means the full pending set fits the plan's cap.
	GateProceed
	// GateOverLimit means the pending set exceeds the cap and the user
	// must decide; the batch never truncates silently.
	GateOverLimit
)

// Decision resolves a GateOverLimit verdict.
type Decision int

const (
	// DecisionCancel performs no work.
	DecisionCancel Decision = iota
	// DecisionCapped processes only the first MaxBatchSize items, in the
	// order the pending list was fetched.
	DecisionCapped
	// DecisionProcessAll runs the whole pending set despite the cap.
	// Only an explicit user choice reaches this.
	DecisionProcessAll
	// DecisionUpgrade performs no work and routes the user to a plan
	// upgrade.
	DecisionUpgrade
)

// GateResult carries the verdict and the item sets it permits.
type GateResult struct {
	Outcome   GateOutcome
	Requested int
	Limit     int // plan cap; Unbounded when the plan has none
	items     []*WorkItem
}

// CheckBatch compares the pending set against the plan's batch cap.
func CheckBatch(items []*WorkItem, policy PlanPolicy) GateResult {
	result := GateResult{
		Requested: len(items),
		Limit:     policy.MaxBatchSize,
		items:     items,
	}
	switch {
	case len(items) == 0:
		result.Outcome = GateEmpty
	case !policy.Bounded() || len(items) <= policy.MaxBatchSize:
		result.Outcome = GateProceed
	default:
		result.Outcome = GateOverLimit
	}
	return result
}

// Items returns the full permitted set for GateProceed runs.
func (g GateResult) Items() []*WorkItem {
	if g.Outcome != GateProceed {
		return nil
	}
	return g.items
}

// Resolve applies the user's decision to an over-limit batch. It returns
// the items to run: the deterministic prefix for DecisionCapped, everything
// for DecisionProcessAll, nil otherwise.
func (g GateResult) Resolve(d Decision) []*WorkItem {
	if g.Outcome != GateOverLimit {
		return g.Items()
	}
	switch d {
	case DecisionCapped:
		return g.items[:g.Limit]
	case DecisionProcessAll:
		return g.items
	default:
		return nil
	}
}
