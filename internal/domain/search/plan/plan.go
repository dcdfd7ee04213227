package plan

// Tier classifies a query+filter combination by execution cost.
type Tier string

// Complexity tiers.
const (
	TierSimple   Tier = "simple"
	TierModerate Tier = "moderate"
	TierComplex  Tier = "complex"
)

// Rank returns the tier's position on the complexity scale. Higher never
// means cheaper: planner tests verify monotonicity against this value.
func (t Tier) Rank() int {
	switch t {
	case TierSimple:
		return 0
	case TierModerate:
		return 1
	case TierComplex:
		return 2
	default:
		return -1
	}
}

// Plan carries the execution parameters selected before any scorer runs.
// Higher tiers trade precision and recall for bounded worst-case latency
// instead of rejecting the request.
type Plan struct {
	Tier        Tier
	MaxResults  int
	Fuzzy       bool
	UseSnapshot bool
}
