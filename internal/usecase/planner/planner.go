package planner

import (
	"github.com/lumenpress/discovery/internal/domain/search/filter"
	"github.com/lumenpress/discovery/internal/domain/search/plan"
)

// Config holds the tier thresholds and per-tier execution limits.
type Config struct {
	ModerateMinSignals int
	ComplexMinSignals  int
	SimpleCap          int
	ModerateCap        int
	ComplexCap         int
}

// Planner classifies a compiled query into an execution tier. The mapping
// is a pure function of the query shape so identical queries always get
// identical plans.
type Planner struct {
	cfg Config
}

// New creates a query planner.
func New(cfg Config) *Planner {
	return &Planner{cfg: cfg}
}

// Plan derives the execution plan for a compiled query. Complexity signals
// are the number of active filter dimensions, the presence of free text,
// and breadth across content kinds; adding a signal never lowers the tier.
func (p *Planner) Plan(hasQuery bool, set *filter.Set) plan.Plan {
	signals := set.ActiveDimensions()
	if hasQuery {
		signals++
	}
	if len(set.ContentTypes) > 1 {
		signals++
	}

	switch {
	case signals >= p.cfg.ComplexMinSignals:
		return plan.Plan{
			Tier:        plan.TierComplex,
			MaxResults:  p.cfg.ComplexCap,
			UseSnapshot: true,
		}
	case signals >= p.cfg.ModerateMinSignals:
		return plan.Plan{
			Tier:       plan.TierModerate,
			MaxResults: p.cfg.ModerateCap,
		}
	default:
		return plan.Plan{
			Tier:       plan.TierSimple,
			MaxResults: p.cfg.SimpleCap,
			Fuzzy:      hasQuery,
		}
	}
}
