package analytics

import (
	"time"

	"github.com/lumenpress/discovery/internal/domain"
)

// QueryRecord is one append-only entry of the search analytics trail.
// Never mutated once written, except to attach a later click.
type QueryRecord struct {
	ID           string
	Query        string
	ActorID      string
	Filters      string // compact canonical rendering of the compiled filters
	ResultCount  int
	LatencyMs    int64
	ErrorTag     string // empty for successful searches
	ClickedID    string
	ClickedPos   int // -1 until a click is attached
	CreatedAt    time.Time
}

// Click is a caller-reported result selection. Best-effort: it attaches to
// the most recent matching un-clicked record inside the trailing window and
// silently no-ops when none exists.
type Click struct {
	Query      string
	ResultID   string
	ResultType domain.ContentType
	Position   int
}
