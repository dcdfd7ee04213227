package health

import (
	"context"
	"time"

	"github.com/lumenpress/discovery/internal/domain/trending"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	snapshots SnapshotSource
	maxStale  time.Duration
	now       func() time.Time
}

// New creates a Service. snapshots can be nil when the refresher is not running.
func New(db DBPinger, snapshots SnapshotSource, maxStale time.Duration) *Service {
	return &Service{db: db, snapshots: snapshots, maxStale: maxStale, now: time.Now}
}

// Check runs health checks against all components. A cold or stale
// trending snapshot degrades but never fails the report; the store is the
// only hard dependency.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.snapshots != nil {
		snap := s.snapshots.Snapshot(trending.Timeframe7d)
		if snap == nil || snap.Age(s.now()) > s.maxStale {
			checks["trending_snapshot"] = CheckError
		} else {
			checks["trending_snapshot"] = CheckOK
		}
	}

	status := Healthy
	if checks["database"] == CheckError {
		status = Unhealthy
	} else {
		for _, v := range checks {
			if v == CheckError {
				status = Degraded
				break
			}
		}
	}

	return Report{Status: status, Checks: checks}
}
