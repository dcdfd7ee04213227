package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/lumenpress/discovery/internal/domain"
	domanalytics "github.com/lumenpress/discovery/internal/domain/analytics"
)

// store is the consumer interface for the analytics trail (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	LPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LTrim(ctx context.Context, key string, start, stop int64) error
}

// Trail shape limits.
const (
	// maxTrailLength caps the id list; records beyond it age out of the
	// click-attach scan but their hashes survive until TTL.
	maxTrailLength = 10000
	// recordTTL bounds how long one record hash lives.
	recordTTL = 30 * 24 * time.Hour
	// clickScanLimit bounds how far back a click-attach scan walks.
	clickScanLimit = 200
)

// Repo persists the append-only search analytics trail: a per-record hash
// plus an id list ordered newest first.
type Repo struct {
	store store
}

// New creates an analytics repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

func trailKey() string {
	return domain.KeyPrefix + "analytics:log"
}

func recordKey(id string) string {
	return domain.KeyPrefix + "analytics:rec:" + id
}

// Append writes one query record and pushes its id onto the trail.
func (r *Repo) Append(ctx context.Context, rec *domanalytics.QueryRecord) error {
	key := recordKey(rec.ID)
	if err := r.store.HSet(ctx, key, recordToFields(rec)); err != nil {
		return fmt.Errorf("append record %s: %w", rec.ID, err)
	}
	_ = r.store.Expire(ctx, key, recordTTL, true)

	if err := r.store.LPush(ctx, trailKey(), rec.ID); err != nil {
		return fmt.Errorf("push record id %s: %w", rec.ID, err)
	}
	_ = r.store.LTrim(ctx, trailKey(), 0, maxTrailLength-1)
	return nil
}

// AttachClick finds the most recent un-clicked record matching the click's
// query inside the trailing window and marks it clicked. Returns false when
// no record matches; that is a silent no-op by contract, not an error.
func (r *Repo) AttachClick(
	ctx context.Context, click *domanalytics.Click, window time.Duration, now time.Time,
) (bool, error) {
	ids, err := r.store.LRange(ctx, trailKey(), 0, clickScanLimit-1)
	if err != nil {
		return false, fmt.Errorf("scan trail: %w", err)
	}
	cutoff := now.Add(-window)

	for _, id := range ids {
		fields, err := r.store.HGetAll(ctx, recordKey(id))
		if err != nil {
			return false, fmt.Errorf("read record %s: %w", id, err)
		}
		if len(fields) == 0 {
			continue
		}
		rec := recordFromFields(fields)
		if rec.CreatedAt.Before(cutoff) {
			// Trail is newest first; everything past here is older still.
			return false, nil
		}
		if rec.ClickedID != "" || rec.Query != click.Query {
			continue
		}

		update := map[string]string{
			"clicked_id":  click.ResultID,
			"clicked_pos": strconv.Itoa(click.Position),
		}
		if err := r.store.HSet(ctx, recordKey(id), update); err != nil {
			return false, fmt.Errorf("attach click %s: %w", id, err)
		}
		return true, nil
	}
	return false, nil
}

// Recent returns up to limit newest records (dashboards, tests).
func (r *Repo) Recent(ctx context.Context, limit int) ([]domanalytics.QueryRecord, error) {
	ids, err := r.store.LRange(ctx, trailKey(), 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("scan trail: %w", err)
	}
	records := make([]domanalytics.QueryRecord, 0, len(ids))
	for _, id := range ids {
		fields, err := r.store.HGetAll(ctx, recordKey(id))
		if err != nil {
			return nil, fmt.Errorf("read record %s: %w", id, err)
		}
		if len(fields) == 0 {
			continue
		}
		records = append(records, recordFromFields(fields))
	}
	return records, nil
}

func recordToFields(rec *domanalytics.QueryRecord) map[string]string {
	fields := map[string]string{
		"id":           rec.ID,
		"query":        rec.Query,
		"filters":      rec.Filters,
		"result_count": strconv.Itoa(rec.ResultCount),
		"latency_ms":   strconv.FormatInt(rec.LatencyMs, 10),
		"created_at":   strconv.FormatInt(rec.CreatedAt.Unix(), 10),
	}
	if rec.ActorID != "" {
		fields["actor_id"] = rec.ActorID
	}
	if rec.ErrorTag != "" {
		fields["error_tag"] = rec.ErrorTag
	}
	return fields
}

func recordFromFields(fields map[string]string) domanalytics.QueryRecord {
	rec := domanalytics.QueryRecord{
		ID:         fields["id"],
		Query:      fields["query"],
		ActorID:    fields["actor_id"],
		Filters:    fields["filters"],
		ErrorTag:   fields["error_tag"],
		ClickedID:  fields["clicked_id"],
		ClickedPos: -1,
	}
	rec.ResultCount, _ = strconv.Atoi(fields["result_count"])
	rec.LatencyMs, _ = strconv.ParseInt(fields["latency_ms"], 10, 64)
	if pos, err := strconv.Atoi(fields["clicked_pos"]); err == nil {
		rec.ClickedPos = pos
	}
	if ts, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		rec.CreatedAt = time.Unix(ts, 0).UTC()
	}
	return rec
}
