package analytics

import (
	"context"
	"testing"
	"time"

	domanalytics "github.com/lumenpress/discovery/internal/domain/analytics"
)

type fakeStore struct {
	hashes map[string]map[string]string
	lists  map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		hashes: make(map[string]map[string]string),
		lists:  make(map[string][]string),
	}
}

func (f *fakeStore) HSet(_ context.Context, key string, fields map[string]string) error {
	m := f.hashes[key]
	if m == nil {
		m = make(map[string]string)
		f.hashes[key] = m
	}
	for k, v := range fields {
		m[k] = v
	}
	return nil
}

func (f *fakeStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	return f.hashes[key], nil
}

func (f *fakeStore) Expire(context.Context, string, time.Duration, bool) error { return nil }

func (f *fakeStore) LPush(_ context.Context, key string, values ...string) error {
	f.lists[key] = append(values, f.lists[key]...)
	return nil
}

func (f *fakeStore) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	list := f.lists[key]
	if start >= int64(len(list)) {
		return nil, nil
	}
	if stop < 0 || stop >= int64(len(list)) {
		stop = int64(len(list)) - 1
	}
	return list[start : stop+1], nil
}

func (f *fakeStore) LTrim(_ context.Context, key string, start, stop int64) error {
	list := f.lists[key]
	if start >= int64(len(list)) {
		f.lists[key] = nil
		return nil
	}
	if stop >= int64(len(list)) {
		stop = int64(len(list)) - 1
	}
	f.lists[key] = list[start : stop+1]
	return nil
}

func record(id, query string, at time.Time) *domanalytics.QueryRecord {
	return &domanalytics.QueryRecord{
		ID:          id,
		Query:       query,
		Filters:     "tag:go",
		ResultCount: 3,
		LatencyMs:   12,
		ClickedPos:  -1,
		CreatedAt:   at,
	}
}

func TestAppendRecent_RoundTrip(t *testing.T) {
	repo := New(newFakeStore())
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	if err := repo.Append(context.Background(), record("r1", "go pipelines", now)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Append(context.Background(), record("r2", "redis streams", now.Add(time.Minute))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := repo.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	// newest first
	if records[0].ID != "r2" || records[1].ID != "r1" {
		t.Errorf("order = %s, %s, want r2, r1", records[0].ID, records[1].ID)
	}
	got := records[1]
	if got.Query != "go pipelines" || got.Filters != "tag:go" || got.ResultCount != 3 ||
		got.LatencyMs != 12 || !got.CreatedAt.Equal(now) {
		t.Errorf("record mangled: %+v", got)
	}
	if got.ClickedID != "" || got.ClickedPos != -1 {
		t.Errorf("fresh record must be un-clicked: %+v", got)
	}
}

func TestAttachClick_MostRecentMatch(t *testing.T) {
	repo := New(newFakeStore())
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	for i, at := range []time.Time{now, now.Add(time.Minute), now.Add(2 * time.Minute)} {
		id := []string{"old", "mid", "new"}[i]
		if err := repo.Append(context.Background(), record(id, "go pipelines", at)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	attached, err := repo.AttachClick(context.Background(), &domanalytics.Click{
		Query:    "go pipelines",
		ResultID: "item-7",
		Position: 2,
	}, 30*time.Minute, now.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !attached {
		t.Fatal("expected click to attach")
	}

	records, _ := repo.Recent(context.Background(), 10)
	if records[0].ClickedID != "item-7" || records[0].ClickedPos != 2 {
		t.Errorf("newest record not clicked: %+v", records[0])
	}
	if records[1].ClickedID != "" || records[2].ClickedID != "" {
		t.Error("older records must stay un-clicked")
	}
}

func TestAttachClick_SkipsAlreadyClicked(t *testing.T) {
	repo := New(newFakeStore())
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	if err := repo.Append(context.Background(), record("r1", "go", now)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Append(context.Background(), record("r2", "go", now.Add(time.Minute))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	click := &domanalytics.Click{Query: "go", ResultID: "a", Position: 0}
	if ok, _ := repo.AttachClick(context.Background(), click, time.Hour, now.Add(2*time.Minute)); !ok {
		t.Fatal("first click must attach")
	}
	second := &domanalytics.Click{Query: "go", ResultID: "b", Position: 1}
	if ok, _ := repo.AttachClick(context.Background(), second, time.Hour, now.Add(2*time.Minute)); !ok {
		t.Fatal("second click must attach to the older record")
	}

	records, _ := repo.Recent(context.Background(), 10)
	if records[0].ClickedID != "a" || records[1].ClickedID != "b" {
		t.Errorf("clicks = %q, %q, want a then b", records[0].ClickedID, records[1].ClickedID)
	}
}

func TestAttachClick_OutsideWindow(t *testing.T) {
	repo := New(newFakeStore())
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	if err := repo.Append(context.Background(), record("r1", "go", now)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attached, err := repo.AttachClick(context.Background(), &domanalytics.Click{
		Query:    "go",
		ResultID: "a",
	}, 30*time.Minute, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attached {
		t.Error("click outside the window must not attach")
	}
}

func TestAttachClick_NoMatchingQuery(t *testing.T) {
	repo := New(newFakeStore())
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	if err := repo.Append(context.Background(), record("r1", "go", now)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attached, err := repo.AttachClick(context.Background(), &domanalytics.Click{
		Query:    "rust",
		ResultID: "a",
	}, time.Hour, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attached {
		t.Error("mismatched query must not attach")
	}
}
