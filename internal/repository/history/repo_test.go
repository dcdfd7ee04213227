package history

import (
	"context"
	"sort"
	"testing"
	"time"
)

type zEntry struct {
	member string
	score  float64
}

type fakeStore struct {
	zsets map[string][]zEntry
	sets  map[string]map[string]struct{}

	lastLimit int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		zsets: make(map[string][]zEntry),
		sets:  make(map[string]map[string]struct{}),
	}
}

func (f *fakeStore) ZAdd(_ context.Context, key string, score float64, member string) error {
	f.zsets[key] = append(f.zsets[key], zEntry{member: member, score: score})
	return nil
}

func (f *fakeStore) ZRangeByScoreRev(
	_ context.Context, key string, min, max float64, limit int,
) ([]string, error) {
	f.lastLimit = limit
	entries := make([]zEntry, 0)
	for _, e := range f.zsets[key] {
		if e.score >= min && e.score <= max {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].score > entries[j].score })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.member
	}
	return ids, nil
}

func (f *fakeStore) SAdd(_ context.Context, key string, members ...string) error {
	if f.sets[key] == nil {
		f.sets[key] = make(map[string]struct{})
	}
	for _, m := range members {
		f.sets[key][m] = struct{}{}
	}
	return nil
}

func (f *fakeStore) SMembers(_ context.Context, key string) ([]string, error) {
	members := make([]string, 0, len(f.sets[key]))
	for m := range f.sets[key] {
		members = append(members, m)
	}
	sort.Strings(members)
	return members, nil
}

func TestRecentViewIDs_WindowAndOrder(t *testing.T) {
	store := newFakeStore()
	repo := New(store)
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	views := []struct {
		id string
		at time.Time
	}{
		{"v-old", now.Add(-40 * 24 * time.Hour)},
		{"v1", now.Add(-2 * time.Hour)},
		{"v2", now.Add(-10 * time.Minute)},
		{"v3", now.Add(-8 * 24 * time.Hour)},
	}
	for _, v := range views {
		if err := repo.RecordView(ctx, "alice", v.id, v.at); err != nil {
			t.Fatalf("record view: %v", err)
		}
	}

	got, err := repo.RecentViewIDs(ctx, "alice", now.Add(-30*24*time.Hour), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"v2", "v1", "v3"}
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if store.lastLimit != MaxViewsRead {
		t.Errorf("read limit = %d, want %d", store.lastLimit, MaxViewsRead)
	}
}

func TestRecentViewIDs_NoHistory(t *testing.T) {
	repo := New(newFakeStore())
	now := time.Now()

	got, err := repo.RecentViewIDs(context.Background(), "nobody", now.Add(-time.Hour), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ids = %v, want none", got)
	}
}

func TestFollows_RoundTrip(t *testing.T) {
	store := newFakeStore()
	repo := New(store)
	ctx := context.Background()

	for _, author := range []string{"carol", "dave", "carol"} {
		if err := repo.Follow(ctx, "alice", author); err != nil {
			t.Fatalf("follow: %v", err)
		}
	}

	authors, err := repo.Follows(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(authors) != 2 || authors[0] != "carol" || authors[1] != "dave" {
		t.Errorf("follows = %v", authors)
	}

	other, err := repo.Follows(ctx, "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("follows leaked across actors: %v", other)
	}
}
