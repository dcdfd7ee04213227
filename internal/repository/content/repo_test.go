package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lumenpress/discovery/internal/db"
	"github.com/lumenpress/discovery/internal/domain"
)

type fakeStore struct {
	hashes       map[string]map[string]string
	createdIdx   []string
	createIdxErr error
	deletedKeys  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{hashes: make(map[string]map[string]string)}
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

func (f *fakeStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = f.hashes[k]
	}
	return out, nil
}

func (f *fakeStore) Del(_ context.Context, key string) error {
	f.deletedKeys = append(f.deletedKeys, key)
	delete(f.hashes, key)
	return nil
}

func (f *fakeStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if f.createIdxErr != nil {
		return f.createIdxErr
	}
	f.createdIdx = append(f.createdIdx, def.Name)
	return nil
}

func sampleItem() domain.ContentItem {
	return domain.ContentItem{
		ID:          "p1",
		Kind:        domain.TypePost,
		Title:       "Pipelines in practice",
		Body:        "Long form body",
		Summary:     "Short form",
		Status:      domain.StatusPublished,
		AuthorID:    "alice",
		OrgID:       "acme",
		OrgVerified: true,
		CategoryIDs: []string{"eng", "infra"},
		Tags:        []string{"go", "redis"},
		PublishedAt: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
		ReadingTime: 7,
		Engagement:  domain.Engagement{Views: 100, Likes: 10, Comments: 3, Shares: 2},
	}
}

func TestPutGet_RoundTrip(t *testing.T) {
	store := newFakeStore()
	repo := New(store)
	item := sampleItem()

	if err := repo.Put(context.Background(), &item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := repo.Get(context.Background(), domain.TypePost, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.ID != item.ID || got.Title != item.Title || got.Status != item.Status {
		t.Errorf("got %+v, want %+v", got, item)
	}
	if !got.PublishedAt.Equal(item.PublishedAt) {
		t.Errorf("publishedAt = %v, want %v", got.PublishedAt, item.PublishedAt)
	}
	if got.Engagement != item.Engagement {
		t.Errorf("engagement = %+v, want %+v", got.Engagement, item.Engagement)
	}
	if len(got.CategoryIDs) != 2 || len(got.Tags) != 2 {
		t.Errorf("taxonomy lost: %v %v", got.CategoryIDs, got.Tags)
	}
	if !got.OrgVerified || got.ReadingTime != 7 {
		t.Errorf("optional fields lost: %+v", got)
	}
}

func TestPut_Validation(t *testing.T) {
	repo := New(newFakeStore())

	item := sampleItem()
	item.ID = ""
	if err := repo.Put(context.Background(), &item); err == nil {
		t.Error("expected error for empty id")
	}

	item = sampleItem()
	item.Kind = "video"
	if err := repo.Put(context.Background(), &item); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := New(newFakeStore())

	_, err := repo.Get(context.Background(), domain.TypePost, "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGetMulti_SkipsMissing(t *testing.T) {
	store := newFakeStore()
	repo := New(store)
	item := sampleItem()
	if err := repo.Put(context.Background(), &item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, err := repo.GetMulti(context.Background(), domain.TypePost, []string{"p1", "gone"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "p1" {
		t.Errorf("items = %+v, want just p1", items)
	}
}

func TestEnsureIndexes(t *testing.T) {
	store := newFakeStore()
	repo := New(store)

	if err := repo.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.createdIdx) != len(domain.AllContentTypes()) {
		t.Errorf("created %d indexes, want one per kind", len(store.createdIdx))
	}
}

func TestEnsureIndexes_TolerantOfExisting(t *testing.T) {
	store := newFakeStore()
	store.createIdxErr = db.ErrIndexExists
	repo := New(store)

	if err := repo.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("existing indexes must not fail startup: %v", err)
	}
}

func TestParseItem_EmptyOptionalFields(t *testing.T) {
	got := ParseItem(domain.TypePerson, map[string]string{
		"id":           "u1",
		db.FieldTitle:  "Grace Hopper",
		db.FieldStatus: "published",
	})

	if got.CategoryIDs != nil || got.Tags != nil {
		t.Errorf("empty taxonomy must stay nil: %v %v", got.CategoryIDs, got.Tags)
	}
	if got.OrgVerified || got.ReadingTime != 0 {
		t.Errorf("unexpected defaults: %+v", got)
	}
}
