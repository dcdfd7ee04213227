package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenpress/discovery/internal/db"
	"github.com/lumenpress/discovery/internal/domain"
)

// store is the consumer interface for content operations (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Repo reads and writes content item snapshots and owns the per-kind
// FT index definitions they are mounted under.
type Repo struct {
	store store
}

// New creates a content repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// ItemKey returns the hash key of one item.
func ItemKey(kind domain.ContentType, id string) string {
	return fmt.Sprintf("%sitem:%s:%s", domain.KeyPrefix, kind, id)
}

// IndexName returns the FT index name for one content kind.
func IndexName(kind domain.ContentType) string {
	return fmt.Sprintf("%sidx:%s", domain.KeyPrefix, kind)
}

// keyPrefix is the shared key prefix of one kind's item hashes.
func keyPrefix(kind domain.ContentType) string {
	return fmt.Sprintf("%sitem:%s:", domain.KeyPrefix, kind)
}

// EnsureIndexes creates the per-kind FT indexes, tolerating ones that
// already exist.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	for _, kind := range domain.AllContentTypes() {
		def := indexDefinition(kind)
		if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("create index %s: %w", def.Name, err)
		}
	}
	return nil
}

func indexDefinition(kind domain.ContentType) *db.IndexDefinition {
	return db.NewIndex(IndexName(kind)).
		Prefix(keyPrefix(kind)).
		TextWeighted(db.FieldTitle, 5).
		Text(db.FieldBody).
		Text(db.FieldSummary).
		Tag(db.FieldStatus).
		Tag(db.FieldAuthorID).
		Tag(db.FieldOrgID).
		Tag(db.FieldOrgVerified).
		TagWithSeparator(db.FieldCategories, tagJoin).
		TagWithSeparator(db.FieldTags, tagJoin).
		NumericSortable(db.FieldPublishedAt).
		NumericSortable(db.FieldViews).
		NumericSortable(db.FieldEngagement).
		Numeric(db.FieldReadingTime).
		MustBuild()
}

// Put stores an item snapshot under the indexed hash layout. The authoring
// workflow lives upstream; this write path exists so ingestion lands
// content in the exact shape the indexes mount.
func (r *Repo) Put(ctx context.Context, item *domain.ContentItem) error {
	if item.ID == "" {
		return fmt.Errorf("item id is required")
	}
	if !item.Kind.IsValid() {
		return fmt.Errorf("unknown content kind %q", item.Kind)
	}
	if err := r.store.HSet(ctx, ItemKey(item.Kind, item.ID), itemToFields(item)); err != nil {
		return fmt.Errorf("put item %s: %w", item.ID, err)
	}
	return nil
}

// Get fetches one item snapshot.
func (r *Repo) Get(ctx context.Context, kind domain.ContentType, id string) (domain.ContentItem, error) {
	fields, err := r.store.HGetAll(ctx, ItemKey(kind, id))
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("get item %s: %w", id, err)
	}
	if len(fields) == 0 {
		return domain.ContentItem{}, fmt.Errorf("item %s/%s: %w", kind, id, domain.ErrNotFound)
	}
	return ParseItem(kind, fields), nil
}

// GetMulti fetches item snapshots in one pipelined round-trip.
// Missing ids are skipped, not errored: callers hold ids from histories and
// snapshots that may outlive the items themselves.
func (r *Repo) GetMulti(ctx context.Context, kind domain.ContentType, ids []string) ([]domain.ContentItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ItemKey(kind, id)
	}
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	items := make([]domain.ContentItem, 0, len(maps))
	for _, fields := range maps {
		if len(fields) == 0 {
			continue
		}
		items = append(items, ParseItem(kind, fields))
	}
	return items, nil
}

// Delete removes one item snapshot.
func (r *Repo) Delete(ctx context.Context, kind domain.ContentType, id string) error {
	if err := r.store.Del(ctx, ItemKey(kind, id)); err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	return nil
}
