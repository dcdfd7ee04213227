package taxonomy

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lumenpress/discovery/internal/domain"
)

// store is the consumer interface for taxonomy lookups (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, val int64) error
}

// Registry keys. Categories and authors map human-readable handles to ids;
// tags map canonical tag text to a usage count.
func categoriesKey() string { return domain.KeyPrefix + "categories" }
func authorsKey() string    { return domain.KeyPrefix + "authors" }
func tagsKey() string       { return domain.KeyPrefix + "tags" }

// TagCount is one known tag with its usage count.
type TagCount struct {
	Tag   string
	Count int
}

// Repo resolves filter dimension values to candidate id sets. The filter
// compiler depends on it to distinguish "no filter" from "filter that
// matches nothing".
type Repo struct {
	store store
}

// New creates a taxonomy repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// ResolveCategories maps category slugs to ids, dropping unknown slugs.
// An all-unknown input yields an empty slice; the compiler turns that into
// the empty-result short circuit.
func (r *Repo) ResolveCategories(ctx context.Context, slugs []string) ([]string, error) {
	return r.resolve(ctx, categoriesKey(), slugs, "categories")
}

// ResolveAuthors maps author handles to ids, dropping unknown handles.
func (r *Repo) ResolveAuthors(ctx context.Context, handles []string) ([]string, error) {
	return r.resolve(ctx, authorsKey(), handles, "authors")
}

func (r *Repo) resolve(ctx context.Context, key string, values []string, what string) ([]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	known, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", what, err)
	}
	ids := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		id, ok := known[strings.ToLower(strings.TrimSpace(v))]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// KnownTags keeps only tags present in the registry, preserving input
// order. Tag text is canonicalized to lower case.
func (r *Repo) KnownTags(ctx context.Context, tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	registry, err := r.store.HGetAll(ctx, tagsKey())
	if err != nil {
		return nil, fmt.Errorf("resolve tags: %w", err)
	}
	known := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		canonical := strings.ToLower(strings.TrimSpace(t))
		if _, ok := registry[canonical]; !ok || seen[canonical] {
			continue
		}
		seen[canonical] = true
		known = append(known, canonical)
	}
	return known, nil
}

// TagsWithPrefix lists registered tags starting with the prefix, ordered by
// usage count descending then tag ascending.
func (r *Repo) TagsWithPrefix(ctx context.Context, prefix string, limit int) ([]TagCount, error) {
	registry, err := r.store.HGetAll(ctx, tagsKey())
	if err != nil {
		return nil, fmt.Errorf("tags with prefix: %w", err)
	}

	prefix = strings.ToLower(prefix)
	matches := make([]TagCount, 0)
	for tag, countStr := range registry {
		if !strings.HasPrefix(tag, prefix) {
			continue
		}
		count, _ := strconv.Atoi(countStr)
		matches = append(matches, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Count != matches[j].Count {
			return matches[i].Count > matches[j].Count
		}
		return matches[i].Tag < matches[j].Tag
	})
	if len(matches) > limit && limit > 0 {
		matches = matches[:limit]
	}
	return matches, nil
}

// RegisterCategory records a slug→id mapping (ingestion glue).
func (r *Repo) RegisterCategory(ctx context.Context, slug, id string) error {
	if err := r.store.HSet(ctx, categoriesKey(), map[string]string{strings.ToLower(slug): id}); err != nil {
		return fmt.Errorf("register category %s: %w", slug, err)
	}
	return nil
}

// RegisterAuthor records a handle→id mapping (ingestion glue).
func (r *Repo) RegisterAuthor(ctx context.Context, handle, id string) error {
	if err := r.store.HSet(ctx, authorsKey(), map[string]string{strings.ToLower(handle): id}); err != nil {
		return fmt.Errorf("register author %s: %w", handle, err)
	}
	return nil
}

// BumpTag increments a tag's usage count, creating it on first use.
func (r *Repo) BumpTag(ctx context.Context, tag string) error {
	canonical := strings.ToLower(strings.TrimSpace(tag))
	if canonical == "" {
		return nil
	}
	if err := r.store.HIncrBy(ctx, tagsKey(), canonical, 1); err != nil {
		return fmt.Errorf("bump tag %s: %w", canonical, err)
	}
	return nil
}
