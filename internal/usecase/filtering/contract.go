package filtering

import "context"

// TaxonomyResolver maps human-readable filter values to canonical ids.
type TaxonomyResolver interface {
	ResolveCategories(ctx context.Context, slugs []string) ([]string, error)
	ResolveAuthors(ctx context.Context, handles []string) ([]string, error)
	KnownTags(ctx context.Context, tags []string) ([]string, error)
}
