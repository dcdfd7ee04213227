package suggest

import (
	"context"

	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/repository/taxonomy"
)

// TitleSuggester matches published titles by prefix.
type TitleSuggester interface {
	SuggestTitles(ctx context.Context, kind domain.ContentType, prefix string, limit int) ([]string, error)
}

// TagSuggester matches known tags by prefix.
type TagSuggester interface {
	TagsWithPrefix(ctx context.Context, prefix string, limit int) ([]taxonomy.TagCount, error)
}
