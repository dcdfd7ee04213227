package suggest

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumenpress/discovery/internal/domain"
)

// Suggestion categories.
const (
	CategoryTag          = "tag"
	CategoryPost         = "post"
	CategoryPerson       = "person"
	CategoryOrganization = "organization"
)

// Suggestion is one autocompletion candidate.
type Suggestion struct {
	Text     string
	Category string
	Count    int // matching items for tag suggestions, 0 for titles
}

// Service serves typeahead suggestions from titles and the tag registry.
type Service struct {
	titles   TitleSuggester
	tags     TagSuggester
	minChars int
	limit    int
}

// New creates a suggestion service.
func New(titles TitleSuggester, tags TagSuggester, minChars, limit int) *Service {
	return &Service{titles: titles, tags: tags, minChars: minChars, limit: limit}
}

// Suggest returns up to limit candidates for a partial query. Inputs below
// the minimum length return empty without touching the store; the endpoint
// fires on every keystroke and the first characters are pure noise.
func (s *Service) Suggest(
	ctx context.Context, partial string, kinds []domain.ContentType, limit int,
) ([]Suggestion, error) {
	partial = strings.TrimSpace(partial)
	if len([]rune(partial)) < s.minChars {
		return nil, nil
	}
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}
	if len(kinds) == 0 {
		kinds = domain.AllContentTypes()
	}

	out := make([]Suggestion, 0, limit)
	seen := make(map[string]bool, limit)

	tagMatches, err := s.tags.TagsWithPrefix(ctx, strings.ToLower(partial), limit)
	if err != nil {
		return nil, fmt.Errorf("tag suggestions: %w", err)
	}
	for _, tc := range tagMatches {
		if len(out) == limit {
			return out, nil
		}
		if seen[tc.Tag] {
			continue
		}
		seen[tc.Tag] = true
		out = append(out, Suggestion{Text: tc.Tag, Category: CategoryTag, Count: tc.Count})
	}

	for _, kind := range kinds {
		if len(out) == limit {
			break
		}
		titles, err := s.titles.SuggestTitles(ctx, kind, partial, limit-len(out))
		if err != nil {
			return nil, fmt.Errorf("title suggestions: %w", err)
		}
		for _, title := range titles {
			if len(out) == limit {
				break
			}
			key := strings.ToLower(title)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Suggestion{Text: title, Category: string(kind)})
		}
	}
	return out, nil
}
