package relevance

import (
	"context"
	"fmt"

	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/domain/search/filter"
	"github.com/lumenpress/discovery/internal/domain/search/plan"
	"github.com/lumenpress/discovery/internal/domain/search/request"
	"github.com/lumenpress/discovery/internal/domain/search/result"
	"github.com/lumenpress/discovery/internal/repository/search"
)

// Service ranks matches for one content kind. The store returns a scored
// page, the service re-sorts it in process to pin the full tie-break chain
// (score, then published-at, then id) so equal-score items never shuffle
// between identical requests.
type Service struct {
	repo Repository
}

// New creates a relevance ranking service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Rank fetches and orders one page of matches for a single content kind.
// The returned total is the full match count for the query, independent of
// the page bounds.
func (s *Service) Rank(
	ctx context.Context, kind domain.ContentType,
	text string, set *filter.Set, pl plan.Plan, page request.Page,
) ([]result.Scored, int, error) {
	// Fetch from position zero through the requested page so the
	// in-process re-sort sees every candidate that could land on it.
	fetch := page.Offset() + page.Limit()
	if pl.MaxResults > 0 && fetch > pl.MaxResults {
		fetch = pl.MaxResults
	}
	if fetch <= page.Offset() {
		return nil, 0, nil
	}

	hits, total, err := s.repo.Search(ctx, kind, &search.Params{
		Text:      text,
		Filters:   set,
		Fuzzy:     pl.Fuzzy,
		Offset:    0,
		Limit:     fetch,
		SortBy:    set.SortBy,
		SortOrder: set.SortOrder,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search %s: %w", kind, err)
	}

	reason := rankReason(text, set.SortBy)
	scored := make([]result.Scored, len(hits))
	for i, h := range hits {
		scored[i] = result.Scored{
			Item:    h.Item,
			Score:   h.Score,
			Reason:  reason,
			Excerpt: h.Excerpt,
		}
	}

	if set.SortBy == filter.SortRelevance {
		result.SortByRelevance(scored)
	} else {
		result.SortByField(scored, set.SortBy, set.SortOrder)
	}

	if page.Offset() >= len(scored) {
		return nil, total, nil
	}
	scored = scored[page.Offset():]
	if len(scored) > page.Limit() {
		scored = scored[:page.Limit()]
	}
	result.Renumber(scored)
	return scored, total, nil
}

func rankReason(text string, sortBy filter.SortKey) result.RankReason {
	if text != "" {
		return result.ReasonTextMatch
	}
	switch sortBy {
	case filter.SortViews, filter.SortEngagement:
		return result.ReasonPopularity
	default:
		return result.ReasonRecency
	}
}
