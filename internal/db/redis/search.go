package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/lumenpress/discovery/internal/db"
)

// SearchText runs a full-text search via FT.SEARCH with optional field
// sorting and excerpt summarization.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	args := []string{q.IndexName, buildQueryString(q)}

	if q.Summarize != nil {
		args = append(args, buildSummarizeArgs(q.Summarize)...)
	}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	if q.SortBy != "" {
		dir := "ASC"
		if q.SortDesc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy, dir)
	} else {
		args = append(args, "WITHSCORES")
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseSearchResult(raw, q.SortBy == "")
}

// SearchCount returns the match count via FT.SEARCH with LIMIT 0 0.
// Kept as a separate pass so page fetches stay bounded regardless of the
// total match cardinality.
func (s *Store) SearchCount(ctx context.Context, q *db.TextQuery) (int, error) {
	if q.IndexName == "" {
		return 0, fmt.Errorf("index name is required")
	}
	cmd := s.b().Arbitrary("FT.SEARCH").
		Args(q.IndexName, buildQueryString(q), "LIMIT", "0", "0", "DIALECT", "2").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// Aggregate runs a grouped counting pass via FT.AGGREGATE.
// Groups come back ordered by count descending, group value ascending, so
// ties at the top-K boundary resolve deterministically.
func (s *Store) Aggregate(ctx context.Context, q *db.AggregateQuery) ([]db.AggregateRow, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.GroupBy == "" {
		return nil, fmt.Errorf("group-by field is required")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	args := []string{q.IndexName, buildQueryString(&db.TextQuery{Text: q.Text, Predicate: q.Predicate})}

	if len(q.Load) > 0 {
		args = append(args, "LOAD", strconv.Itoa(len(q.Load)))
		for _, f := range q.Load {
			args = append(args, "@"+f)
		}
	}
	if q.Apply != nil {
		args = append(args, "APPLY", q.Apply.Expression, "AS", q.Apply.As)
	}

	args = append(args,
		"GROUPBY", "1", "@"+q.GroupBy,
		"REDUCE", "COUNT", "0", "AS", "count",
		"SORTBY", "4", "@count", "DESC", "@"+q.GroupBy, "ASC",
		"LIMIT", "0", strconv.Itoa(limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	return parseAggregateResult(raw, q.GroupBy)
}

// --- Query assembly ---

// buildQueryString joins the prebuilt predicate with the escaped text part.
func buildQueryString(q *db.TextQuery) string {
	textPart := buildTextPart(q)

	switch {
	case q.Predicate == "" && textPart == "":
		return "*"
	case textPart == "":
		return q.Predicate
	case q.Predicate == "":
		return textPart
	default:
		return q.Predicate + " " + textPart
	}
}

func buildTextPart(q *db.TextQuery) string {
	if q.Text == "" {
		return ""
	}

	tokens := strings.Fields(q.Text)
	escaped := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		e := db.EscapeText(tok)
		switch {
		case q.Prefix:
			e += "*"
		case q.Fuzzy && len(tok) > 3:
			// short tokens fuzz into too much noise
			e = "%" + e + "%"
		}
		escaped = append(escaped, e)
	}
	joined := strings.Join(escaped, " ")

	if len(q.TextFields) > 0 {
		return fmt.Sprintf("@%s:(%s)", strings.Join(q.TextFields, "|"), joined)
	}
	return "(" + joined + ")"
}

func buildSummarizeArgs(spec *db.SummarizeSpec) []string {
	args := []string{"SUMMARIZE"}
	if len(spec.Fields) > 0 {
		args = append(args, "FIELDS", strconv.Itoa(len(spec.Fields)))
		args = append(args, spec.Fields...)
	}
	if spec.Fragments > 0 {
		args = append(args, "FRAGS", strconv.Itoa(spec.Fragments))
	}
	if spec.Words > 0 {
		args = append(args, "LEN", strconv.Itoa(spec.Words))
	}
	if spec.Separator != "" {
		args = append(args, "SEPARATOR", spec.Separator)
	}
	return args
}

// --- Result parsing ---

// parseSearchResult handles both reply shapes: with WITHSCORES the reply is
// a 3-stride [total, key1, score1, fields1, ...], with SORTBY a 2-stride
// [total, key1, fields1, ...].
func parseSearchResult(raw []rueidis.RedisMessage, withScores bool) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	stride := 2
	if withScores {
		stride = 3
	}

	entries := make([]db.SearchEntry, 0, total)
	for i := 1; i+stride-1 < len(raw); i += stride {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{Key: key}

		if withScores {
			scoreStr, err := raw[i+1].ToString()
			if err != nil {
				continue
			}
			if score, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				entry.Score = score
			}
		}

		fields, err := raw[i+stride-1].ToArray()
		if err != nil {
			continue
		}
		entry.Fields = parseFieldPairs(fields)

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseAggregateResult(raw []rueidis.RedisMessage, groupBy string) ([]db.AggregateRow, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	rows := make([]db.AggregateRow, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		pairs, err := raw[i].ToArray()
		if err != nil {
			continue
		}
		m := parseFieldPairs(pairs)

		count, err := strconv.Atoi(m["count"])
		if err != nil {
			continue
		}
		rows = append(rows, db.AggregateRow{Value: m[groupBy], Count: count})
	}
	return rows, nil
}

func parseFieldPairs(pairs []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		name, err := pairs[i].ToString()
		if err != nil {
			continue
		}
		value, err := pairs[i+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
