package db

import (
	"fmt"
	"strings"

	"github.com/lumenpress/discovery/internal/domain"
	"github.com/lumenpress/discovery/internal/domain/search/filter"
)

// Predicate compiles a canonical filter set into an FT.SEARCH filter
// expression. Each dimension compiles to an independent clause and the
// clauses are joined conjunctively; values are escaped individually, never
// concatenated from raw input.
//
// Dimension semantics:
//   - tags: one clause per tag (ALL must be present on the item)
//   - categories/authors: one clause per dimension, values OR'ed inside it
//   - date range: inclusive on both bounds
//   - visibility: published items, widened to the actor's own drafts
func Predicate(s *filter.Set) string {
	clauses := []string{visibilityClause(s.VisibleTo)}

	if len(s.CategoryIDs) > 0 {
		clauses = append(clauses, orTagClause(FieldCategories, s.CategoryIDs))
	}
	for _, tag := range s.Tags {
		clauses = append(clauses, tagClause(FieldTags, tag))
	}
	if len(s.AuthorIDs) > 0 {
		clauses = append(clauses, orTagClause(FieldAuthorID, s.AuthorIDs))
	}
	if s.Organization != "" {
		clauses = append(clauses, tagClause(FieldOrgID, s.Organization))
	}
	if s.DateRange != nil {
		from, to := "-inf", "+inf"
		if !s.DateRange.From.IsZero() {
			from = fmt.Sprintf("%d", s.DateRange.From.Unix())
		}
		if !s.DateRange.To.IsZero() {
			to = fmt.Sprintf("%d", s.DateRange.To.Unix())
		}
		clauses = append(clauses, fmt.Sprintf("@%s:[%s %s]", FieldPublishedAt, from, to))
	}
	for _, field := range sortedRangeFields(s.NumericRanges) {
		clauses = append(clauses, numericClause(field, s.NumericRanges[field]))
	}

	return strings.Join(clauses, " ")
}

func visibilityClause(actorID string) string {
	published := tagClause(FieldStatus, string(domain.StatusPublished))
	if actorID == "" {
		return published
	}
	return fmt.Sprintf("(%s | %s)", published, tagClause(FieldAuthorID, actorID))
}

func tagClause(field, value string) string {
	return fmt.Sprintf("@%s:{%s}", field, tagEscaper.Replace(value))
}

func orTagClause(field string, values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v)
	}
	return fmt.Sprintf("@%s:{%s}", field, strings.Join(escaped, " | "))
}

func numericClause(field string, r filter.NumericRange) string {
	maxBound := "+inf"
	if r.Max != nil {
		maxBound = fmt.Sprintf("%g", *r.Max)
	}
	return fmt.Sprintf("@%s:[%g %s]", field, r.Min, maxBound)
}

// sortedRangeFields returns range field names in ascending order so the
// compiled predicate is byte-stable across calls (map iteration is not).
func sortedRangeFields(ranges map[string]filter.NumericRange) []string {
	if len(ranges) == 0 {
		return nil
	}
	fields := make([]string, 0, len(ranges))
	for f := range ranges {
		fields = append(fields, f)
	}
	for i := 1; i < len(fields); i++ {
		for j := i; j > 0 && fields[j] < fields[j-1]; j-- {
			fields[j], fields[j-1] = fields[j-1], fields[j]
		}
	}
	return fields
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

// EscapeText escapes user query text for safe embedding in an FT.SEARCH
// expression.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)
