package content

import (
	"strconv"
	"strings"
	"time"

	"github.com/lumenpress/discovery/internal/db"
	"github.com/lumenpress/discovery/internal/domain"
)

// tagJoin separates multi-valued TAG entries inside one hash field.
const tagJoin = ","

// itemToFields flattens a ContentItem into the indexed hash layout.
func itemToFields(item *domain.ContentItem) map[string]string {
	fields := map[string]string{
		"id":                item.ID,
		"kind":              string(item.Kind),
		db.FieldTitle:       item.Title,
		db.FieldBody:        item.Body,
		db.FieldSummary:     item.Summary,
		db.FieldStatus:      string(item.Status),
		db.FieldAuthorID:    item.AuthorID,
		db.FieldPublishedAt: strconv.FormatInt(item.PublishedAt.Unix(), 10),
		db.FieldViews:       strconv.FormatInt(item.Engagement.Views, 10),
		db.FieldLikes:       strconv.FormatInt(item.Engagement.Likes, 10),
		db.FieldComments:    strconv.FormatInt(item.Engagement.Comments, 10),
		db.FieldShares:      strconv.FormatInt(item.Engagement.Shares, 10),
		db.FieldEngagement:  strconv.FormatInt(item.Engagement.Total(), 10),
	}
	if item.OrgID != "" {
		fields[db.FieldOrgID] = item.OrgID
	}
	if item.OrgVerified {
		fields[db.FieldOrgVerified] = "true"
	}
	if len(item.CategoryIDs) > 0 {
		fields[db.FieldCategories] = strings.Join(item.CategoryIDs, tagJoin)
	}
	if len(item.Tags) > 0 {
		fields[db.FieldTags] = strings.Join(item.Tags, tagJoin)
	}
	if item.ReadingTime > 0 {
		fields[db.FieldReadingTime] = strconv.Itoa(item.ReadingTime)
	}
	return fields
}

// ParseItem hydrates a ContentItem from its hash fields. Exported because
// the search repository reads the same layout back from FT.SEARCH replies.
func ParseItem(kind domain.ContentType, fields map[string]string) domain.ContentItem {
	item := domain.ContentItem{
		ID:       fields["id"],
		Kind:     kind,
		Title:    fields[db.FieldTitle],
		Body:     fields[db.FieldBody],
		Summary:  fields[db.FieldSummary],
		Status:   domain.Status(fields[db.FieldStatus]),
		AuthorID: fields[db.FieldAuthorID],
		OrgID:    fields[db.FieldOrgID],
	}
	item.OrgVerified = fields[db.FieldOrgVerified] == "true"

	if ts, err := strconv.ParseInt(fields[db.FieldPublishedAt], 10, 64); err == nil {
		item.PublishedAt = time.Unix(ts, 0).UTC()
	}
	item.Engagement = domain.Engagement{
		Views:    parseInt64(fields[db.FieldViews]),
		Likes:    parseInt64(fields[db.FieldLikes]),
		Comments: parseInt64(fields[db.FieldComments]),
		Shares:   parseInt64(fields[db.FieldShares]),
	}
	if v := fields[db.FieldCategories]; v != "" {
		item.CategoryIDs = strings.Split(v, tagJoin)
	}
	if v := fields[db.FieldTags]; v != "" {
		item.Tags = strings.Split(v, tagJoin)
	}
	if v := fields[db.FieldReadingTime]; v != "" {
		item.ReadingTime = int(parseInt64(v))
	}
	return item
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
