package domain

import "time"

// KeyPrefix namespaces all store keys owned by this subsystem.
const KeyPrefix = "discovery:"

// ContentType discriminates the searchable content kinds.
type ContentType string

// Searchable content kinds.
const (
	TypePost         ContentType = "post"
	TypePerson       ContentType = "person"
	TypeOrganization ContentType = "organization"
)

// IsValid checks if the content type is one of the supported kinds.
func (t ContentType) IsValid() bool {
	return t == TypePost || t == TypePerson || t == TypeOrganization
}

// AllContentTypes returns every searchable kind in merge order.
// The order is fixed: deterministic result assembly depends on it.
func AllContentTypes() []ContentType {
	return []ContentType{TypePost, TypePerson, TypeOrganization}
}

// Status is the publication state of a content item.
type Status string

// Publication states. Only published items are searchable by non-owners.
const (
	StatusPublished Status = "published"
	StatusDraft     Status = "draft"
	StatusArchived  Status = "archived"
)

// Engagement holds the cumulative interaction counters of an item.
type Engagement struct {
	Views    int64
	Likes    int64
	Comments int64
	Shares   int64
}

// Total returns the sum of all interaction counters.
func (e Engagement) Total() int64 {
	return e.Views + e.Likes + e.Comments + e.Shares
}

// ContentItem is the immutable snapshot of one item as read by this
// subsystem. Hydrated from storage, never mutated.
type ContentItem struct {
	ID          string
	Kind        ContentType
	Title       string
	Body        string
	Summary     string
	Status      Status
	AuthorID    string
	OrgID       string
	OrgVerified bool
	PublishedAt time.Time
	Engagement  Engagement
	CategoryIDs []string
	Tags        []string
	ReadingTime int // minutes, 0 when unknown
}

// VisibleTo reports whether the actor may see this item. Published items are
// visible to everyone; drafts only to their author.
func (c *ContentItem) VisibleTo(actor ActorContext) bool {
	if c.Status == StatusPublished {
		return true
	}
	return !actor.IsAnonymous() && c.AuthorID == actor.ID
}
