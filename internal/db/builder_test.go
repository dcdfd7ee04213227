package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_Simple(t *testing.T) {
	idx := NewIndex("idx:post").
		Prefix("content:post:").
		Tag("category").
		NumericSortable("published_at").
		MustBuild()

	if err := idx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Name != "idx:post" {
		t.Errorf("name = %q, want idx:post", idx.Name)
	}
	if len(idx.Fields) != 2 {
		t.Fatalf("fields count = %d, want 2", len(idx.Fields))
	}
	if idx.Fields[0].Name != "category" || idx.Fields[0].Type != IndexFieldTag {
		t.Errorf("field[0] = %+v, want category TAG", idx.Fields[0])
	}
	if idx.Fields[1].Name != "published_at" || !idx.Fields[1].Sortable {
		t.Errorf("field[1] = %+v, want published_at NUMERIC SORTABLE", idx.Fields[1])
	}
}

func TestIndexBuilder_TextWeighted(t *testing.T) {
	idx := NewIndex("idx:post").
		Prefix("content:post:").
		TextWeighted("title", 2).
		Text("body").
		MustBuild()

	if idx.Fields[0].TextWeight != 2 {
		t.Errorf("weight = %v, want 2", idx.Fields[0].TextWeight)
	}
	if idx.Fields[1].TextWeight != 0 {
		t.Errorf("weight = %v, want default", idx.Fields[1].TextWeight)
	}
}

func TestIndexBuilder_TagSeparator(t *testing.T) {
	idx := NewIndex("idx:post").
		Prefix("content:post:").
		TagWithSeparator("tags", ",").
		MustBuild()

	if idx.Fields[0].TagSeparator != "," {
		t.Errorf("separator = %q, want comma", idx.Fields[0].TagSeparator)
	}
}

func TestIndexBuilder_Invalid(t *testing.T) {
	if _, err := NewIndex("").Tag("f").Build(); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := NewIndex("bad name!").Tag("f").Build(); err == nil {
		t.Error("expected error for invalid identifier")
	}
	if _, err := NewIndex("idx").Build(); err == nil {
		t.Error("expected error for no fields")
	}
	if _, err := NewIndex("idx").Tag("f").Tag("f").Build(); err == nil {
		t.Error("expected error for duplicate field")
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx := NewIndex("idx:post").
		Prefix("content:post:").
		Tag("status").
		NumericSortable("views").
		MustBuild()

	s := idx.String()
	for _, want := range []string{"FT.CREATE idx:post", "PREFIX content:post:", "status TAG", "views NUMERIC SORTABLE"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestIsValidIdentifier(t *testing.T) {
	valid := []string{"idx:post", "a-b_c:1", "X"}
	invalid := []string{"", "has space", "semi;colon", "star*"}

	for _, s := range valid {
		if !IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = true, want false", s)
		}
	}
}
