package search

import (
	"encoding/json"
	"testing"

	meili "github.com/meilisearch/meilisearch-go"
)

func TestParsePgTextArray(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty literal", "{}", nil},
		{"single id", "{usr_1}", []string{"usr_1"}},
		{"multiple ids", "{usr_1,usr_2,usr_3}", []string{"usr_1", "usr_2", "usr_3"}},
		{"null aggregate", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePgTextArray(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("parsePgTextArray(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("parsePgTextArray(%q)[%d] = %q, want %q", tt.raw, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFirstNonBlank(t *testing.T) {
	if got := firstNonBlank("", "  ", "snippet", "other"); got != "snippet" {
		t.Fatalf("firstNonBlank = %q, want snippet", got)
	}
	if got := firstNonBlank("", "   "); got != "" {
		t.Fatalf("firstNonBlank = %q, want empty", got)
	}
}

func TestHitToResultPrefersHighlightedFields(t *testing.T) {
	hit := meili.Hit{
		"id":       json.RawMessage(`"doc_1"`),
		"authorId": json.RawMessage(`"usr_1"`),
		"title":    json.RawMessage(`"Meeting Notes"`),
		"content":  json.RawMessage(`"plain body"`),
		"_formatted": json.RawMessage(
			`{"title":"Meeting <mark>Notes</mark>","content":"<mark>plain</mark> body"}`,
		),
	}

	got := hitToResult(hit)
	if got.ID != "doc_1" || got.AuthorID != "usr_1" {
		t.Fatalf("unexpected identifiers: %+v", got)
	}
	if got.Title != "Meeting <mark>Notes</mark>" {
		t.Fatalf("Title = %q", got.Title)
	}
	if got.Snippet != "<mark>plain</mark> body" {
		t.Fatalf("Snippet = %q", got.Snippet)
	}
}

func TestHitToResultFallsBackToRawFields(t *testing.T) {
	hit := meili.Hit{
		"id":      json.RawMessage(`"doc_2"`),
		"title":   json.RawMessage(`"Plain"`),
		"content": json.RawMessage(`"body"`),
	}
	got := hitToResult(hit)
	if got.Title != "Plain" || got.Snippet != "body" {
		t.Fatalf("unexpected fallback result: %+v", got)
	}
}
