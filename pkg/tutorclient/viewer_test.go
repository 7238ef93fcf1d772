package tutorclient

import (
	"testing"

	"ai-pdf-tutor-be/pkg/tutor/citation"
)

func TestViewerPageNavigation(t *testing.T) {
	v := NewViewer(10)

	v.Apply(citation.Metadata{Page: 5})
	if v.CurrentPage() != 5 {
		t.Errorf("page = %d, want 5", v.CurrentPage())
	}

	// Pageless citation leaves the page alone.
	v.Apply(citation.Metadata{Sentences: []string{"x"}})
	if v.CurrentPage() != 5 {
		t.Errorf("page = %d, want unchanged 5", v.CurrentPage())
	}

	// Out-of-range hallucinated page clamps to the document.
	v.Apply(citation.Metadata{Page: 40})
	if v.CurrentPage() != 10 {
		t.Errorf("page = %d, want clamped 10", v.CurrentPage())
	}
}

func TestViewerHighlightReplacementAndPersistence(t *testing.T) {
	v := NewViewer(3)

	v.Apply(citation.Metadata{Page: 1, Sentences: []string{"Old grounding."}})
	if len(v.Highlights()) != 1 {
		t.Fatalf("highlights = %v", v.Highlights())
	}

	// An empty citation keeps the last known grounding.
	v.Apply(citation.Metadata{})
	if len(v.Highlights()) != 1 || v.Highlights()[0] != "Old grounding." {
		t.Errorf("highlights should persist, got %v", v.Highlights())
	}

	// The next real citation replaces, not merges.
	v.Apply(citation.Metadata{Sentences: []string{"New first.", "New second."}})
	got := v.Highlights()
	if len(got) != 2 || got[0] != "New first." || got[1] != "New second." {
		t.Errorf("highlights = %v, want replacement set", got)
	}
}

func TestViewerShouldHighlightContainment(t *testing.T) {
	v := NewViewer(2)
	v.Apply(citation.Metadata{Sentences: []string{"The mitochondria is the powerhouse of the cell."}})

	tests := []struct {
		token string
		want  bool
	}{
		{"mitochondria", true},
		{"powerhouse of the", true},
		{"The mitochondria is the powerhouse of the cell.", true},
		{"  powerhouse  ", true}, // surrounding whitespace is trimmed before the test
		{"chloroplast", false},
		{"", false},
		{"   ", false},
	}

	for _, tt := range tests {
		if got := v.ShouldHighlight(tt.token); got != tt.want {
			t.Errorf("ShouldHighlight(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestViewerHallucinatedSentenceNeverMatches(t *testing.T) {
	v := NewViewer(2)
	v.Apply(citation.Metadata{Sentences: []string{"A sentence the document does not contain."}})

	// Tokens from the real page text simply never fire.
	for _, token := range []string{"actual", "page", "text"} {
		if v.ShouldHighlight(token) {
			t.Errorf("token %q should not match hallucinated sentence", token)
		}
	}
}
