package citation

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name          string
		buffer        string
		wantVisible   string
		wantPage      int
		wantSentences []string
		wantFound     bool
		wantMalformed bool
	}{
		{
			name:        "no block",
			buffer:      "Photosynthesis converts light into chemical energy.",
			wantVisible: "Photosynthesis converts light into chemical energy.",
		},
		{
			name:          "single sentence form",
			buffer:        "Answer text. <metadata>\n{\"page\": 3, \"sentence\": \"Exact quote.\"}\n</metadata>",
			wantVisible:   "Answer text.",
			wantPage:      3,
			wantSentences: []string{"Exact quote."},
			wantFound:     true,
		},
		{
			name:          "multi sentence form",
			buffer:        "See below.\n<metadata>{\"page\": 7, \"sentences\": [\"First quote.\", \"Second quote.\"]}</metadata>",
			wantVisible:   "See below.",
			wantPage:      7,
			wantSentences: []string{"First quote.", "Second quote."},
			wantFound:     true,
		},
		{
			name:          "malformed body falls back to raw buffer",
			buffer:        "Answer. <metadata>not valid json</metadata>",
			wantVisible:   "Answer. <metadata>not valid json</metadata>",
			wantFound:     true,
			wantMalformed: true,
		},
		{
			name:        "opening marker without close is left alone",
			buffer:      "Answer. <metadata>{\"page\": 2",
			wantVisible: "Answer. <metadata>{\"page\": 2",
		},
		{
			name:          "only first of two blocks is parsed and stripped",
			buffer:        "A. <metadata>{\"page\": 1, \"sentence\": \"One.\"}</metadata> B. <metadata>{\"page\": 2, \"sentence\": \"Two.\"}</metadata>",
			wantVisible:   "A.  B. <metadata>{\"page\": 2, \"sentence\": \"Two.\"}</metadata>",
			wantPage:      1,
			wantSentences: []string{"One."},
			wantFound:     true,
		},
		{
			name:        "empty block body tolerated",
			buffer:      "Answer. <metadata>{}</metadata>",
			wantVisible: "Answer.",
			wantFound:   true,
		},
		{
			name:        "non-positive page is dropped",
			buffer:      "Answer. <metadata>{\"page\": 0, \"sentence\": \"Q.\"}</metadata>",
			wantVisible: "Answer.",
			wantSentences: []string{
				"Q.",
			},
			wantFound: true,
		},
		{
			name:          "block only, no surrounding text",
			buffer:        "<metadata>{\"page\": 5, \"sentence\": \"Quote.\"}</metadata>",
			wantVisible:   "",
			wantPage:      5,
			wantSentences: []string{"Quote."},
			wantFound:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Extract(tt.buffer)

			if result.Visible != tt.wantVisible {
				t.Errorf("Visible = %q, want %q", result.Visible, tt.wantVisible)
			}
			if result.Metadata.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", result.Metadata.Page, tt.wantPage)
			}
			if !reflect.DeepEqual(result.Metadata.Sentences, tt.wantSentences) {
				t.Errorf("Sentences = %v, want %v", result.Metadata.Sentences, tt.wantSentences)
			}
			if result.Found != tt.wantFound {
				t.Errorf("Found = %v, want %v", result.Found, tt.wantFound)
			}
			if result.Malformed != tt.wantMalformed {
				t.Errorf("Malformed = %v, want %v", result.Malformed, tt.wantMalformed)
			}
		})
	}
}

func TestExtractIdempotent(t *testing.T) {
	buffer := "Answer text. <metadata>{\"page\": 3, \"sentence\": \"Exact quote.\"}</metadata>"

	first := Extract(buffer)
	second := Extract(first.Visible)

	if second.Found {
		t.Error("second pass should not find a block in stripped text")
	}
	if second.Visible != first.Visible {
		t.Errorf("second pass changed message: %q -> %q", first.Visible, second.Visible)
	}
	if !second.Metadata.IsEmpty() {
		t.Errorf("second pass produced metadata: %+v", second.Metadata)
	}
}

func TestMetadataHelpers(t *testing.T) {
	empty := Metadata{}
	if !empty.IsEmpty() || empty.HasPage() {
		t.Error("zero metadata should be empty and pageless")
	}

	withPage := Metadata{Page: 4}
	if withPage.IsEmpty() || !withPage.HasPage() {
		t.Error("metadata with page should be non-empty")
	}

	withSentences := Metadata{Sentences: []string{"x"}}
	if withSentences.IsEmpty() || withSentences.HasPage() {
		t.Error("metadata with sentences should be non-empty but pageless")
	}
}
