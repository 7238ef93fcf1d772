package tutorclient

import (
	"strings"

	"ai-pdf-tutor-be/pkg/tutor/citation"
)

// Viewer models the PDF viewer's citation-driven state: the displayed
// page and the current highlight set. Highlights persist until the next
// citation replaces them, so the last known grounding stays visible
// across turns that carry no citation.
type Viewer struct {
	pageCount   int
	currentPage int
	highlights  []string
}

func NewViewer(pageCount int) *Viewer {
	return &Viewer{
		pageCount:   pageCount,
		currentPage: 1,
	}
}

// Apply folds a citation into the viewer state. A pageless citation
// leaves the page alone; a sentenceless one leaves the highlight set
// alone.
func (v *Viewer) Apply(meta citation.Metadata) {
	if meta.HasPage() {
		v.SetPage(meta.Page)
	}
	if len(meta.Sentences) > 0 {
		v.highlights = append([]string(nil), meta.Sentences...)
	}
}

// SetPage navigates to a page, clamped to the document's range. The
// citation itself is never validated upstream, so out-of-range pages
// from a hallucinated citation land on the nearest real page.
func (v *Viewer) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	if v.pageCount > 0 && page > v.pageCount {
		page = v.pageCount
	}
	v.currentPage = page
}

func (v *Viewer) CurrentPage() int {
	return v.currentPage
}

func (v *Viewer) Highlights() []string {
	return v.highlights
}

// ClearHighlights drops the highlight set. Only an explicit user action
// calls this; citations never clear implicitly.
func (v *Viewer) ClearHighlights() {
	v.highlights = nil
}

// ShouldHighlight reports whether a rendered text token belongs to the
// current highlight set. The test is substring containment, not exact
// match, because the text layer tokenizes pages more finely than whole
// sentences. A hallucinated sentence simply never matches.
func (v *Viewer) ShouldHighlight(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	for _, sentence := range v.highlights {
		if strings.Contains(sentence, token) {
			return true
		}
	}
	return false
}
