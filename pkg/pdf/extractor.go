package pdf

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page is the extracted text of a single page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// ExtractionResult holds the per-page text of a document.
type ExtractionResult struct {
	Pages     []Page
	PageCount int
}

// ValidatePDF checks the magic bytes. PDF files start with "%PDF-".
func ValidatePDF(data []byte) bool {
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}

// ExtractFile reads a PDF from disk and extracts the plain text of each
// page. Pages whose text cannot be extracted (e.g. image-only scans)
// are kept with empty text so page numbering stays aligned with the
// document.
func ExtractFile(path string) (*ExtractionResult, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pageCount := reader.NumPage()
	result := &ExtractionResult{
		Pages:     make([]Page, 0, pageCount),
		PageCount: pageCount,
	}

	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			result.Pages = append(result.Pages, Page{Number: i})
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			result.Pages = append(result.Pages, Page{Number: i})
			continue
		}

		result.Pages = append(result.Pages, Page{
			Number: i,
			Text:   strings.TrimSpace(text),
		})
	}

	return result, nil
}

// AssembleTaggedText joins extracted pages into the page-tagged form the
// tutor prompt embeds, one "[Page N]: text" block per page. Empty pages
// are skipped so the model never cites a page with no content.
func AssembleTaggedText(pages []Page) string {
	var b strings.Builder
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Page %d]: %s", p.Number, p.Text)
	}
	return b.String()
}
