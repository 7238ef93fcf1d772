package citation

import (
	"encoding/json"
	"strings"
)

// Markers delimiting the structured block the model appends to its answer.
const (
	OpenTag  = "<metadata>"
	CloseTag = "</metadata>"
)

// Metadata is the citation payload carried inside a metadata block.
// The single-sentence form is normalized into Sentences so callers only
// ever deal with the multi form.
type Metadata struct {
	Page      int      `json:"page"`
	Sentences []string `json:"sentences"`
}

// HasPage reports whether the citation names a page. Zero and negative
// values are never valid page numbers.
func (m *Metadata) HasPage() bool {
	return m.Page > 0
}

// IsEmpty reports whether the citation carries nothing actionable.
func (m *Metadata) IsEmpty() bool {
	return !m.HasPage() && len(m.Sentences) == 0
}

// ExtractResult holds the outcome of scanning a completed answer buffer.
type ExtractResult struct {
	Visible   string   // answer text with the block stripped (or the raw buffer on fallback)
	Metadata  Metadata // parsed citation, zero-valued when absent or malformed
	Found     bool     // a complete block was located
	Malformed bool     // a block was located but its body failed to parse
}

// metadataBody accepts both wire shapes of the block body.
type metadataBody struct {
	Page      *int     `json:"page"`
	Sentence  *string  `json:"sentence"`
	Sentences []string `json:"sentences"`
}

// Extract scans a fully accumulated answer for one metadata block,
// parses it, and strips it from the visible text.
//
// Only the first block is recognized; any later block's literal text is
// left in the visible message. A buffer with no complete block (missing
// either marker) is returned unchanged, which makes Extract idempotent
// on already-stripped text. A block whose body is not valid JSON leaves
// the visible message as the raw buffer so the user still sees the
// answer; the caller decides how to log that.
func Extract(buffer string) *ExtractResult {
	result := &ExtractResult{
		Visible: buffer,
	}

	// 1. Locate the first complete block. Both markers must be present.
	openIdx := strings.Index(buffer, OpenTag)
	if openIdx < 0 {
		return result
	}
	rest := buffer[openIdx+len(OpenTag):]
	closeIdx := strings.Index(rest, CloseTag)
	if closeIdx < 0 {
		return result
	}
	result.Found = true

	// 2. Parse the body between the markers.
	body := rest[:closeIdx]
	var parsed metadataBody
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		result.Malformed = true
		return result
	}

	// 3. Strip the whole block, markers included, from the visible text.
	blockEnd := openIdx + len(OpenTag) + closeIdx + len(CloseTag)
	result.Visible = strings.TrimSpace(buffer[:openIdx] + buffer[blockEnd:])

	// 4. Normalize the payload. The multi form wins if the model sent both.
	if parsed.Page != nil && *parsed.Page > 0 {
		result.Metadata.Page = *parsed.Page
	}
	if len(parsed.Sentences) > 0 {
		result.Metadata.Sentences = parsed.Sentences
	} else if parsed.Sentence != nil && *parsed.Sentence != "" {
		result.Metadata.Sentences = []string{*parsed.Sentence}
	}

	return result
}
