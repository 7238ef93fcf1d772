package tutorclient

import (
	"io"
	"strings"
	"testing"

	"ai-pdf-tutor-be/pkg/tutor/citation"
)

// chunkReader yields its chunks one per Read call to mimic a network
// stream arriving piecewise.
type chunkReader struct {
	chunks []string
	pos    int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if c.pos >= len(c.chunks) {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[c.pos])
	c.pos++
	return n, nil
}

func TestRunnerFullTurn(t *testing.T) {
	renderer := NewRenderer()
	viewer := NewViewer(10)
	runner := NewRunner(renderer, viewer)

	renderer.BeginTurn("Where does the text define osmosis?")

	body := &chunkReader{chunks: []string{
		"Osmosis is defined on page 4. ",
		"<metadata>{\"page\": 4, ",
		"\"sentences\": [\"Osmosis is the diffusion of water across a membrane.\"]}</metadata>",
	}}

	result, err := runner.Run(body)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	last, _ := renderer.Last()
	if last.Content != "Osmosis is defined on page 4." {
		t.Errorf("visible = %q", last.Content)
	}
	if result.Metadata.Page != 4 {
		t.Errorf("page = %d, want 4", result.Metadata.Page)
	}
	if viewer.CurrentPage() != 4 {
		t.Errorf("viewer page = %d, want 4", viewer.CurrentPage())
	}
	if !viewer.ShouldHighlight("diffusion of water") {
		t.Error("expected cited sentence to drive highlighting")
	}
}

func TestRunnerNoCitationLeavesViewerAlone(t *testing.T) {
	renderer := NewRenderer()
	viewer := NewViewer(10)
	viewer.SetPage(7)
	runner := NewRunner(renderer, viewer)

	renderer.BeginTurn("Hello?")

	result, err := runner.Run(strings.NewReader("Hi! How can I help with the document?"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if !result.Metadata.IsEmpty() {
		t.Errorf("metadata = %+v, want empty", result.Metadata)
	}
	if viewer.CurrentPage() != 7 {
		t.Errorf("viewer page = %d, want unchanged 7", viewer.CurrentPage())
	}
}

func TestRunnerMalformedBlockDoesNotTouchViewer(t *testing.T) {
	renderer := NewRenderer()
	viewer := NewViewer(10)
	viewer.Apply(citation.Metadata{Page: 2, Sentences: []string{"Prior sentence."}})
	runner := NewRunner(renderer, viewer)

	renderer.BeginTurn("Q")

	_, err := runner.Run(strings.NewReader("Answer. <metadata>{broken</metadata>"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if viewer.CurrentPage() != 2 {
		t.Errorf("viewer page = %d, want untouched 2", viewer.CurrentPage())
	}
	if len(viewer.Highlights()) != 1 {
		t.Errorf("highlights = %v, want prior grounding intact", viewer.Highlights())
	}
}
