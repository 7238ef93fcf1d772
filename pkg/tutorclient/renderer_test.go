package tutorclient

import (
	"testing"
)

func TestRendererReplaceLastSemantics(t *testing.T) {
	r := NewRenderer()
	r.BeginTurn("What is mitosis?")

	chunks := []string{"Mitosis ", "is cell ", "division."}
	for _, chunk := range chunks {
		r.ApplyChunk(chunk)

		last, ok := r.Last()
		if !ok || last.Role != "assistant" {
			t.Fatal("expected an in-progress assistant message")
		}
		if last.Content != r.Buffer() {
			t.Errorf("visible content %q != buffer %q", last.Content, r.Buffer())
		}
	}

	// Exactly one assistant message mutated for the whole turn.
	assistantCount := 0
	for _, m := range r.Messages() {
		if m.Role == "assistant" {
			assistantCount++
		}
	}
	if assistantCount != 1 {
		t.Errorf("assistant messages = %d, want 1", assistantCount)
	}

	result := r.FinishTurn()
	last, _ := r.Last()
	if last.Content != "Mitosis is cell division." {
		t.Errorf("final message = %q", last.Content)
	}
	if !result.Metadata.IsEmpty() {
		t.Errorf("no block streamed, metadata should be empty: %+v", result.Metadata)
	}
}

func TestRendererStripsCitationBlockOnFinish(t *testing.T) {
	r := NewRenderer()
	r.BeginTurn("Where is this covered?")

	// The block arrives split across chunk boundaries, so mid-stream the
	// raw marker text is briefly visible; only the finished turn strips it.
	r.ApplyChunk("On page three. <meta")
	r.ApplyChunk("data>{\"page\": 3, \"sentence\": \"Covered here.\"}</metadata>")

	result := r.FinishTurn()

	last, _ := r.Last()
	if last.Content != "On page three." {
		t.Errorf("final message = %q, want stripped answer", last.Content)
	}
	if result.Metadata.Page != 3 {
		t.Errorf("page = %d, want 3", result.Metadata.Page)
	}
	if len(result.Metadata.Sentences) != 1 || result.Metadata.Sentences[0] != "Covered here." {
		t.Errorf("sentences = %v", result.Metadata.Sentences)
	}
}

func TestRendererMalformedBlockKeepsRawText(t *testing.T) {
	r := NewRenderer()
	r.BeginTurn("Q")

	raw := "Answer. <metadata>not valid json</metadata>"
	r.ApplyChunk(raw)
	result := r.FinishTurn()

	if !result.Malformed {
		t.Fatal("expected malformed result")
	}
	last, _ := r.Last()
	if last.Content != raw {
		t.Errorf("fallback message = %q, want raw buffer", last.Content)
	}
}

func TestRendererNewTurnDoesNotTouchPriorMessages(t *testing.T) {
	r := NewRenderer()
	r.BeginTurn("First?")
	r.ApplyChunk("First answer.")
	r.FinishTurn()

	r.BeginTurn("Second?")
	r.ApplyChunk("Second answer.")
	r.FinishTurn()

	msgs := r.Messages()
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	if msgs[1].Content != "First answer." {
		t.Errorf("prior turn mutated: %q", msgs[1].Content)
	}
	if msgs[3].Content != "Second answer." {
		t.Errorf("second turn = %q", msgs[3].Content)
	}
}
