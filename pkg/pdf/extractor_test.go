package pdf

import "testing"

func TestAssembleTaggedText(t *testing.T) {
	tests := []struct {
		name     string
		pages    []Page
		expected string
	}{
		{
			name:     "empty input",
			pages:    nil,
			expected: "",
		},
		{
			name: "single page",
			pages: []Page{
				{Number: 1, Text: "Photosynthesis converts light into energy."},
			},
			expected: "[Page 1]: Photosynthesis converts light into energy.",
		},
		{
			name: "multiple pages joined with blank line",
			pages: []Page{
				{Number: 1, Text: "Intro."},
				{Number: 2, Text: "Details."},
			},
			expected: "[Page 1]: Intro.\n\n[Page 2]: Details.",
		},
		{
			name: "empty pages skipped but numbering preserved",
			pages: []Page{
				{Number: 1, Text: "First."},
				{Number: 2, Text: ""},
				{Number: 3, Text: "Third."},
			},
			expected: "[Page 1]: First.\n\n[Page 3]: Third.",
		},
		{
			name: "whitespace-only page skipped",
			pages: []Page{
				{Number: 1, Text: "   "},
				{Number: 2, Text: "Content."},
			},
			expected: "[Page 2]: Content.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssembleTaggedText(tt.pages)
			if got != tt.expected {
				t.Errorf("AssembleTaggedText() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValidatePDF(t *testing.T) {
	if !ValidatePDF([]byte("%PDF-1.7 rest")) {
		t.Error("expected valid PDF header to pass")
	}
	if ValidatePDF([]byte("PK\x03\x04")) {
		t.Error("expected zip header to fail")
	}
	if ValidatePDF([]byte("%PD")) {
		t.Error("expected short data to fail")
	}
}
