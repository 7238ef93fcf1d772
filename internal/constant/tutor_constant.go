package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"
)

const (
	// TutorSystemPromptV1 is the fixed instruction sent as the first message of
	// every turn. It restricts the model to the uploaded document; enforcement
	// is the model's job, not ours.
	TutorSystemPromptV1 = `You are an AI tutor. You must base your answers only on the provided PDF content. ` +
		`If the requested information is not in the PDF, say: 'I could not find that information in the document.'`

	// TutorCitationPromptV1 asks the model to close its answer with one citation
	// block. The block grammar is parsed by pkg/tutor/citation.
	TutorCitationPromptV1 = `After your answer, append exactly one block of the form:
<metadata>
{"page": <page number>, "sentences": ["<sentence copied verbatim from the PDF>", ...]}
</metadata>
Rules: the page number must be the [Page N] tag of the page you quoted from, every sentence
must be copied character-for-character from the PDF content, and if your answer is not based
on the PDF, omit the block entirely.`

	// TutorContextPromptV1 frames the extracted document text. The %s is the
	// page-tagged text produced by pkg/pdf.
	TutorContextPromptV1 = "Here is the extracted PDF content:\n\n%s"
)

const (
	// SessionTitleFallback is used until the first user question names the session.
	SessionTitleFallback = "Unnamed session"
)
