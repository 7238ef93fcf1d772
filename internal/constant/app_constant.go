package constant

const (
	// TopicDocumentExtraction is the in-process queue between the upload
	// endpoint and the extraction worker.
	TopicDocumentExtraction = "document.extraction"
)
