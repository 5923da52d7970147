package port

// Extracted is the result of text extraction from one source file.
type Extracted struct {
	Text     string
	Metadata map[string]any
}

// Extractor pulls text and source metadata out of a file. It is an external
// capability; this module ships a plain-text implementation and a registry
// keyed by file extension.
type Extractor interface {
	Extract(path string) (Extracted, error)
}
