package port

import "ragstore/internal/domain"

// Splitter segments extracted text into bounded, overlap-aware chunks.
// Split is deterministic and has no side effects. The caller's metadata is
// copied into every emitted chunk before segmentation keys are added.
type Splitter interface {
	Split(text, documentID string, metadata map[string]any) []domain.Chunk
}

// SentenceSplitter segments a paragraph into ordered sentences. It is an
// external capability consumed by the semantic splitter.
type SentenceSplitter interface {
	Sentences(text string) []string
}
