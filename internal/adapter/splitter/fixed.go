package splitter

import (
	"strings"

	"ragstore/internal/domain"
)

// FixedSplitter splits text on a separator and accumulates segments into
// chunks of at most chunkSize characters, seeding each new chunk with the
// trailing segments of the previous one up to chunkOverlap characters.
type FixedSplitter struct {
	chunkSize    int
	chunkOverlap int
	separator    string
}

func NewFixedSplitter(chunkSize, chunkOverlap int, separator string) *FixedSplitter {
	if separator == "" {
		separator = "\n"
	}
	return &FixedSplitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separator:    separator,
	}
}

func (s *FixedSplitter) Split(text, documentID string, metadata map[string]any) []domain.Chunk {
	if text == "" {
		return nil
	}

	segments := strings.Split(text, s.separator)

	var chunks []domain.Chunk
	var current []string
	currentSize := 0

	emit := func(chunkText string) {
		chunks = append(chunks, domain.Chunk{
			Text:     chunkText,
			Metadata: chunkMetadata(metadata, documentID, len(chunkText), len(chunks)),
		})
	}

	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		segmentSize := len(segment)

		// Close the running chunk when this segment would overflow it, then
		// seed the next chunk with trailing segments that fit the overlap.
		if currentSize+segmentSize > s.chunkSize && len(current) > 0 {
			emit(strings.Join(current, s.separator))
			current, currentSize = s.overlapTail(current)
		}

		if segmentSize > s.chunkSize {
			// Flush whatever accumulated before slicing the oversized
			// segment into fixed windows.
			if len(current) > 0 {
				emit(strings.Join(current, s.separator))
				current, currentSize = nil, 0
			}

			step := s.chunkSize - s.chunkOverlap
			if step <= 0 {
				step = s.chunkSize
			}
			for i := 0; i < segmentSize; i += step {
				end := i + s.chunkSize
				if end > segmentSize {
					end = segmentSize
				}
				window := segment[i:end]
				// Drop scrap windows shorter than a quarter of the chunk size.
				if len(window) < s.chunkSize/4 {
					continue
				}
				emit(window)
			}
			continue
		}

		current = append(current, segment)
		currentSize += segmentSize
	}

	if len(current) > 0 {
		emit(strings.Join(current, s.separator))
	}

	for i := range chunks {
		chunks[i].Metadata["total_chunks"] = len(chunks)
	}

	return chunks
}

// overlapTail returns the trailing segments of the closed chunk whose
// combined length stays within chunkOverlap, preserving order.
func (s *FixedSplitter) overlapTail(closed []string) ([]string, int) {
	var tail []string
	size := 0
	for i := len(closed) - 1; i >= 0; i-- {
		if size+len(closed[i]) > s.chunkOverlap {
			break
		}
		size += len(closed[i])
		tail = append([]string{closed[i]}, tail...)
	}
	return tail, size
}

// chunkMetadata copies the caller's metadata and layers the segmentation
// keys on top.
func chunkMetadata(base map[string]any, documentID string, chunkSize, index int) map[string]any {
	meta := make(map[string]any, len(base)+3)
	for k, v := range base {
		meta[k] = v
	}
	meta["document_id"] = documentID
	meta["chunk_size"] = chunkSize
	meta["chunk_index"] = index
	return meta
}
