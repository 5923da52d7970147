package splitter

import (
	"regexp"
	"sort"
	"strings"

	"ragstore/internal/domain"
	"ragstore/internal/port"
)

// Segment kinds recorded in semantic chunk metadata.
const (
	kindHeading        = "heading"
	kindParagraph      = "paragraph"
	kindParagraphSplit = "paragraph_split"
)

var (
	paragraphRe = regexp.MustCompile(`\n\s*\n`)
	markdownRe  = regexp.MustCompile(`^#{1,6}\s`)
	underlineRe = regexp.MustCompile(`^\s*(=+|-+)\s*$`)
)

// SemanticSplitter splits on blank-line paragraph boundaries and keeps
// headings at the start of chunks. Paragraphs larger than chunkSize are
// re-split at sentence boundaries and re-accumulated under the same
// overflow and overlap policy.
type SemanticSplitter struct {
	chunkSize    int
	chunkOverlap int
	sentences    port.SentenceSplitter
}

func NewSemanticSplitter(chunkSize, chunkOverlap int, sentences port.SentenceSplitter) *SemanticSplitter {
	if sentences == nil {
		sentences = NewRegexSentences()
	}
	return &SemanticSplitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		sentences:    sentences,
	}
}

// segment is one accumulation unit: a heading, a whole paragraph, or a
// sentence run carved out of an oversized paragraph.
type segment struct {
	text string
	kind string
}

func (s *SemanticSplitter) Split(text, documentID string, metadata map[string]any) []domain.Chunk {
	if text == "" {
		return nil
	}

	segments := s.segments(text)

	var chunks []domain.Chunk
	var current []segment
	currentSize := 0

	emit := func() {
		chunkText := joinSegments(current)
		meta := chunkMetadata(metadata, documentID, len(chunkText), len(chunks))
		meta["segment_types"] = segmentKinds(current)
		meta["contains_heading"] = containsKind(current, kindHeading)
		chunks = append(chunks, domain.Chunk{Text: chunkText, Metadata: meta})
	}

	for _, seg := range segments {
		// A heading closes the accumulating chunk so it starts the next one
		// instead of trailing the previous one.
		if seg.kind == kindHeading && len(current) > 0 {
			emit()
			current, currentSize = nil, 0
		}

		if currentSize+len(seg.text) > s.chunkSize && len(current) > 0 {
			emit()
			current, currentSize = s.overlapTail(current)
		}

		current = append(current, seg)
		currentSize += len(seg.text)
	}

	if len(current) > 0 {
		emit()
	}

	for i := range chunks {
		chunks[i].Metadata["total_chunks"] = len(chunks)
	}

	return chunks
}

// segments expands the text into typed accumulation units: one per
// paragraph, with oversized paragraphs re-split into sentence runs.
func (s *SemanticSplitter) segments(text string) []segment {
	var segments []segment

	for _, para := range paragraphRe.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if isHeading(para) {
			segments = append(segments, segment{text: para, kind: kindHeading})
			continue
		}

		if len(para) > s.chunkSize {
			segments = append(segments, s.splitParagraph(para)...)
			continue
		}

		segments = append(segments, segment{text: para, kind: kindParagraph})
	}

	return segments
}

// splitParagraph re-accumulates an oversized paragraph sentence by sentence
// into runs of at most chunkSize, carrying trailing sentences forward as
// overlap between consecutive runs.
func (s *SemanticSplitter) splitParagraph(para string) []segment {
	sentences := s.sentences.Sentences(para)
	if len(sentences) == 0 {
		return []segment{{text: para, kind: kindParagraphSplit}}
	}

	var segments []segment
	var run []string
	runSize := 0

	flush := func() {
		segments = append(segments, segment{
			text: strings.Join(run, " "),
			kind: kindParagraphSplit,
		})
	}

	for _, sentence := range sentences {
		if runSize+len(sentence) > s.chunkSize && len(run) > 0 {
			flush()
			run, runSize = s.sentenceTail(run)
		}
		run = append(run, sentence)
		runSize += len(sentence)
	}

	if len(run) > 0 {
		flush()
	}

	return segments
}

func (s *SemanticSplitter) overlapTail(closed []segment) ([]segment, int) {
	var tail []segment
	size := 0
	for i := len(closed) - 1; i >= 0; i-- {
		if size+len(closed[i].text) > s.chunkOverlap {
			break
		}
		size += len(closed[i].text)
		tail = append([]segment{closed[i]}, tail...)
	}
	return tail, size
}

func (s *SemanticSplitter) sentenceTail(closed []string) ([]string, int) {
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

// isHeading reports whether a paragraph is a markdown-style heading or a
// text line underlined with = or -.
func isHeading(para string) bool {
	if markdownRe.MatchString(para) {
		return true
	}
	lines := strings.Split(para, "\n")
	return len(lines) >= 2 && underlineRe.MatchString(lines[1])
}

func joinSegments(segments []segment) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			// Sentence runs from the same split paragraph read as one flow.
			if seg.kind == kindParagraphSplit && segments[i-1].kind == kindParagraphSplit {
				b.WriteString(" ")
			} else {
				b.WriteString("\n\n")
			}
		}
		b.WriteString(seg.text)
	}
	return b.String()
}

func segmentKinds(segments []segment) []string {
	seen := make(map[string]struct{}, 3)
	for _, seg := range segments {
		seen[seg.kind] = struct{}{}
	}
	kinds := make([]string, 0, len(seen))
	for kind := range seen {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func containsKind(segments []segment, kind string) bool {
	for _, seg := range segments {
		if seg.kind == kind {
			return true
		}
	}
	return false
}
