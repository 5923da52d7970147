package splitter

import (
	"strings"
	"testing"
)

func TestFixedSplitterEmptyText(t *testing.T) {
	s := NewFixedSplitter(512, 50, "\n")

	chunks := s.Split("", "doc1", nil)
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty text, got %d", len(chunks))
	}
}

func TestFixedSplitterSingleChunk(t *testing.T) {
	s := NewFixedSplitter(512, 50, "\n")

	chunks := s.Split("short text with no separator", "doc1", nil)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "short text with no separator" {
		t.Errorf("chunk text mismatch: %q", chunks[0].Text)
	}
	if chunks[0].Metadata["chunk_index"] != 0 {
		t.Errorf("expected chunk_index 0, got %v", chunks[0].Metadata["chunk_index"])
	}
	if chunks[0].Metadata["total_chunks"] != 1 {
		t.Errorf("expected total_chunks 1, got %v", chunks[0].Metadata["total_chunks"])
	}
}

func TestFixedSplitterSentenceParagraphs(t *testing.T) {
	s := NewFixedSplitter(3, 0, "\n")

	chunks := s.Split("A.\n\nB.\n\nC.", "doc1", nil)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	want := []string{"A.", "B.", "C."}
	for i, chunk := range chunks {
		if chunk.Text != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], chunk.Text)
		}
		if chunk.Metadata["chunk_index"] != i {
			t.Errorf("chunk %d: chunk_index %v", i, chunk.Metadata["chunk_index"])
		}
		if chunk.Metadata["total_chunks"] != 3 {
			t.Errorf("chunk %d: total_chunks %v", i, chunk.Metadata["total_chunks"])
		}
	}
}

func TestFixedSplitterOverlap(t *testing.T) {
	s := NewFixedSplitter(20, 8, "\n")

	chunks := s.Split("aaaaaaaa\nbbbbbbbb\ncccccccc\ndddddddd", "doc1", nil)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Every chunk after the first starts with the trailing segment of the
	// chunk before it.
	for i := 1; i < len(chunks); i++ {
		prevLines := strings.Split(chunks[i-1].Text, "\n")
		last := prevLines[len(prevLines)-1]
		if !strings.HasPrefix(chunks[i].Text, last) {
			t.Errorf("chunk %d does not carry overlap %q: %q", i, last, chunks[i].Text)
		}
	}
}

func TestFixedSplitterNoOverlapCarriedWhenZero(t *testing.T) {
	s := NewFixedSplitter(10, 0, "\n")

	chunks := s.Split("aaaa\nbbbb\ncccc\ndddd", "doc1", nil)
	seen := make(map[string]int)
	for _, chunk := range chunks {
		for _, line := range strings.Split(chunk.Text, "\n") {
			seen[line]++
		}
	}
	for line, count := range seen {
		if count != 1 {
			t.Errorf("segment %q appears %d times with zero overlap", line, count)
		}
	}
}

func TestFixedSplitterOversizedSegment(t *testing.T) {
	s := NewFixedSplitter(10, 2, "\n")

	// 25 chars, no separator: sliced into windows of 10 advancing by 8.
	chunks := s.Split(strings.Repeat("x", 25), "doc1", nil)
	if len(chunks) == 0 {
		t.Fatal("expected chunks from oversized segment")
	}
	for i, chunk := range chunks {
		if len(chunk.Text) > 10 {
			t.Errorf("chunk %d exceeds chunk size: %d", i, len(chunk.Text))
		}
		// Scrap windows under a quarter of the chunk size are dropped.
		if len(chunk.Text) < 10/4 {
			t.Errorf("chunk %d is scrap that should have been dropped: %q", i, chunk.Text)
		}
	}
}

func TestFixedSplitterDropsScrap(t *testing.T) {
	s := NewFixedSplitter(100, 0, "\n")

	// 201 chars: windows of 100, 100 and a 1-char scrap tail.
	chunks := s.Split(strings.Repeat("y", 201), "doc1", nil)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks after scrap drop, got %d", len(chunks))
	}
}

func TestFixedSplitterMetadataMerge(t *testing.T) {
	s := NewFixedSplitter(512, 50, "\n")

	base := map[string]any{"filename": "a.txt", "mime_type": "text/plain"}
	chunks := s.Split("hello world", "doc-42", base)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}

	meta := chunks[0].Metadata
	if meta["filename"] != "a.txt" {
		t.Errorf("caller metadata not copied: %v", meta["filename"])
	}
	if meta["document_id"] != "doc-42" {
		t.Errorf("expected document_id doc-42, got %v", meta["document_id"])
	}

	// The caller's map must not be mutated.
	if _, ok := base["chunk_index"]; ok {
		t.Error("caller metadata map was mutated")
	}
}

func TestFixedSplitterCoverage(t *testing.T) {
	s := NewFixedSplitter(40, 10, "\n")

	var lines []string
	for i := 0; i < 12; i++ {
		lines = append(lines, strings.Repeat("w", 15))
	}
	text := strings.Join(lines, "\n")

	chunks := s.Split(text, "doc1", nil)

	// With overlap removed, emitted text covers the input within
	// overlap-bounded tolerance.
	total := 0
	for _, chunk := range chunks {
		total += len(chunk.Text)
	}
	overlapBudget := len(chunks) * (10 + 1)
	if total < len(text)-overlapBudget || total > len(text)+overlapBudget {
		t.Errorf("coverage off: input %d, chunks %d, budget %d", len(text), total, overlapBudget)
	}
}
