package extractor

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"ragstore/internal/domain"
	"ragstore/internal/port"
)

// Registry resolves an extractor by file extension, falling back to plain
// text for anything it does not recognize.
type Registry struct {
	byExt map[string]port.Extractor
	text  *TextExtractor
}

func NewRegistry() *Registry {
	text := &TextExtractor{}
	return &Registry{
		byExt: map[string]port.Extractor{
			".txt": text,
			".md":  text,
		},
		text: text,
	}
}

// Register adds or replaces the extractor for an extension (with dot).
func (r *Registry) Register(ext string, e port.Extractor) {
	r.byExt[strings.ToLower(ext)] = e
}

func (r *Registry) Extract(path string) (port.Extracted, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if e, ok := r.byExt[ext]; ok {
		return e.Extract(path)
	}
	return r.text.Extract(path)
}

// TextExtractor reads plain-text files. Content that is not valid UTF-8 is
// decoded as Latin-1 so no byte sequence is unreadable.
type TextExtractor struct{}

func (e *TextExtractor) Extract(path string) (port.Extracted, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return port.Extracted{}, &domain.ExtractionError{Path: path, Err: err}
	}

	text := string(data)
	if !utf8.ValidString(text) {
		text = decodeLatin1(data)
	}

	info, err := os.Stat(path)
	if err != nil {
		return port.Extracted{}, &domain.ExtractionError{Path: path, Err: err}
	}

	return port.Extracted{
		Text: text,
		Metadata: map[string]any{
			"filename":  originalName(filepath.Base(path)),
			"file_size": info.Size(),
			"mime_type": mimeType(path),
		},
	}, nil
}

func decodeLatin1(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

func mimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		return "text/markdown"
	default:
		return "text/plain"
	}
}

// originalName strips the "<uuid>-" upload prefix so the metadata carries
// the filename the user uploaded.
func originalName(base string) string {
	parts := strings.SplitN(base, "-", 6)
	// uuid v4 has five dash-separated groups before the original name.
	if len(parts) == 6 && len(strings.Join(parts[:5], "-")) == 36 {
		return parts[5]
	}
	return base
}
