package embedding

import (
	"context"
	"math"
	"regexp"
	"strings"
	"sync"

	"ragstore/internal/domain"
)

// LocalEmbedder runs an in-process hashed bag-of-words model: tokens are
// hashed into a fixed number of buckets, weighted by term frequency and
// L2-normalized. The model is loaded once and reused; its dimension is
// discovered empirically by embedding a one-element probe batch at Init
// and cached.
type LocalEmbedder struct {
	modelName string
	width     int

	mu          sync.Mutex
	model       *hashModel
	dimension   int
	initialized bool
}

const defaultLocalWidth = 384

func NewLocalEmbedder(modelName string, width int) *LocalEmbedder {
	if width <= 0 {
		width = defaultLocalWidth
	}
	return &LocalEmbedder{
		modelName: modelName,
		width:     width,
	}
}

func (e *LocalEmbedder) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}

	e.model = newHashModel(e.width)

	probe := e.model.encode([]string{"test"})
	if len(probe) == 0 || len(probe[0]) == 0 {
		return &domain.ConfigurationError{Reason: "local embedding model produced no probe vector"}
	}
	e.dimension = len(probe[0])
	e.initialized = true
	return nil
}

func (e *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := e.Init(ctx); err != nil {
		return nil, err
	}

	// The whole batch goes through the model in one call.
	return e.model.encode(texts), nil
}

func (e *LocalEmbedder) Dimension() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return 0, &domain.ConfigurationError{Reason: "local embedder not initialized"}
	}
	return e.dimension, nil
}

func (e *LocalEmbedder) ModelName() string {
	if e.modelName == "" {
		return "hashed-bow"
	}
	return e.modelName
}

// hashModel is the embedded vectorizer behind LocalEmbedder.
type hashModel struct {
	width   int
	pattern *regexp.Regexp
}

func newHashModel(width int) *hashModel {
	return &hashModel{
		width:   width,
		pattern: regexp.MustCompile(`\p{L}+|\p{N}+`),
	}
}

func (m *hashModel) encode(texts []string) [][]float32 {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.encodeOne(text)
	}
	return vectors
}

func (m *hashModel) encodeOne(text string) []float32 {
	vec := make([]float32, m.width)

	tokens := m.pattern.FindAllString(strings.ToLower(text), -1)
	for _, token := range tokens {
		vec[bucket(token, m.width)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}

// bucket is FNV-1a over the token, folded into the model width.
func bucket(token string, width int) int {
	const (
		offset = 2166136261
		prime  = 16777619
	)
	hash := uint32(offset)
	for i := 0; i < len(token); i++ {
		hash ^= uint32(token[i])
		hash *= prime
	}
	return int(hash % uint32(width))
}
