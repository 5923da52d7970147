package usecase

import (
	"context"
	"fmt"

	"ragstore/internal/domain"
	"ragstore/internal/port"
)

const defaultTopK = 5

// QueryRequest asks for the fragments most similar to a question.
type QueryRequest struct {
	Query     string
	Namespace string
	TopK      int
	Filters   map[string]any
}

// FragmentHit is one ranked retrieval result.
type FragmentHit struct {
	FragmentID string         `json:"fragment_id"`
	DocumentID string         `json:"document_id"`
	Text       string         `json:"text"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Score      float64        `json:"score"`
}

// QueryResult is the ranked answer to one query.
type QueryResult struct {
	Query      string        `json:"query"`
	Fragments  []FragmentHit `json:"fragments"`
	TotalFound int           `json:"total_found"`
}

// Retriever embeds a query and ranks stored fragments against it.
type Retriever struct {
	store    port.FragmentStore
	embedder port.Embedder
}

func NewRetriever(store port.FragmentStore, embedder port.Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

func (r *Retriever) Query(ctx context.Context, req QueryRequest) (QueryResult, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	vectors, err := r.embedder.Embed(ctx, []string{req.Query})
	if err != nil {
		return QueryResult{}, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return QueryResult{}, fmt.Errorf("embedding returned no vector for query")
	}

	fragments, err := r.store.Search(req.Namespace, vectors[0], topK, req.Filters)
	if err != nil {
		return QueryResult{}, fmt.Errorf("fragment search failed: %w", err)
	}

	hits := make([]FragmentHit, 0, len(fragments))
	for _, fragment := range fragments {
		hits = append(hits, FragmentHit{
			FragmentID: fragment.ID,
			DocumentID: fragment.DocumentID,
			Text:       fragment.Text,
			Metadata:   fragment.Metadata,
			Score:      scoreOf(fragment),
		})
	}

	return QueryResult{
		Query:      req.Query,
		Fragments:  hits,
		TotalFound: len(hits),
	}, nil
}

func scoreOf(fragment domain.Fragment) float64 {
	if score, ok := fragment.Metadata["score"].(float64); ok {
		return score
	}
	return 0
}
