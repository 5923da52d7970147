package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ragstore/internal/domain"
)

func TestOpenAIEmbedderInitMissingKey(t *testing.T) {
	e := NewOpenAIEmbedder("RAGSTORE_TEST_MISSING_KEY", "text-embedding-3-small", "")

	err := e.Init(context.Background())
	if err == nil {
		t.Fatal("expected error when API key env is unset")
	}
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %T", err)
	}
}

func TestOpenAIEmbedderStaticDimension(t *testing.T) {
	cases := map[string]int{
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"nomic-embed-text":       768,
		"something-unknown":      1536,
	}
	for model, want := range cases {
		e := NewOpenAIEmbedder("OPENAI_API_KEY", model, "")
		dim, err := e.Dimension()
		if err != nil {
			t.Fatal(err)
		}
		if dim != want {
			t.Errorf("%s: expected %d, got %d", model, want, dim)
		}
	}
}

func TestOpenAIEmbedderEmptyInput(t *testing.T) {
	e := NewOpenAIEmbedder("RAGSTORE_TEST_MISSING_KEY", "text-embedding-3-small", "http://127.0.0.1:1")

	// No network call, so the unreachable base URL and missing key must
	// not matter.
	vectors, err := e.Embed(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 0 {
		t.Errorf("expected empty result, got %d vectors", len(vectors))
	}
}

func TestOpenAIEmbedderEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		resp := embeddingResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, embeddingData{
				Embedding: []float32{float32(i), 1},
				Index:     i,
			})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	t.Setenv("RAGSTORE_TEST_KEY", "sk-test")
	e := NewOpenAIEmbedder("RAGSTORE_TEST_KEY", "text-embedding-3-small", srv.URL)

	vectors, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	for i, vec := range vectors {
		if vec[0] != float32(i) {
			t.Errorf("vector %d out of order: %v", i, vec)
		}
	}
}

func TestOpenAIEmbedderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	t.Setenv("RAGSTORE_TEST_KEY", "sk-test")
	e := NewOpenAIEmbedder("RAGSTORE_TEST_KEY", "text-embedding-3-small", srv.URL)

	_, err := e.Embed(context.Background(), []string{"a"})
	if err == nil {
		t.Fatal("expected error on non-200 response")
	}
	var provErr *domain.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if provErr.Status != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", provErr.Status)
	}
}
