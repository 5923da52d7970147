package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"ragstore/internal/domain"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Requests are chunked so a single call never exceeds the provider's
// payload and rate limits.
const remoteBatchSize = 100

// modelDimensions maps known model names to their static vector width.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
}

const defaultDimension = 1536

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint. The vector
// dimension is a static property of the configured model name.
type OpenAIEmbedder struct {
	apiKeyEnv   string
	apiKey      string
	model       string
	baseURL     string
	dimension   int
	initialized bool
	client      *http.Client
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func NewOpenAIEmbedder(apiKeyEnv, model, baseURL string) *OpenAIEmbedder {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	dimension, ok := modelDimensions[model]
	if !ok {
		dimension = defaultDimension
	}

	return &OpenAIEmbedder{
		apiKeyEnv: apiKeyEnv,
		model:     model,
		baseURL:   baseURL,
		dimension: dimension,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Init resolves the API key from the environment.
func (e *OpenAIEmbedder) Init(ctx context.Context) error {
	apiKey := os.Getenv(e.apiKeyEnv)
	if apiKey == "" {
		return &domain.ConfigurationError{
			Reason: "API key not found in environment variable " + e.apiKeyEnv,
		}
	}
	e.apiKey = apiKey
	e.initialized = true
	return nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if !e.initialized {
		if err := e.Init(ctx); err != nil {
			return nil, err
		}
	}

	var all [][]float32
	for i := 0; i < len(texts); i += remoteBatchSize {
		end := i + remoteBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, vectors...)
	}

	return all, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Input: texts, Model: e.model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ProviderError{Status: resp.StatusCode, Detail: string(respBody)}
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		preview := string(respBody)
		if len(preview) > 200 {
			preview = preview[:200]
		}
		return nil, &domain.ProviderError{Status: resp.StatusCode, Detail: "unparseable response: " + preview}
	}
	if embResp.Error != nil {
		return nil, &domain.ProviderError{Status: resp.StatusCode, Detail: embResp.Error.Message}
	}

	vectors := make([][]float32, len(texts))
	for _, data := range embResp.Data {
		if data.Index < len(vectors) {
			vectors[data.Index] = data.Embedding
		}
	}

	return vectors, nil
}

func (e *OpenAIEmbedder) Dimension() (int, error) {
	return e.dimension, nil
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
