package service

import (
	"context"
	"fmt"

	"github.com/juridia/legal-assistant-be/types"
	"github.com/sashabaranov/go-openai"
)

const embeddingBatchSize = 100

// EmbeddingProvider maps text to fixed-length vectors, at index time and at
// query time. Upstream failures surface as types.ErrProviderUnavailable so
// callers can degrade instead of crashing.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIEmbedder calls the OpenAI embeddings API. Concurrency is capped so a
// slow upstream cannot exhaust the process; excess calls queue on the
// semaphore.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	sem    chan struct{}
}

func NewOpenAIEmbedder(baseURL, apiKey, model string, maxConcurrent int) *OpenAIEmbedder {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(config),
		model:  openai.EmbeddingModel(model),
		sem:    make(chan struct{}, maxConcurrent),
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	select {
	case e.sem <- struct{}{}:
		defer func() { <-e.sem }()
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", types.ErrProviderUnavailable, ctx.Err())
	}

	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts[i:end],
			Model: e.model,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: embeddings: %v", types.ErrProviderUnavailable, err)
		}
		if len(resp.Data) != end-i {
			return nil, fmt.Errorf("%w: embeddings: got %d vectors for %d inputs", types.ErrProviderUnavailable, len(resp.Data), end-i)
		}
		for _, d := range resp.Data {
			vectors = append(vectors, d.Embedding)
		}
	}
	return vectors, nil
}
