package service

import (
	"context"
	"fmt"

	"github.com/finsight-ai/finsight-be/config"
)

// EmbeddingService turns text into fixed-length vectors. The same provider
// and model must serve both ingestion and query embedding; the retriever
// verifies the resulting dimensionality against the collection.
type EmbeddingService interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// NewEmbeddingService builds the configured embedding provider.
func NewEmbeddingService(ctx context.Context, cfg config.EmbeddingsConfig) (EmbeddingService, error) {
	switch cfg.Provider {
	case "google":
		return NewGeminiEmbeddingService(ctx, cfg.GoogleAPIKey, cfg.Model)
	case "openai":
		return NewOpenAIEmbeddingService(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported embeddings provider: %q", cfg.Provider)
	}
}
