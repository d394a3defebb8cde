package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiEmbeddingService embeds text with a Google Gemini embedding model
// such as text-embedding-004.
type GeminiEmbeddingService struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

func NewGeminiEmbeddingService(ctx context.Context, apiKey, modelName string) (*GeminiEmbeddingService, error) {
	if apiKey == "" {
		return nil, errors.New("google api key missing")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiEmbeddingService{
		client: client,
		model:  client.EmbeddingModel(modelName),
	}, nil
}

func (s *GeminiEmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	res, err := s.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errors.New("gemini returned an empty embedding")
	}
	return res.Embedding.Values, nil
}

func (s *GeminiEmbeddingService) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	batch := s.model.NewBatch()
	for _, t := range texts {
		batch = batch.AddContent(genai.Text(t))
	}
	res, err := s.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini batch embedding failed: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(res.Embeddings))
	}
	out := make([][]float32, len(res.Embeddings))
	for i, e := range res.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}

func (s *GeminiEmbeddingService) Close() error {
	return s.client.Close()
}
