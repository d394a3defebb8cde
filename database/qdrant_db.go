package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"

	"github.com/finsight-ai/finsight-be/config"
	"github.com/finsight-ai/finsight-be/types"
)

// QdrantStore wraps the Qdrant gRPC client for one collection.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	logger     *slog.Logger
}

func NewQdrantStore(cfg config.QdrantConfig, logger *slog.Logger) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return &QdrantStore{
		client:     client,
		collection: cfg.Collection,
		logger:     logger,
	}, nil
}

func (s *QdrantStore) Collection() string { return s.collection }

func (s *QdrantStore) Close() error { return s.client.Close() }

func (s *QdrantStore) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", s.collection, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}
	s.logger.Info("created collection",
		slog.String("collection", s.collection),
		slog.Uint64("vector_size", vectorSize))
	return nil
}

func (s *QdrantStore) VectorSize(ctx context.Context) (uint64, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection %s: %w", s.collection, err)
	}
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return 0, fmt.Errorf("collection %s has no vector params", s.collection)
	}
	return params.GetSize(), nil
}

func (s *QdrantStore) Upsert(ctx context.Context, points []*qdrant.PointStruct) error {
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, params SearchParams) ([]types.RankedExcerpt, error) {
	query := &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(params.Limit),
		ScoreThreshold: qdrant.PtrOf(params.ScoreThreshold),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if params.Company != "" {
		query.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("company", params.Company)},
		}
	}

	points, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	excerpts := make([]types.RankedExcerpt, 0, len(points))
	for _, p := range points {
		excerpts = append(excerpts, excerptFromPoint(p))
	}
	return excerpts, nil
}

// Count returns the exact number of points in the collection.
func (s *QdrantStore) Count(ctx context.Context) (uint64, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant count failed: %w", err)
	}
	return n, nil
}

// Sample scrolls a handful of points with payloads, for inspection.
func (s *QdrantStore) Sample(ctx context.Context, limit uint32) ([]types.RankedExcerpt, error) {
	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant scroll failed: %w", err)
	}
	excerpts := make([]types.RankedExcerpt, 0, len(points))
	for _, p := range points {
		excerpts = append(excerpts, excerptFromRetrieved(p))
	}
	return excerpts, nil
}

// PointPayload builds the stored payload for one chunk.
func PointPayload(meta types.DocumentMeta, chunk types.Chunk) map[string]*qdrant.Value {
	payload := map[string]any{
		"title":       meta.Title,
		"source":      meta.Source,
		"company":     meta.Company,
		"path":        meta.Path,
		"chunk_index": int64(chunk.Index),
		"text":        chunk.Text,
	}
	if meta.DocType != types.DocumentTypeUnknown {
		payload["doc_type"] = string(meta.DocType)
	}
	if meta.PublishedDate != "" {
		payload["published_date"] = meta.PublishedDate
	}
	if chunk.PageStart > 0 {
		payload["page_start"] = int64(chunk.PageStart)
		payload["page_end"] = int64(chunk.PageEnd)
	}
	return qdrant.NewValueMap(payload)
}

func excerptFromPoint(p *qdrant.ScoredPoint) types.RankedExcerpt {
	return excerptFromPayload(p.GetPayload(), p.GetScore())
}

func excerptFromRetrieved(p *qdrant.RetrievedPoint) types.RankedExcerpt {
	return excerptFromPayload(p.GetPayload(), 0)
}

func excerptFromPayload(payload map[string]*qdrant.Value, score float32) types.RankedExcerpt {
	str := func(key string) string {
		if v, ok := payload[key]; ok {
			return v.GetStringValue()
		}
		return ""
	}
	num := func(key string) int {
		if v, ok := payload[key]; ok {
			return int(v.GetIntegerValue())
		}
		return 0
	}
	return types.RankedExcerpt{
		DocumentMeta: types.DocumentMeta{
			Title:         str("title"),
			Source:        str("source"),
			Company:       str("company"),
			DocType:       types.DocumentType(str("doc_type")),
			PublishedDate: str("published_date"),
			Path:          str("path"),
		},
		ChunkIndex: num("chunk_index"),
		Text:       str("text"),
		Score:      score,
		PageStart:  num("page_start"),
		PageEnd:    num("page_end"),
	}
}
