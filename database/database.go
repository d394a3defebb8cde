package database

import (
	"context"

	"github.com/qdrant/go-client/qdrant"

	"github.com/finsight-ai/finsight-be/types"
)

// SearchParams tune one nearest-neighbor search.
type SearchParams struct {
	Limit          uint64
	ScoreThreshold float32
	// Company, when set, is applied as an exact payload filter.
	Company string
}

// VectorStore is the contract the ingestion pipeline and the retriever need
// from the vector database.
type VectorStore interface {
	// EnsureCollection creates the collection with the given vector size and
	// cosine distance when it does not exist yet.
	EnsureCollection(ctx context.Context, vectorSize uint64) error
	// VectorSize reports the collection's declared vector dimensionality.
	VectorSize(ctx context.Context) (uint64, error)
	// Upsert inserts or overwrites points by identifier.
	Upsert(ctx context.Context, points []*qdrant.PointStruct) error
	// Search runs a filtered nearest-neighbor query and returns ranked
	// excerpts with payload metadata.
	Search(ctx context.Context, vector []float32, params SearchParams) ([]types.RankedExcerpt, error)
}
