package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-ai/finsight-be/database"
	"github.com/finsight-ai/finsight-be/service"
	"github.com/finsight-ai/finsight-be/types"
)

type stubStore struct {
	vectorSize uint64
	results    []types.RankedExcerpt
}

func (s *stubStore) EnsureCollection(ctx context.Context, vectorSize uint64) error { return nil }
func (s *stubStore) VectorSize(ctx context.Context) (uint64, error)               { return s.vectorSize, nil }
func (s *stubStore) Upsert(ctx context.Context, points []*qdrant.PointStruct) error {
	return nil
}
func (s *stubStore) Search(ctx context.Context, vector []float32, params database.SearchParams) ([]types.RankedExcerpt, error) {
	return s.results, nil
}

type stubEmbedder struct{ dim int }

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, s.dim), nil
}
func (s *stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, s.dim)
	}
	return out, nil
}

type stubCompletion struct{ reply string }

func (s *stubCompletion) Complete(ctx context.Context, prompt string) (string, error) {
	return s.reply, nil
}
func (s *stubCompletion) Name() string { return "stub" }

func newStubRAG(store *stubStore, reply string) *service.RAGService {
	logger := testLogger()
	completion := &stubCompletion{reply: reply}
	chart := service.NewChartService(completion, nil, logger)
	return service.NewRAGService(store, &stubEmbedder{dim: int(store.vectorSize)}, completion, nil, chart, logger)
}

func TestHandleAsk(t *testing.T) {
	store := &stubStore{
		vectorSize: 8,
		results: []types.RankedExcerpt{
			{DocumentMeta: types.DocumentMeta{Title: "Acme-call", Company: "Acme"}, Text: "revenue was 100 Cr", Score: 0.8},
		},
	}
	h := NewAskHandler(newStubRAG(store, "Revenue was 100 Cr [S1]"))

	t.Run("answers with sources", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ask",
			strings.NewReader(`{"question":"what was revenue?","company":"Acme"}`))
		w := httptest.NewRecorder()
		h.HandleAsk()(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Status bool              `json:"status"`
			Data   types.AskResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Status)
		assert.Equal(t, "Revenue was 100 Cr [S1]", resp.Data.Answer)
		require.Len(t, resp.Data.Sources, 1)
		assert.Equal(t, "Acme-call", resp.Data.Sources[0].Title)
		assert.Nil(t, resp.Data.ChartSpec)
	})

	t.Run("rejects empty question", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(`{"question":"  "}`))
		w := httptest.NewRecorder()
		h.HandleAsk()(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(`{`))
		w := httptest.NewRecorder()
		h.HandleAsk()(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleSearch(t *testing.T) {
	store := &stubStore{
		vectorSize: 8,
		results: []types.RankedExcerpt{
			{DocumentMeta: types.DocumentMeta{Title: "Acme-call"}, Text: "excerpt", Score: 0.7},
		},
	}
	h := NewSearchHandler(newStubRAG(store, "unused"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search",
		strings.NewReader(`{"question":"revenue"}`))
	w := httptest.NewRecorder()
	h.HandleSearch()(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Status bool                 `json:"status"`
		Data   types.SearchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Excerpts, 1)
	assert.Equal(t, "excerpt", resp.Data.Excerpts[0].Text)
}
