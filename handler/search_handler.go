package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/finsight-ai/finsight-be/service"
	"github.com/finsight-ai/finsight-be/types"
)

type SearchHandler struct {
	rag *service.RAGService
}

func NewSearchHandler(rag *service.RAGService) *SearchHandler {
	return &SearchHandler{
		rag: rag,
	}
}

// HandleSearch returns ranked excerpts without answer synthesis, mainly for
// debugging retrieval quality.
func (h *SearchHandler) HandleSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var req types.SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Question) == "" {
			sendError(w, "Question is required", http.StatusBadRequest)
			return
		}

		excerpts, err := h.rag.Retrieve(r.Context(), req.Question, req.Company)
		if err != nil {
			sendError(w, "Search failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if excerpts == nil {
			excerpts = []types.RankedExcerpt{}
		}
		sendSuccess(w, types.SearchResponse{Excerpts: excerpts})
	}
}
