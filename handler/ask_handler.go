package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/finsight-ai/finsight-be/service"
	"github.com/finsight-ai/finsight-be/types"
)

type AskHandler struct {
	rag *service.RAGService
}

func NewAskHandler(rag *service.RAGService) *AskHandler {
	return &AskHandler{
		rag: rag,
	}
}

func (h *AskHandler) HandleAsk() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var req types.AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Question) == "" {
			sendError(w, "Question is required", http.StatusBadRequest)
			return
		}

		resp, err := h.rag.AnswerQuestion(r.Context(), req)
		if err != nil {
			if errors.Is(err, service.ErrDimensionMismatch) {
				sendError(w, "Embedding model does not match the collection: "+err.Error(), http.StatusInternalServerError)
				return
			}
			sendError(w, "Failed to answer: "+err.Error(), http.StatusInternalServerError)
			return
		}
		sendSuccess(w, resp)
	}
}

func sendError(w http.ResponseWriter, message string, status int) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(types.ErrorResponse{
		Status: false,
		Error:  message,
	})
}

func sendSuccess(w http.ResponseWriter, data interface{}) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(types.DataResponse{
		Status: true,
		Data:   data,
	})
}
