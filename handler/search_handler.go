package handler

import (
	"net/http"
	"strconv"

	"github.com/juridia/legal-assistant-be/service"
	"github.com/juridia/legal-assistant-be/types"
)

type SearchHandler struct {
	retrieval *service.RetrievalService
}

func NewSearchHandler(retrieval *service.RetrievalService) *SearchHandler {
	return &SearchHandler{retrieval: retrieval}
}

// HandleSearch exposes the retrieval stage directly, mainly for verifying what
// the index returns for a query without going through the model.
func (h *SearchHandler) HandleSearch() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, types.DataResponse{
				Status:  false,
				Message: "Method not allowed",
			})
			return
		}

		query := r.URL.Query().Get("q")
		if query == "" {
			writeJSON(w, http.StatusBadRequest, types.DataResponse{
				Status:  false,
				Message: "q parameter is required",
			})
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, types.DataResponse{
					Status:  false,
					Message: "limit must be a non-negative integer",
				})
				return
			}
			limit = n
		}

		evidence := h.retrieval.Retrieve(r.Context(), query, nil)
		if limit > 0 && len(evidence) > limit {
			evidence = evidence[:limit]
		}

		writeJSON(w, http.StatusOK, types.DataResponse{
			Status: true,
			Data:   evidence,
		})
	})
}
