package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/juridia/legal-assistant-be/middleware"
	"github.com/juridia/legal-assistant-be/service"
	"github.com/juridia/legal-assistant-be/types"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// HandleQuery answers one user message over plain HTTP. The websocket channel
// is the primary chat surface; this endpoint serves scripted clients.
func (h *ChatHandler) HandleQuery() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, types.DataResponse{
				Status:  false,
				Message: "Method not allowed",
			})
			return
		}

		var req types.QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, types.DataResponse{
				Status:  false,
				Message: "Invalid request body",
			})
			return
		}

		res, err := h.chat.ProcessQuery(r.Context(), req)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, types.ErrEmptyQuery) {
				status = http.StatusBadRequest
			}
			writeJSON(w, status, types.DataResponse{
				Status:  false,
				Message: err.Error(),
			})
			return
		}

		writeJSON(w, http.StatusOK, types.DataResponse{
			Status: true,
			Data:   res,
		})
	})
}

// HandleHistory returns the durable exchange trail of a conversation.
func (h *ChatHandler) HandleHistory() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, types.DataResponse{
				Status:  false,
				Message: "Method not allowed",
			})
			return
		}

		conversationID := r.URL.Query().Get("conversation_id")
		if conversationID == "" {
			writeJSON(w, http.StatusBadRequest, types.DataResponse{
				Status:  false,
				Message: "conversation_id parameter is required",
			})
			return
		}

		res, err := h.chat.GetHistory(r.Context(), conversationID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, types.ErrConversationNotFound) {
				status = http.StatusNotFound
			}
			writeJSON(w, status, types.DataResponse{
				Status:  false,
				Message: err.Error(),
			})
			return
		}

		writeJSON(w, http.StatusOK, types.DataResponse{
			Status: true,
			Data:   res,
		})
	})
}

// HandleClear deletes a conversation along with its cached state.
func (h *ChatHandler) HandleClear() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			writeJSON(w, http.StatusMethodNotAllowed, types.DataResponse{
				Status:  false,
				Message: "Method not allowed",
			})
			return
		}

		conversationID := r.URL.Query().Get("conversation_id")
		if conversationID == "" {
			writeJSON(w, http.StatusBadRequest, types.DataResponse{
				Status:  false,
				Message: "conversation_id parameter is required",
			})
			return
		}

		if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
			log.Printf("chat: conversation %s cleared by %s", conversationID, claims.Username)
		}

		if err := h.chat.ClearConversation(r.Context(), conversationID); err != nil {
			writeJSON(w, http.StatusInternalServerError, types.DataResponse{
				Status:  false,
				Message: err.Error(),
			})
			return
		}

		writeJSON(w, http.StatusOK, types.DataResponse{
			Status:  true,
			Message: "Conversation deleted",
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, body types.DataResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
