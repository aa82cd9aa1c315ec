// ABOUTME: HTTP handlers for chat queries, probes and status
// ABOUTME: Query failures become reply strings with a matching status code
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/harper/notion-rag/internal/models"
	"go.uber.org/zap"
)

// Reply strings returned by POST /chat
const (
	ReplyNoQuery        = "No query provided."
	ReplyBadRequest     = "Invalid request body."
	ReplyNotReady       = "Index is still loading. Please try again shortly."
	ReplyQueryFailed    = "Sorry, failed to process your question."
	ReplyGenerateFailed = "Sorry, failed to generate an answer."
)

const maxBodyBytes = 1 << 20

// ChatRequest is the POST /chat body
type ChatRequest struct {
	Message string           `json:"message"`
	History []models.Message `json:"history"`
}

// ChatResponse is the POST /chat reply
type ChatResponse struct {
	Reply   string   `json:"reply"`
	Sources []string `json:"sources,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ChatResponse{Reply: ReplyBadRequest})
		return
	}

	query, err := models.NewQuery(strings.TrimSpace(req.Message), req.History)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ChatResponse{Reply: ReplyNoQuery})
		return
	}

	answer, err := s.answerer.Answer(r.Context(), *query)
	if err != nil {
		status, reply := replyForError(err)
		if status != http.StatusOK {
			s.logger.Warn("chat request failed", zap.Int("status", status), zap.Error(err))
		}
		writeJSON(w, status, ChatResponse{Reply: reply})
		return
	}

	resp := ChatResponse{Reply: answer.Reply}
	for _, src := range answer.Sources {
		resp.Sources = append(resp.Sources, src.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

// replyForError maps a query error to its status code and reply text
func replyForError(err error) (int, string) {
	var genErr *models.GenerationError
	switch {
	case errors.Is(err, models.ErrIndexNotReady):
		return http.StatusOK, ReplyNotReady
	case errors.As(err, &genErr):
		return http.StatusBadGateway, ReplyGenerateFailed
	default:
		return http.StatusInternalServerError, ReplyQueryFailed
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.status.Status().Ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Status())
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.cfg.Version})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
