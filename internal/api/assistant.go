package api

import (
	"net/http"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/assistant"
)

type chatRequest struct {
	History []assistant.Turn `json:"history"`
	Message string           `json:"message"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	Available bool   `json:"available"`
}

type normalizeRequest struct {
	Names []string `json:"names"`
}

type normalizeResponse struct {
	Names []string `json:"names"`
}

// AssistantChat answers a chat message. It always returns 200; an
// unconfigured or failing model yields explanatory text.
func (s *Server) AssistantChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	reply := s.Assistant.Chat(r.Context(), req.History, req.Message)
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, Available: s.Assistant.Available()})
}

// AssistantNormalize rewrites names to the naming convention, one per input.
func (s *Server) AssistantNormalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, normalizeResponse{Names: s.Assistant.NormalizeNames(r.Context(), req.Names)})
}
