package server

import (
	"encoding/json"
	"net/http"

	"campusnet/storage/models"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

type sendMessageRequest struct {
	Text string `json:"text"`
}

// sendMessage persists the message first, then attempts a realtime push to
// the receiver. Same durable-first policy as notifications: the push is
// best effort, the stored conversation is the source of truth.
func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	senderID := userIDFrom(r.Context())
	receiverID := chi.URLParam(r, "id")
	if senderID == receiverID {
		sendError(w, http.StatusBadRequest, "you cannot message yourself")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		sendError(w, http.StatusBadRequest, "text is required")
		return
	}

	message := models.Message{
		Sender:   senderID,
		Receiver: receiverID,
		Text:     req.Text,
	}
	if err := s.store.CreateMessage(r.Context(), &message); err != nil {
		sendDomainError(w, err)
		return
	}

	if channel, ok := s.registry.Lookup(receiverID); ok {
		if err := channel.Push("message", message); err != nil {
			log.Warnf("Dropping realtime message push to user %s: %v", receiverID, err)
		}
	}

	sendJson(w, http.StatusCreated, map[string]any{"success": true, "newMessage": message})
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.store.ListMessages(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendJson(w, http.StatusOK, map[string]any{"success": true, "messages": messages})
}
