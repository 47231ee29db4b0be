package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) followOrUnfollow(w http.ResponseWriter, r *http.Request) {
	actorID := userIDFrom(r.Context())
	targetID := chi.URLParam(r, "id")

	result, err := s.coordinator.ToggleFollow(r.Context(), actorID, targetID)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	message := "unfollowed successfully"
	if result.IsFollowRequest {
		message = "follow request sent"
	} else if result.Following {
		message = "followed successfully"
	}
	sendJson(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         message,
		"following":       result.Following,
		"isFollowRequest": result.IsFollowRequest,
	})
}

func (s *Server) listFollowRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.coordinator.ListPending(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendJson(w, http.StatusOK, map[string]any{
		"success":        true,
		"followRequests": requests,
	})
}

func (s *Server) acceptFollowRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")
	if err := s.coordinator.Accept(r.Context(), requestID, userIDFrom(r.Context())); err != nil {
		sendDomainError(w, err)
		return
	}
	sendJson(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "follow request accepted",
	})
}

func (s *Server) rejectFollowRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")
	if err := s.coordinator.Reject(r.Context(), requestID, userIDFrom(r.Context())); err != nil {
		sendDomainError(w, err)
		return
	}
	sendJson(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "follow request rejected",
	})
}
