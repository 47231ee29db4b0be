package server

import (
	"encoding/json"
	"net/http"

	"campusnet/notifications"
	"campusnet/storage/models"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

type addPostRequest struct {
	Caption string `json:"caption"`
}

func (s *Server) addPost(w http.ResponseWriter, r *http.Request) {
	var req addPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	post := models.Post{
		Author:  userIDFrom(r.Context()),
		Caption: req.Caption,
	}
	if err := s.store.CreatePost(r.Context(), &post); err != nil {
		sendDomainError(w, err)
		return
	}
	sendJson(w, http.StatusCreated, map[string]any{"success": true, "post": post})
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.store.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendJson(w, http.StatusOK, map[string]any{"success": true, "post": post})
}

func (s *Server) likePost(w http.ResponseWriter, r *http.Request) {
	actorID := userIDFrom(r.Context())
	postID := chi.URLParam(r, "id")

	post, err := s.store.GetPost(r.Context(), postID)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	if err := s.store.LikePost(r.Context(), postID, actorID); err != nil {
		sendDomainError(w, err)
		return
	}

	if post.Author != actorID {
		s.emit(r, notifications.LikeEvent(post.Author, actorID, postID))
	}
	sendJson(w, http.StatusOK, map[string]any{"success": true, "message": "post liked"})
}

func (s *Server) dislikePost(w http.ResponseWriter, r *http.Request) {
	actorID := userIDFrom(r.Context())
	postID := chi.URLParam(r, "id")

	post, err := s.store.GetPost(r.Context(), postID)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	if err := s.store.UnlikePost(r.Context(), postID, actorID); err != nil {
		sendDomainError(w, err)
		return
	}

	if post.Author != actorID {
		s.emit(r, notifications.DislikeEvent(post.Author, actorID, postID))
	}
	sendJson(w, http.StatusOK, map[string]any{"success": true, "message": "post disliked"})
}

type addCommentRequest struct {
	Text string `json:"text"`
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	actorID := userIDFrom(r.Context())
	postID := chi.URLParam(r, "id")

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		sendError(w, http.StatusBadRequest, "text is required")
		return
	}

	post, err := s.store.GetPost(r.Context(), postID)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	comment := models.Comment{
		Text:   req.Text,
		Author: actorID,
		Post:   postID,
	}
	if err := s.store.CreateComment(r.Context(), &comment); err != nil {
		sendDomainError(w, err)
		return
	}

	if post.Author != actorID {
		s.emit(r, notifications.CommentEvent(post.Author, actorID, postID))
	}
	sendJson(w, http.StatusCreated, map[string]any{"success": true, "comment": comment})
}

// emit forwards the event to the notification sink. A sink failure never
// fails the content action; the like or comment is already durable.
func (s *Server) emit(r *http.Request, event notifications.Event) {
	if err := s.sink.Notify(r.Context(), event); err != nil {
		log.Errorf("Failed to emit %s notification: %v", event.Kind, err)
	}
}
