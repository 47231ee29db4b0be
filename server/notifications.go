package server

import "net/http"

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	result, err := s.store.ListNotifications(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendJson(w, http.StatusOK, map[string]any{
		"success":       true,
		"notifications": result,
	})
}

func (s *Server) clearNotifications(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearNotifications(r.Context(), userIDFrom(r.Context())); err != nil {
		sendDomainError(w, err)
		return
	}
	sendJson(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "notifications cleared",
	})
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	s.hub.Serve(w, r, userIDFrom(r.Context()))
}
