package server

import (
	"errors"
	"net/http"

	"campusnet/graph"
	"campusnet/notifications"
	"campusnet/utils"

	log "github.com/sirupsen/logrus"
)

func sendError(w http.ResponseWriter, errorCode int, message string) {
	log.Info(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errorCode)
	resp := map[string]any{
		"error":   message,
		"success": false,
	}
	w.Write(utils.ToJson(resp))
}

func sendJson(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(utils.ToJson(payload))
}

// sendDomainError maps the error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a 500.
func sendDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, graph.ErrInvalidOperation):
		sendError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, graph.ErrDuplicateRequest):
		sendError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, graph.ErrInvalidState):
		sendError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, graph.ErrNotFound):
		sendError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, notifications.ErrPersistence):
		sendError(w, http.StatusInternalServerError, err.Error())
	default:
		sendError(w, http.StatusInternalServerError, "something went wrong")
	}
}
