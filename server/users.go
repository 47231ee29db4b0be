package server

import (
	"encoding/json"
	"net/http"

	"campusnet/storage/models"
	"campusnet/utils"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 5

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		sendError(w, http.StatusBadRequest, "something is missing, please check")
		return
	}
	if len(req.Password) < minPasswordLength {
		sendError(w, http.StatusBadRequest, "password must be at least 5 characters long")
		return
	}

	email := utils.NormalizeEmail(req.Email)
	if existing, _ := s.store.GetUserByEmail(r.Context(), email); existing != nil {
		sendError(w, http.StatusBadRequest, "try different email")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	user := models.User{
		Username: req.Username,
		Email:    email,
		Password: string(hash),
	}
	if err := s.store.CreateUser(r.Context(), &user); err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	sendJson(w, http.StatusCreated, map[string]any{
		"message": "Account created successfully",
		"success": true,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		sendError(w, http.StatusBadRequest, "something is missing, please check")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), utils.NormalizeEmail(req.Email))
	if err != nil {
		sendError(w, http.StatusUnauthorized, "incorrect email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		sendError(w, http.StatusUnauthorized, "incorrect email or password")
		return
	}

	token, err := s.issueToken(user.ID.Hex())
	if err != nil {
		sendError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	sendJson(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

func (s *Server) getMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendJson(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func (s *Server) searchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		sendJson(w, http.StatusOK, map[string]any{"success": true, "users": []models.User{}})
		return
	}

	users, err := s.store.SearchUsers(r.Context(), query, userIDFrom(r.Context()))
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendJson(w, http.StatusOK, map[string]any{"success": true, "users": users})
}

func (s *Server) suggestedUsers(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		sendDomainError(w, err)
		return
	}

	users, err := s.store.SuggestedUsers(r.Context(), user, 10)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendJson(w, http.StatusOK, map[string]any{"success": true, "users": users})
}

type privacyRequest struct {
	Privacy models.Privacy `json:"privacy"`
}

func (s *Server) updatePrivacy(w http.ResponseWriter, r *http.Request) {
	var req privacyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Privacy != models.Public && req.Privacy != models.Private {
		sendError(w, http.StatusBadRequest, "privacy must be public or private")
		return
	}

	if err := s.store.UpdatePrivacy(r.Context(), userIDFrom(r.Context()), req.Privacy); err != nil {
		sendDomainError(w, err)
		return
	}
	sendJson(w, http.StatusOK, map[string]any{"success": true, "message": "privacy updated"})
}

func (s *Server) userStatistics(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if _, err := s.store.GetUser(r.Context(), userID); err != nil {
		sendDomainError(w, err)
		return
	}
	sendJson(w, http.StatusOK, map[string]any{
		"success":    true,
		"statistics": s.store.GetUserStatistics(userID),
	})
}
