package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"campusnet/graph"
	"campusnet/notifications"
	"campusnet/realtime"
	"campusnet/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserStore struct {
	users map[string]*models.User
}

func (s *stubUserStore) GetUser(_ context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, graph.ErrNotFound
	}
	return user, nil
}

func (s *stubUserStore) AddFollowEdge(_ context.Context, actorID, targetID string) error {
	s.users[actorID].Following = append(s.users[actorID].Following, targetID)
	s.users[targetID].Followers = append(s.users[targetID].Followers, actorID)
	return nil
}

func (s *stubUserStore) RemoveFollowEdge(_ context.Context, actorID, targetID string) error {
	return nil
}

type stubRequestStore struct {
	pending map[string]*models.FollowRequest
}

func (s *stubRequestStore) CreateFollowRequest(_ context.Context, from, to string) (*models.FollowRequest, error) {
	request := &models.FollowRequest{From: from, To: to, Status: models.RequestPending}
	s.pending[from+"/"+to] = request
	return request, nil
}

func (s *stubRequestStore) GetFollowRequest(_ context.Context, id string) (*models.FollowRequest, error) {
	return nil, graph.ErrNotFound
}

func (s *stubRequestStore) FindPendingRequest(_ context.Context, from, to string) (*models.FollowRequest, error) {
	return s.pending[from+"/"+to], nil
}

func (s *stubRequestStore) UpdateRequestStatus(_ context.Context, id string, status models.RequestStatus) error {
	return graph.ErrNotFound
}

func (s *stubRequestStore) ListPendingRequests(_ context.Context, to string) ([]models.FollowRequest, error) {
	return nil, nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, notifications.Event) error { return nil }

func newTestServer(users map[string]*models.User) *Server {
	coordinator := graph.NewCoordinator(
		&stubUserStore{users: users},
		&stubRequestStore{pending: make(map[string]*models.FollowRequest)},
		noopNotifier{},
		graph.Config{},
	)
	registry := realtime.NewRegistry()
	return NewServer(nil, coordinator, nil, registry, realtime.NewHub(registry), "test-secret")
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTestServer(nil)

	token, err := s.issueToken("user-1")
	require.NoError(t, err)

	userID, err := s.parseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	s := newTestServer(nil)
	other := newTestServerWithSecret("other-secret")

	token, err := other.issueToken("user-1")
	require.NoError(t, err)

	_, err = s.parseToken(token)
	assert.Error(t, err)
}

func newTestServerWithSecret(secret string) *Server {
	registry := realtime.NewRegistry()
	return NewServer(nil, nil, nil, registry, realtime.NewHub(registry), secret)
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	s := newTestServer(map[string]*models.User{})
	router := s.Router()

	request := httptest.NewRequest(http.MethodPost, "/api/v1/user/followorunfollow/bob", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	s := newTestServer(map[string]*models.User{})
	router := s.Router()

	request := httptest.NewRequest(http.MethodPost, "/api/v1/user/followorunfollow/bob", nil)
	request.Header.Set("Authorization", "Bearer not-a-token")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestFollowOrUnfollowHandler(t *testing.T) {
	users := map[string]*models.User{
		"alice": {Username: "alice", Privacy: models.Public},
		"bob":   {Username: "bob", Privacy: models.Public},
	}
	s := newTestServer(users)
	router := s.Router()

	token, err := s.issueToken("alice")
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodPost, "/api/v1/user/followorunfollow/bob", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["following"])
	assert.Equal(t, false, body["isFollowRequest"])
	assert.Contains(t, users["bob"].Followers, "alice")
}

func TestFollowOrUnfollowSelf(t *testing.T) {
	users := map[string]*models.User{
		"alice": {Username: "alice", Privacy: models.Public},
	}
	s := newTestServer(users)
	router := s.Router()

	token, err := s.issueToken("alice")
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodPost, "/api/v1/user/followorunfollow/alice", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.True(t, strings.Contains(recorder.Body.String(), "yourself"))
}

func TestFollowPrivateTargetQueuesRequest(t *testing.T) {
	users := map[string]*models.User{
		"alice": {Username: "alice", Privacy: models.Public},
		"bob":   {Username: "bob", Privacy: models.Private},
	}
	s := newTestServer(users)
	router := s.Router()

	token, err := s.issueToken("alice")
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodPost, "/api/v1/user/followorunfollow/bob", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Equal(t, true, body["isFollowRequest"])
	assert.Empty(t, users["bob"].Followers)
}
