package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"campus-hub-backend/internal/events"
	"campus-hub-backend/internal/middleware"
	"campus-hub-backend/internal/models"
	"campus-hub-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFriendshipStore struct {
	byID      map[string]*models.FriendRequest
	active    bool
	activeErr error
}

func newFakeFriendshipStore() *fakeFriendshipStore {
	return &fakeFriendshipStore{byID: make(map[string]*models.FriendRequest)}
}

func (s *fakeFriendshipStore) Create(ctx context.Context, req *models.FriendRequest) error {
	s.byID[req.ID] = req
	return nil
}

func (s *fakeFriendshipStore) GetByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	req, ok := s.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return req, nil
}

func (s *fakeFriendshipStore) Resolve(ctx context.Context, requestID, receiverID string, status models.FriendStatus) (bool, error) {
	req, ok := s.byID[requestID]
	if !ok || req.ReceiverID != receiverID || req.Status != models.FriendStatusPending {
		return false, nil
	}
	req.Status = status
	return true, nil
}

func (s *fakeFriendshipStore) LatestBetween(ctx context.Context, userID, otherID string) (*models.FriendRequest, error) {
	return nil, nil
}

func (s *fakeFriendshipStore) ActiveBetween(ctx context.Context, userID, otherID string) (bool, error) {
	return s.active, s.activeErr
}

func (s *fakeFriendshipStore) PendingFor(ctx context.Context, userID string) ([]*models.FriendRequest, error) {
	var out []*models.FriendRequest
	for _, req := range s.byID {
		if req.ReceiverID == userID && req.Status == models.FriendStatusPending {
			out = append(out, req)
		}
	}
	return out, nil
}

func (s *fakeFriendshipStore) AcceptedPeers(ctx context.Context, userID string) ([]*models.Profile, error) {
	return nil, nil
}

type noopBus struct{}

func (noopBus) Publish(ctx context.Context, topic string, evt events.Event) error { return nil }

type fakeProfileGetter struct{}

func (fakeProfileGetter) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	return &models.Profile{ID: id}, nil
}

func friendRouter(store *fakeFriendshipStore) http.Handler {
	h := NewFriendHandler(services.NewFriendshipService(store, fakeProfileGetter{}, noopBus{}))
	r := chi.NewRouter()
	r.Post("/friends/requests", h.SendRequest)
	r.Post("/friends/requests/{request_id}/respond", h.Respond)
	r.Get("/friends/requests", h.Pending)
	r.Get("/friends/status/{user_id}", h.Status)
	return r
}

func doAs(t *testing.T, handler http.Handler, userID, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSendRequestEndpoint(t *testing.T) {
	store := newFakeFriendshipStore()
	router := friendRouter(store)

	rec := doAs(t, router, "alice", http.MethodPost, "/friends/requests", `{"receiver_id":"bob"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var req models.FriendRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &req))
	assert.Equal(t, "alice", req.SenderID)
	assert.Equal(t, "bob", req.ReceiverID)
	assert.Equal(t, models.FriendStatusPending, req.Status)
}

func TestSendRequestEndpointSelf(t *testing.T) {
	router := friendRouter(newFakeFriendshipStore())

	rec := doAs(t, router, "alice", http.MethodPost, "/friends/requests", `{"receiver_id":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendRequestEndpointDuplicate(t *testing.T) {
	store := newFakeFriendshipStore()
	store.active = true
	router := friendRouter(store)

	rec := doAs(t, router, "alice", http.MethodPost, "/friends/requests", `{"receiver_id":"bob"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSendRequestEndpointBackendDown(t *testing.T) {
	store := newFakeFriendshipStore()
	store.activeErr = fmt.Errorf("failed to check active request: %w: %w",
		models.ErrBackendUnavailable, errors.New("connection refused"))
	router := friendRouter(store)

	rec := doAs(t, router, "alice", http.MethodPost, "/friends/requests", `{"receiver_id":"bob"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRespondEndpointAccept(t *testing.T) {
	store := newFakeFriendshipStore()
	store.byID["r1"] = &models.FriendRequest{
		ID: "r1", SenderID: "alice", ReceiverID: "bob",
		Status: models.FriendStatusPending,
	}
	router := friendRouter(store)

	rec := doAs(t, router, "bob", http.MethodPost, "/friends/requests/r1/respond", `{"decision":"accepted"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.FriendStatusAccepted, store.byID["r1"].Status)
}

func TestRespondEndpointWrongReceiver(t *testing.T) {
	store := newFakeFriendshipStore()
	store.byID["r1"] = &models.FriendRequest{
		ID: "r1", SenderID: "alice", ReceiverID: "bob",
		Status: models.FriendStatusPending,
	}
	router := friendRouter(store)

	rec := doAs(t, router, "eve", http.MethodPost, "/friends/requests/r1/respond", `{"decision":"accepted"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRespondEndpointAlreadyResolved(t *testing.T) {
	store := newFakeFriendshipStore()
	store.byID["r1"] = &models.FriendRequest{
		ID: "r1", SenderID: "alice", ReceiverID: "bob",
		Status: models.FriendStatusAccepted,
	}
	router := friendRouter(store)

	rec := doAs(t, router, "bob", http.MethodPost, "/friends/requests/r1/respond", `{"decision":"rejected"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, models.FriendStatusAccepted, store.byID["r1"].Status)
}

func TestRespondEndpointMissing(t *testing.T) {
	router := friendRouter(newFakeFriendshipStore())

	rec := doAs(t, router, "bob", http.MethodPost, "/friends/requests/nope/respond", `{"decision":"accepted"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusEndpointNone(t *testing.T) {
	router := friendRouter(newFakeFriendshipStore())

	rec := doAs(t, router, "alice", http.MethodGet, "/friends/status/bob", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "none", body["status"])
}

func TestPendingEndpoint(t *testing.T) {
	store := newFakeFriendshipStore()
	store.byID["r1"] = &models.FriendRequest{
		ID: "r1", SenderID: "alice", ReceiverID: "bob",
		Status: models.FriendStatusPending,
	}
	router := friendRouter(store)

	rec := doAs(t, router, "bob", http.MethodGet, "/friends/requests", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Requests []*models.FriendRequest `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Requests, 1)
	assert.Equal(t, "r1", body.Requests[0].ID)
}
