package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/irlobby/internal/core/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, "tok", WithTimeout(2*time.Second), WithMaxRetryElapsed(3*time.Second))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListMatchesRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/matches", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "busy"})
			return
		}
		writeJSON(w, http.StatusOK, []model.Match{{ID: 7, UserA: "Alex", UserB: "Sam"}})
	})

	matches, err := c.ListMatches(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(7), matches[0].ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientErrorsArePermanent(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "record not found"})
	})

	_, err := c.GetActivity(context.Background(), 9)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Contains(t, err.Error(), "record not found")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetActivityDecodesLenientNumbers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/activities/3", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":3,"title":"Picnic","capacity":"4","participant_count":2,"host":1,"tags":"food, Food"}`))
	})

	a, err := c.GetActivity(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, a.Capacity)
	n, ok := a.Capacity.Truncated()
	require.True(t, ok)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, model.Tags{"food"}, a.Tags)
}

func TestListConversationsAndReviews(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/conversations":
			writeJSON(w, http.StatusOK, []model.Conversation{{ID: 1, Match: "Yoga", Messages: []model.Message{{ID: 2, Message: "hi"}}}})
		case "/api/reviews/mine":
			writeJSON(w, http.StatusOK, []model.Review{{ID: 5, ReviewerID: 1, RevieweePK: 2, ActivityPK: 3, Rating: 4}})
		default:
			http.NotFound(w, r)
		}
	})

	conversations, err := c.ListConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Len(t, conversations[0].Messages, 1)

	reviews, err := c.ListMyReviews(context.Background())
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, int64(3), reviews[0].ActivityPK)
}

func TestSubmitReviewIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	})

	_, err := c.SubmitReview(context.Background(), ReviewRequest{ActivityID: 1, RevieweeID: 2, Rating: 5})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubmitReview(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var req ReviewRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, ReviewRequest{ActivityID: 1, RevieweeID: 2, Rating: 5, Comment: "great"}, req)
		writeJSON(w, http.StatusCreated, model.Review{ID: 9, ReviewerID: 1, RevieweePK: 2, ActivityPK: 1, Rating: 5})
	})

	rv, err := c.SubmitReview(context.Background(), ReviewRequest{ActivityID: 1, RevieweeID: 2, Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), rv.ID)
}

func TestGetStopsOnContextCancel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream"})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err := c.ListMatches(ctx)
	assert.Error(t, err)
}
