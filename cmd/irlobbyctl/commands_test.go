package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/irlobby/internal/api"
	"github.com/oggyb/irlobby/internal/core/model"
)

func int64p(n int64) *int64 { return &n }

func fakeAPI(t *testing.T) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/matches":
			_ = json.NewEncoder(w).Encode([]model.Match{{
				ID: 1, UserAID: int64p(1), UserBID: int64p(2), UserA: "Alex", UserB: "Sam",
				ActivityID: int64p(5), Activity: "Yoga", CreatedAt: "2024-01-01T12:00:00Z",
			}})
		case "/api/conversations":
			_ = json.NewEncoder(w).Encode([]model.Conversation{})
		case "/api/reviews/mine":
			_ = json.NewEncoder(w).Encode([]model.Review{})
		case "/api/activities/5":
			_, _ = w.Write([]byte(`{"id":5,"title":"Yoga","capacity":2,"participant_count":"2","host":1,"tags":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	apiFlag = srv.URL
	tokenFlag = ""
	timeoutFlag = time.Second
	userFlag = 0
}

func TestFeedCommand(t *testing.T) {
	fakeAPI(t)
	cmd := feedCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	var items []model.NotificationItem
	require.NoError(t, json.Unmarshal(out.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "match-1", items[0].ID)
	assert.Equal(t, "Alex and Sam matched for Yoga", items[0].Body)
}

func TestOpportunitiesCommandUsesTokenUser(t *testing.T) {
	fakeAPI(t)
	tok, err := api.IssueToken("whatever", 2, time.Hour)
	require.NoError(t, err)
	tokenFlag = tok

	cmd := opportunitiesCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	var opps []model.ReviewOpportunity
	require.NoError(t, json.Unmarshal(out.Bytes(), &opps))
	require.Len(t, opps, 1)
	assert.Equal(t, int64(1), opps[0].RevieweeID)
	assert.Equal(t, "Alex", opps[0].RevieweeName)
}

func TestOpportunitiesCommandNeedsUser(t *testing.T) {
	fakeAPI(t)
	cmd := opportunitiesCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(nil)
	assert.Error(t, cmd.Execute())
}

func TestCanJoinCommand(t *testing.T) {
	fakeAPI(t)
	cmd := canJoinCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"5"})
	require.NoError(t, cmd.Execute())

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, false, got["joinable"])
	assert.Equal(t, float64(2), got["capacity"])
}
