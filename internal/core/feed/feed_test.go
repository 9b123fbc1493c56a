package feed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/irlobby/internal/core/feed"
	"github.com/oggyb/irlobby/internal/core/model"
)

func idPtr(n int64) *int64 { return &n }

func TestBuildNotificationFeed_MessageNewerSortsFirst(t *testing.T) {
	matches := []model.Match{{ID: 1, CreatedAt: "2024-01-01T00:00:00Z", UserA: "A", UserB: "B", Activity: "X"}}
	conversations := []model.Conversation{{
		ID:    9,
		Match: "X",
		Messages: []model.Message{
			{ID: 3, Message: "hi", CreatedAt: "2024-01-02T00:00:00Z", User: &model.Sender{FirstName: "Sam"}},
		},
	}}

	got := feed.BuildNotificationFeed(matches, conversations)

	require.Len(t, got, 2)
	assert.Equal(t, "message-9-3", got[0].ID)
	assert.Equal(t, "New message in X", got[0].Title)
	assert.Equal(t, "Sam: hi", got[0].Body)
	assert.Equal(t, "match-1", got[1].ID)
	assert.Equal(t, "New match confirmed!", got[1].Title)
	assert.Equal(t, "A and B matched for X", got[1].Body)
	assert.Equal(t, model.ActionViewMatch, got[1].Action)
}

func TestBuildNotificationFeed_OnlyLastMessage(t *testing.T) {
	conversations := []model.Conversation{{
		ID:      4,
		MatchID: idPtr(1),
		Messages: []model.Message{
			{ID: 1, Message: "first", CreatedAt: "2024-03-01T00:00:00Z"},
			{ID: 2, Message: "second", CreatedAt: "2024-03-02T00:00:00Z", User: &model.Sender{Email: "kim@example.com"}},
		},
	}}

	got := feed.BuildNotificationFeed(nil, conversations)

	require.Len(t, got, 1)
	assert.Equal(t, "message-4-2", got[0].ID)
	assert.Equal(t, "kim@example.com: second", got[0].Body)
	assert.Equal(t, "New message in your conversation", got[0].Title)
	assert.Equal(t, model.ActionOpenChat, got[0].Action)
}

func TestBuildNotificationFeed_EmptyConversationContributesNothing(t *testing.T) {
	got := feed.BuildNotificationFeed(nil, []model.Conversation{{ID: 1}, {ID: 2, Messages: []model.Message{}}})

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBuildNotificationFeed_MissingSender(t *testing.T) {
	conversations := []model.Conversation{{
		ID:       1,
		Match:    "Yoga",
		Messages: []model.Message{{ID: 1, Message: "yo"}},
	}}

	got := feed.BuildNotificationFeed(nil, conversations)

	require.Len(t, got, 1)
	assert.Equal(t, "Someone: yo", got[0].Body)
	assert.Empty(t, got[0].Action, "unlinked conversations carry no navigation action")
}

func TestBuildNotificationFeed_TiesKeepMatchesFirst(t *testing.T) {
	ts := "2024-05-05T10:00:00Z"
	matches := []model.Match{{ID: 2, CreatedAt: ts}, {ID: 1, CreatedAt: ts}}
	conversations := []model.Conversation{
		{ID: 7, Messages: []model.Message{{ID: 1, CreatedAt: ts}}},
		{ID: 3, Messages: []model.Message{{ID: 1, CreatedAt: ts}}},
	}

	got := feed.BuildNotificationFeed(matches, conversations)

	ids := make([]string, 0, len(got))
	for _, it := range got {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"match-2", "match-1", "message-7-1", "message-3-1"}, ids)
}

func TestBuildNotificationFeed_InvalidTimestampsSortOldest(t *testing.T) {
	matches := []model.Match{
		{ID: 1, CreatedAt: "garbage"},
		{ID: 2, CreatedAt: "2023-06-01T00:00:00Z"},
		{ID: 3, CreatedAt: ""},
	}
	conversations := []model.Conversation{
		{ID: 5, Messages: []model.Message{{ID: 9, CreatedAt: "2023-07-01T00:00:00+02:00"}}},
	}

	got := feed.BuildNotificationFeed(matches, conversations)

	ids := make([]string, 0, len(got))
	for _, it := range got {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"message-5-9", "match-2", "match-1", "match-3"}, ids)
}

func TestBuildNotificationFeed_SubMillisecondOrder(t *testing.T) {
	matches := []model.Match{{ID: 1, CreatedAt: "2024-01-01T00:00:00.000100Z", UserA: "A", UserB: "B", Activity: "X"}}
	conversations := []model.Conversation{{
		ID:       9,
		Match:    "X",
		Messages: []model.Message{{ID: 3, Message: "hi", CreatedAt: "2024-01-01T00:00:00.000900Z"}},
	}}

	got := feed.BuildNotificationFeed(matches, conversations)

	require.Len(t, got, 2)
	assert.Equal(t, "message-9-3", got[0].ID)
	assert.Equal(t, "match-1", got[1].ID)
}

func TestBuildNotificationFeed_InvalidSortsBelowPre1970(t *testing.T) {
	matches := []model.Match{
		{ID: 1, CreatedAt: "not a date"},
		{ID: 2, CreatedAt: "1965-03-01T00:00:00Z"},
	}

	got := feed.BuildNotificationFeed(matches, nil)

	require.Len(t, got, 2)
	assert.Equal(t, "match-2", got[0].ID)
	assert.Equal(t, "match-1", got[1].ID)
}

func TestBuildNotificationFeed_SortedNonAscendingAndUniqueIDs(t *testing.T) {
	matches := []model.Match{
		{ID: 1, CreatedAt: "2024-01-03T00:00:00Z"},
		{ID: 2, CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: 3, CreatedAt: "2024-01-05T00:00:00Z"},
	}
	conversations := []model.Conversation{
		{ID: 1, Messages: []model.Message{{ID: 1, CreatedAt: "2024-01-04T00:00:00Z"}}},
		{ID: 2, Messages: []model.Message{{ID: 1, CreatedAt: "2024-01-02T00:00:00Z"}}},
	}

	got := feed.BuildNotificationFeed(matches, conversations)

	require.Len(t, got, 5)
	seen := map[string]bool{}
	for i, it := range got {
		assert.False(t, seen[it.ID], "duplicate id %s", it.ID)
		seen[it.ID] = true
		if i > 0 {
			assert.False(t, model.KeyOf(it.CreatedAt).After(model.KeyOf(got[i-1].CreatedAt)), "%s sorted after an older item", it.ID)
		}
	}
}

func TestBuildNotificationFeed_Idempotent(t *testing.T) {
	matches := []model.Match{{ID: 1, CreatedAt: "2024-01-01T00:00:00Z", UserA: "A", UserB: "B"}}
	conversations := []model.Conversation{{ID: 2, Messages: []model.Message{{ID: 1, CreatedAt: "bad"}}}}

	assert.Equal(t, feed.BuildNotificationFeed(matches, conversations), feed.BuildNotificationFeed(matches, conversations))
}

func TestBuildNotificationFeed_DoesNotMutateInput(t *testing.T) {
	matches := []model.Match{
		{ID: 1, CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: 2, CreatedAt: "2024-02-01T00:00:00Z"},
	}
	_ = feed.BuildNotificationFeed(matches, nil)

	assert.Equal(t, int64(1), matches[0].ID)
}
