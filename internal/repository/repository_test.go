package repository_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/irlobby/internal/db"
	apperr "github.com/oggyb/irlobby/internal/errors"
	"github.com/oggyb/irlobby/internal/repository"
)

// setup in-memory DB
func setupTestDB(t *testing.T, seed bool) *gorm.DB {
	t.Helper()
	database, err := db.OpenMemory(t.Name())
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if seed {
		if err := db.SeedMinimalTestData(database); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
	}
	return database
}

func TestSwipeUpsert(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t, false)
	repo := repository.NewSwipeRepository(dbase)

	// insert like
	assert.NoError(t, repo.Upsert(ctx, 1, 2, true))
	// overwrite with pass
	assert.NoError(t, repo.Upsert(ctx, 1, 2, false))

	var swipes []db.Swipe
	require.NoError(t, dbase.Find(&swipes).Error)
	require.Len(t, swipes, 1)
	assert.False(t, swipes[0].Liked)

	liked, err := repo.HasLiked(ctx, 1, 2)
	assert.NoError(t, err)
	assert.False(t, liked)
}

func TestSwipeListLikesAndPagination(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t, false)
	repo := repository.NewSwipeRepository(dbase)

	for uid := uint64(1); uid <= 5; uid++ {
		require.NoError(t, repo.Upsert(ctx, uid, 99, true))
		time.Sleep(2 * time.Millisecond)
	}
	// pass is excluded
	require.NoError(t, repo.Upsert(ctx, 6, 99, false))
	// other activity is excluded
	require.NoError(t, repo.Upsert(ctx, 7, 100, true))

	count, err := repo.CountLikes(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	page1, next, err := repo.ListLikes(ctx, 99, nil, 2)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Len(t, page1, 2)
	assert.Equal(t, uint64(5), page1[0].UserID)
	assert.Equal(t, uint64(4), page1[1].UserID)

	page2, next, err := repo.ListLikes(ctx, 99, next, 2)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, []uint64{3, 2}, []uint64{page2[0].UserID, page2[1].UserID})

	page3, next, err := repo.ListLikes(ctx, 99, next, 2)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, page3, 1)
	assert.Equal(t, uint64(1), page3[0].UserID)
}

func TestSwipeListLikes_BadToken(t *testing.T) {
	repo := repository.NewSwipeRepository(setupTestDB(t, false))
	bad := "%%%"

	_, _, err := repo.ListLikes(context.Background(), 1, &bad, 10)
	assert.Error(t, err)
}

func TestActivityParticipants(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewActivityRepository(setupTestDB(t, true))

	count, err := repo.CountParticipants(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	ok, err := repo.IsParticipant(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	always := func(*db.Activity, int64) bool { return true }
	joined, count, err := repo.JoinWithinCapacity(ctx, 1, 3, always)
	require.NoError(t, err)
	assert.True(t, joined)
	assert.Equal(t, int64(2), count)
	_, _, err = repo.JoinWithinCapacity(ctx, 1, 3, always)
	assert.True(t, apperr.IsDuplicate(err), "second join must hit the primary key: %v", err)

	removed, err := repo.RemoveParticipant(ctx, 1, 3)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.RemoveParticipant(ctx, 1, 3)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestJoinWithinCapacity_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewActivityRepository(setupTestDB(t, true))

	capacity := 3
	a := &db.Activity{HostID: 1, Title: "Climbing", Capacity: &capacity}
	require.NoError(t, repo.Create(ctx, a))

	fits := func(locked *db.Activity, count int64) bool { return count < int64(*locked.Capacity) }

	var (
		wg     sync.WaitGroup
		joined atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(userID uint64) {
			defer wg.Done()
			ok, _, err := repo.JoinWithinCapacity(ctx, a.ID, userID, fits)
			assert.NoError(t, err)
			if ok {
				joined.Add(1)
			}
		}(uint64(10 + i))
	}
	wg.Wait()

	assert.Equal(t, int32(capacity), joined.Load())
	count, err := repo.CountParticipants(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(capacity), count)

	_, _, err = repo.JoinWithinCapacity(ctx, 404, 1, fits)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestActivityCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewActivityRepository(setupTestDB(t, true))

	capacity := 3
	a := &db.Activity{HostID: 2, Title: "Picnic", Capacity: &capacity, Tags: db.TagsJSON([]string{"food"})}
	require.NoError(t, repo.Create(ctx, a))
	assert.NotZero(t, a.ID)

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Picnic", got.Title)
	assert.JSONEq(t, `["food"]`, string(got.Tags))

	_, err = repo.Get(ctx, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMatchListForUser(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMatchRepository(setupTestDB(t, true))

	matches, err := repo.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	// newest first
	assert.Equal(t, uint64(2), matches[0].ID)
	assert.Equal(t, "Board Game Night", matches[0].Activity.Title)
	assert.Equal(t, "Alex", matches[1].UserA.FirstName)
	assert.Equal(t, "Sam", matches[1].UserB.FirstName)

	matches, err = repo.ListForUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestMatchCreateWithConversation_Idempotent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t, true)
	repo := repository.NewMatchRepository(dbase)

	m, created, err := repo.CreateWithConversation(ctx, 3, 2, 1)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint64(2), m.UserAID)
	assert.Equal(t, "Closed Meetup", m.Activity.Title)

	again, created, err := repo.CreateWithConversation(ctx, 3, 2, 1)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m.ID, again.ID)

	var conversations int64
	dbase.Model(&db.Conversation{}).Where("match_id = ?", m.ID).Count(&conversations)
	assert.Equal(t, int64(1), conversations)
}

func TestMatchFindBetween_EitherOrder(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMatchRepository(setupTestDB(t, true))

	m, err := repo.FindBetween(ctx, 1, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m.ID)

	_, err = repo.FindBetween(ctx, 2, 2, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestConversationListForUser(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewConversationRepository(setupTestDB(t, true))

	convs, err := repo.ListForUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	c := convs[0]
	require.Len(t, c.Messages, 2)
	assert.Equal(t, "welcome!", c.Messages[0].Body)
	assert.Equal(t, "Sam", c.Messages[1].Sender.FirstName)
	require.NotNil(t, c.Match)
	assert.Equal(t, "Sunrise Yoga", c.Match.Activity.Title)

	convs, err = repo.ListForUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, convs, 2)
}

func TestConversationListLatestForUser(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t, true)
	repo := repository.NewConversationRepository(dbase)

	// same created_at: the higher id wins
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, dbase.Create(&db.Message{ConversationID: 2, SenderID: 1, Body: "first", CreatedAt: at}).Error)
	require.NoError(t, dbase.Create(&db.Message{ConversationID: 2, SenderID: 3, Body: "second", CreatedAt: at}).Error)

	convs, err := repo.ListLatestForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, convs, 2)

	require.Len(t, convs[0].Messages, 1)
	assert.Equal(t, "see you there", convs[0].Messages[0].Body)
	assert.Equal(t, "Sam", convs[0].Messages[0].Sender.FirstName)
	require.NotNil(t, convs[0].Match)
	assert.Equal(t, "Sunrise Yoga", convs[0].Match.Activity.Title)

	require.Len(t, convs[1].Messages, 1)
	assert.Equal(t, "second", convs[1].Messages[0].Body)

	convs, err = repo.ListLatestForUser(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestConversationAddMessage(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewConversationRepository(setupTestDB(t, true))

	msg := &db.Message{ConversationID: 2, SenderID: 3, Body: "hello"}
	require.NoError(t, repo.AddMessage(ctx, msg))
	assert.NotZero(t, msg.ID)
	assert.Equal(t, "u3@test.com", msg.Sender.Email)

	c, err := repo.Get(ctx, 2)
	require.NoError(t, err)
	require.Len(t, c.Messages, 1)
}

func TestReviewCreateRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewReviewRepository(setupTestDB(t, true))

	reviews, err := repo.ListByReviewer(ctx, 2)
	require.NoError(t, err)
	require.Len(t, reviews, 1)

	err = repo.Create(ctx, &db.Review{ReviewerID: 2, RevieweeID: 1, ActivityID: 1, Rating: 4})
	assert.True(t, apperr.IsDuplicate(err))

	require.NoError(t, repo.Create(ctx, &db.Review{ReviewerID: 1, RevieweeID: 2, ActivityID: 1, Rating: 4}))
}
