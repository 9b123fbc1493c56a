package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/irlobby/internal/db"
	"github.com/oggyb/irlobby/internal/utils/pagination"
)

// SwipeRepository provides data access methods for the Swipe model.
// It encapsulates all queries related to likes/passes on activities.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Upsert inserts or updates a swipe made by user -> activity.
//
// Behavior:
//   - If (user_id, activity_id) exists → the row is updated with the new "liked" value.
//   - If it doesn’t exist → a new row is inserted.
//   - Composite PK ensures overwrite guarantee.
//
// Example:
//
//	repo.Upsert(ctx, 1, 2, true) // user 1 liked activity 2
func (r *SwipeRepository) Upsert(
	ctx context.Context,
	userID, activityID uint64,
	liked bool,
) error {
	swipe := db.Swipe{
		UserID:     userID,
		ActivityID: activityID,
		Liked:      liked,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "activity_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"liked", "updated_at"}),
		}).
		Create(&swipe).Error
}

// ListLikes returns the likes an activity received.
//
// Behavior:
//   - Only swipes where activity_id = X and liked = true are returned.
//   - Ordered by updated_at DESC, user_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.ListLikes(ctx, 42, nil, 20) // first 20 people who liked activity 42
func (r *SwipeRepository) ListLikes(
	ctx context.Context,
	activityID uint64,
	paginationToken *string,
	limit int,
) ([]db.Swipe, *string, error) {
	var swipes []db.Swipe

	// decode cursor if provided
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.activity_id = ? AND s.liked = true", activityID).
		Order("s.updated_at DESC, s.user_id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.UpdatedUnix).UTC()
		query = query.Where(
			"(s.updated_at < ? OR (s.updated_at = ? AND s.user_id < ?))",
			ts, ts, cursor.ID,
		)
	}

	if err := query.Find(&swipes).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(swipes) > limit {
		last := swipes[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ID:          last.UserID,
			UpdatedUnix: last.UpdatedAt.UnixMilli(),
		})
		nextToken = &token
		swipes = swipes[:limit]
	}

	return swipes, nextToken, nil
}

// CountLikes returns how many users liked the given activity.
func (r *SwipeRepository) CountLikes(
	ctx context.Context,
	activityID uint64,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("activity_id = ? AND liked = true", activityID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// HasLiked checks whether a user has liked an activity.
func (r *SwipeRepository) HasLiked(
	ctx context.Context,
	userID, activityID uint64,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("user_id = ? AND activity_id = ? AND liked = true", userID, activityID).
		Count(&count).Error
	return count > 0, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
