package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/irlobby/internal/db"
	apperr "github.com/oggyb/irlobby/internal/errors"
)

// MatchRepository provides access to matches and the conversation that is
// opened alongside each one.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// ListForUser returns matches where the user is on either side, newest first,
// with users and activity preloaded.
func (r *MatchRepository) ListForUser(ctx context.Context, userID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Preload("UserA").
		Preload("UserB").
		Preload("Activity").
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&matches).Error
	return matches, err
}

// Get loads a match with users and activity.
func (r *MatchRepository) Get(ctx context.Context, id uint64) (*db.Match, error) {
	var m db.Match
	err := r.db.WithContext(ctx).
		Preload("UserA").
		Preload("UserB").
		Preload("Activity").
		First(&m, id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindBetween returns the match on the activity pairing the two users, in
// either order.
func (r *MatchRepository) FindBetween(ctx context.Context, activityID, userID, otherID uint64) (*db.Match, error) {
	var m db.Match
	err := r.db.WithContext(ctx).
		Preload("Activity").
		Preload("UserA").
		Preload("UserB").
		Where("activity_id = ?", activityID).
		Where("(user_a_id = ? AND user_b_id = ?) OR (user_a_id = ? AND user_b_id = ?)",
			userID, otherID, otherID, userID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateWithConversation opens a match (hostID as side A) and its conversation
// in one transaction. It is idempotent: when the match already exists it is
// returned with created=false. A concurrent insert losing the unique index race
// is treated the same way.
func (r *MatchRepository) CreateWithConversation(
	ctx context.Context,
	activityID, hostID, userID uint64,
) (match *db.Match, created bool, err error) {
	existing, err := r.FindBetween(ctx, activityID, hostID, userID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	m := db.Match{ActivityID: activityID, UserAID: hostID, UserBID: userID}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		return tx.Create(&db.Conversation{MatchID: &m.ID}).Error
	})
	if apperr.IsDuplicate(err) {
		existing, ferr := r.FindBetween(ctx, activityID, hostID, userID)
		if ferr != nil {
			return nil, false, ferr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	full, err := r.Get(ctx, m.ID)
	if err != nil {
		return nil, false, err
	}
	return full, true, nil
}
