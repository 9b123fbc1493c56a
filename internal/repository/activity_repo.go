package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/irlobby/internal/db"
)

// ActivityRepository covers activities and their participants.
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(database *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: database}
}

// Create persists a new activity; ID and timestamps are filled in.
func (r *ActivityRepository) Create(ctx context.Context, a *db.Activity) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// Get loads an activity by id. Returns gorm.ErrRecordNotFound when missing.
func (r *ActivityRepository) Get(ctx context.Context, id uint64) (*db.Activity, error) {
	var a db.Activity
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CountParticipants is the DB fallback for the cached participant count.
func (r *ActivityRepository) CountParticipants(ctx context.Context, activityID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.ActivityParticipant{}).
		Where("activity_id = ?", activityID).
		Count(&count).Error
	return count, err
}

func (r *ActivityRepository) IsParticipant(ctx context.Context, activityID, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.ActivityParticipant{}).
		Where("activity_id = ? AND user_id = ?", activityID, userID).
		Count(&count).Error
	return count > 0, err
}

// JoinWithinCapacity adds the user to the activity if fits accepts the
// activity and its current participant count. The activity row is locked for
// the duration of the transaction and the count is read from the table, so
// concurrent joins cannot overshoot capacity. joined is false when fits
// refused; the returned count is the number of participants afterwards.
func (r *ActivityRepository) JoinWithinCapacity(
	ctx context.Context,
	activityID, userID uint64,
	fits func(a *db.Activity, count int64) bool,
) (joined bool, count int64, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a db.Activity
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&a, activityID).Error; err != nil {
			return err
		}
		if err := tx.Model(&db.ActivityParticipant{}).
			Where("activity_id = ?", activityID).
			Count(&count).Error; err != nil {
			return err
		}
		if !fits(&a, count) {
			return nil
		}
		if err := tx.Create(&db.ActivityParticipant{ActivityID: activityID, UserID: userID}).Error; err != nil {
			return err
		}
		joined = true
		count++
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return joined, count, nil
}

// RemoveParticipant deletes the pair and reports whether a row was removed.
func (r *ActivityRepository) RemoveParticipant(ctx context.Context, activityID, userID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("activity_id = ? AND user_id = ?", activityID, userID).
		Delete(&db.ActivityParticipant{})
	return res.RowsAffected > 0, res.Error
}
