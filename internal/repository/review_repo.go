package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/irlobby/internal/db"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(database *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: database}
}

// ListByReviewer returns reviews authored by the user, oldest first.
func (r *ReviewRepository) ListByReviewer(ctx context.Context, reviewerID uint64) ([]db.Review, error) {
	var reviews []db.Review
	err := r.db.WithContext(ctx).
		Where("reviewer_id = ?", reviewerID).
		Order("id ASC").
		Find(&reviews).Error
	return reviews, err
}

// Create persists a review. The unique index on (reviewer, reviewee,
// activity) rejects duplicates.
func (r *ReviewRepository) Create(ctx context.Context, rv *db.Review) error {
	return r.db.WithContext(ctx).Create(rv).Error
}
