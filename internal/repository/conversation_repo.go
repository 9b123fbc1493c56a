package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/irlobby/internal/db"
)

// ConversationRepository reads conversations and appends messages.
type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(database *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: database}
}

// latestMessageOnly keeps, per conversation, the message no other message
// follows in (created_at, id) order.
const latestMessageOnly = `NOT EXISTS (
	SELECT 1 FROM messages AS newer
	WHERE newer.conversation_id = messages.conversation_id
	  AND (newer.created_at > messages.created_at
	       OR (newer.created_at = messages.created_at AND newer.id > messages.id)))`

func (r *ConversationRepository) withMatch(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Match.Activity").
		Preload("Match.UserA").
		Preload("Match.UserB")
}

func (r *ConversationRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.withMatch(ctx).
		Preload("Messages", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("messages.created_at ASC, messages.id ASC")
		}).
		Preload("Messages.Sender")
}

func (r *ConversationRepository) matchesOf(userID uint64) *gorm.DB {
	return r.db.Model(&db.Match{}).
		Select("id").
		Where("user_a_id = ? OR user_b_id = ?", userID, userID)
}

// ListForUser returns the conversations of every match the user is part of.
// Messages are ordered oldest first.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID uint64) ([]db.Conversation, error) {
	var conversations []db.Conversation
	err := r.preloaded(ctx).
		Where("match_id IN (?)", r.matchesOf(userID)).
		Order("id ASC").
		Find(&conversations).Error
	return conversations, err
}

// ListLatestForUser is ListForUser with only the newest message of each
// conversation loaded. Conversations without messages come back empty.
func (r *ConversationRepository) ListLatestForUser(ctx context.Context, userID uint64) ([]db.Conversation, error) {
	var conversations []db.Conversation
	err := r.withMatch(ctx).
		Preload("Messages", func(tx *gorm.DB) *gorm.DB {
			return tx.Where(latestMessageOnly)
		}).
		Preload("Messages.Sender").
		Where("match_id IN (?)", r.matchesOf(userID)).
		Order("id ASC").
		Find(&conversations).Error
	return conversations, err
}

// Get loads a conversation with its match and messages.
func (r *ConversationRepository) Get(ctx context.Context, id uint64) (*db.Conversation, error) {
	var c db.Conversation
	if err := r.preloaded(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// AddMessage persists a message and loads its sender.
func (r *ConversationRepository) AddMessage(ctx context.Context, msg *db.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).First(&msg.Sender, msg.SenderID).Error
}
