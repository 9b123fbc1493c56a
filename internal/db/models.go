package db

import (
	"time"

	"gorm.io/datatypes"
)

// User table
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	FirstName    string `gorm:"size:64"`
	PasswordHash string `gorm:"size:255;not null"`
	Active       bool   `gorm:"default:true"`
	LastLoginAt  time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Activity is a hosted, real-life event users can join.
//
// Capacity is nullable: NULL means no explicit limit (the eligibility policy
// applies its ceiling). IsApproved is nullable: NULL means approved.
type Activity struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement"`
	HostID           uint64 `gorm:"not null;index"`
	Host             User   `gorm:"foreignKey:HostID"`
	Title            string `gorm:"size:128;not null"`
	Location         string `gorm:"size:255"`
	StartsAt         *time.Time
	Capacity         *int
	IsApproved       *bool
	RequiresApproval bool `gorm:"not null;default:false"`
	Tags             datatypes.JSON
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// ActivityParticipant records a user who joined an activity.
// Composite PK: (ActivityID, UserID).
type ActivityParticipant struct {
	ActivityID uint64    `gorm:"primaryKey"`
	UserID     uint64    `gorm:"primaryKey;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Swipe represents a user's like/pass on an activity.
//
// Composite PK: (UserID, ActivityID)
//   - a single row per pair; swiping again overwrites.
//
// Indexes:
//   - idx_activity_liked_updated_user(activity_id, liked, updated_at DESC, user_id)
//     serves the host's "who liked my activity" list with pagination.
type Swipe struct {
	UserID     uint64    `gorm:"primaryKey;index:idx_activity_liked_updated_user,priority:4"`
	ActivityID uint64    `gorm:"primaryKey;index:idx_activity_liked_updated_user,priority:1"`
	Liked      bool      `gorm:"not null;index:idx_activity_liked_updated_user,priority:2"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime;index:idx_activity_liked_updated_user,priority:3,sort:desc"`
}

// Match pairs two users around an activity. UserAID is the host.
type Match struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	ActivityID uint64    `gorm:"not null;uniqueIndex:idx_match_activity_users,priority:1"`
	Activity   Activity  `gorm:"foreignKey:ActivityID"`
	UserAID    uint64    `gorm:"not null;uniqueIndex:idx_match_activity_users,priority:2;index"`
	UserA      User      `gorm:"foreignKey:UserAID"`
	UserBID    uint64    `gorm:"not null;uniqueIndex:idx_match_activity_users,priority:3;index"`
	UserB      User      `gorm:"foreignKey:UserBID"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Conversation is a chat thread, normally attached to a match.
type Conversation struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	MatchID   *uint64   `gorm:"uniqueIndex"`
	Match     *Match    `gorm:"foreignKey:MatchID"`
	Messages  []Message `gorm:"foreignKey:ConversationID"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	ConversationID uint64    `gorm:"not null;index:idx_message_conversation_created,priority:1"`
	SenderID       uint64    `gorm:"not null"`
	Sender         User      `gorm:"foreignKey:SenderID"`
	Body           string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index:idx_message_conversation_created,priority:2"`
}

// Review is one user's rating of another after a shared activity.
// Unique on (ReviewerID, RevieweeID, ActivityID).
type Review struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	ReviewerID uint64    `gorm:"not null;uniqueIndex:idx_review_once,priority:1"`
	RevieweeID uint64    `gorm:"not null;uniqueIndex:idx_review_once,priority:2"`
	ActivityID uint64    `gorm:"not null;uniqueIndex:idx_review_once,priority:3"`
	Rating     int       `gorm:"not null"`
	Comment    string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &Activity{}, &ActivityParticipant{}, &Swipe{},
		&Match{}, &Conversation{}, &Message{}, &Review{},
	}
}
