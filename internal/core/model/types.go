// Package model holds the canonical DTOs shared by the feed aggregator and the
// eligibility engine. Values arrive here already normalised by the ingestion
// boundary (repositories or the REST client).
package model

// Activity is a hostable, joinable real-world event.
//
// Capacity and ParticipantCount are lenient numbers because upstream payloads
// are not trusted to carry well-formed integers. A nil IsApproved means approved.
type Activity struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Location         string  `json:"location"`
	Time             string  `json:"time,omitempty"`
	Capacity         *Number `json:"capacity,omitempty"`
	ParticipantCount *Number `json:"participant_count,omitempty"`
	IsApproved       *bool   `json:"is_approved,omitempty"`
	HostID           int64   `json:"host"`
	Tags             Tags    `json:"tags"`
}

// Match is a confirmed pairing of two users around an activity.
// Id pointers are nil when the upstream record is only partially populated.
type Match struct {
	ID         int64  `json:"id"`
	UserAID    *int64 `json:"user_a_id,omitempty"`
	UserBID    *int64 `json:"user_b_id,omitempty"`
	UserA      string `json:"user_a"`
	UserB      string `json:"user_b"`
	ActivityID *int64 `json:"activity_id,omitempty"`
	Activity   string `json:"activity"`
	CreatedAt  string `json:"created_at"`
}

// OtherUser returns the participant that is not userID.
// ok is false when userID is on neither side or an id is missing.
func (m Match) OtherUser(userID int64) (id int64, name string, ok bool) {
	if m.UserAID == nil || m.UserBID == nil {
		return 0, "", false
	}
	switch userID {
	case *m.UserAID:
		return *m.UserBID, m.UserB, true
	case *m.UserBID:
		return *m.UserAID, m.UserA, true
	}
	return 0, "", false
}

// Conversation is a message thread. Messages are ordered oldest first.
type Conversation struct {
	ID       int64     `json:"id"`
	MatchID  *int64    `json:"match_id,omitempty"`
	Match    string    `json:"match"`
	Messages []Message `json:"messages"`
}

// LastMessage returns the newest message, if any.
func (c Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// Message is a single chat message.
type Message struct {
	ID        int64   `json:"id"`
	User      *Sender `json:"user,omitempty"`
	Message   string  `json:"message"`
	CreatedAt string  `json:"createdAt"`
}

// Sender is the embedded author of a message.
type Sender struct {
	FirstName string `json:"firstName,omitempty"`
	Email     string `json:"email,omitempty"`
}

// DisplayName falls back from first name to email to "Someone".
func (s *Sender) DisplayName() string {
	if s == nil {
		return "Someone"
	}
	if s.FirstName != "" {
		return s.FirstName
	}
	if s.Email != "" {
		return s.Email
	}
	return "Someone"
}

// Review is a rating one matched user leaves for another, scoped to an activity.
type Review struct {
	ID         int64  `json:"id"`
	ReviewerID int64  `json:"reviewerId"`
	RevieweePK int64  `json:"revieweePk"`
	ActivityPK int64  `json:"activityPk"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment,omitempty"`
}

// NotificationItem is a derived feed entry. It is rebuilt on every feed build.
type NotificationItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	Action    string `json:"action,omitempty"`
}

// Navigation action tags attached to notification items.
const (
	ActionViewMatch = "view_match"
	ActionOpenChat  = "open_chat"
)

// ReviewOpportunity is a completed match the current user has not reviewed yet.
type ReviewOpportunity struct {
	MatchID      int64  `json:"matchId"`
	ActivityID   int64  `json:"activityId"`
	Activity     string `json:"activity"`
	RevieweeID   int64  `json:"revieweeId"`
	RevieweeName string `json:"revieweeName"`
}
