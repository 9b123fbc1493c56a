package lobby

import (
	"encoding/json"

	"github.com/oggyb/irlobby/internal/core/model"
	"github.com/oggyb/irlobby/internal/db"
)

func id64(n uint64) *int64 {
	v := int64(n)
	return &v
}

// displayName is the name shown to other users.
func displayName(u db.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

func toActivity(a db.Activity, participants int64) model.Activity {
	out := model.Activity{
		ID:               int64(a.ID),
		Title:            a.Title,
		Location:         a.Location,
		ParticipantCount: model.Int(participants),
		IsApproved:       a.IsApproved,
		HostID:           int64(a.HostID),
		Tags:             decodeTags(a.Tags),
	}
	if a.StartsAt != nil {
		out.Time = model.FormatTimestamp(*a.StartsAt)
	}
	if a.Capacity != nil {
		out.Capacity = model.Int(int64(*a.Capacity))
	}
	return out
}

// decodeTags accepts whatever shape the column holds; malformed data yields no tags.
func decodeTags(raw []byte) model.Tags {
	var tags model.Tags
	if len(raw) == 0 || json.Unmarshal(raw, &tags) != nil {
		return model.Tags{}
	}
	return tags
}

func toMatch(m db.Match) model.Match {
	return model.Match{
		ID:         int64(m.ID),
		UserAID:    id64(m.UserAID),
		UserBID:    id64(m.UserBID),
		UserA:      displayName(m.UserA),
		UserB:      displayName(m.UserB),
		ActivityID: id64(m.ActivityID),
		Activity:   m.Activity.Title,
		CreatedAt:  model.FormatTimestamp(m.CreatedAt),
	}
}

func toMatches(in []db.Match) []model.Match {
	out := make([]model.Match, 0, len(in))
	for _, m := range in {
		out = append(out, toMatch(m))
	}
	return out
}

func toMessage(m db.Message) model.Message {
	out := model.Message{
		ID:        int64(m.ID),
		Message:   m.Body,
		CreatedAt: model.FormatTimestamp(m.CreatedAt),
	}
	if m.Sender.ID != 0 {
		out.User = &model.Sender{FirstName: m.Sender.FirstName, Email: m.Sender.Email}
	}
	return out
}

func toConversation(c db.Conversation) model.Conversation {
	out := model.Conversation{
		ID:       int64(c.ID),
		Messages: make([]model.Message, 0, len(c.Messages)),
	}
	if c.MatchID != nil {
		out.MatchID = id64(*c.MatchID)
	}
	if c.Match != nil {
		out.Match = c.Match.Activity.Title
	}
	for _, m := range c.Messages {
		out.Messages = append(out.Messages, toMessage(m))
	}
	return out
}

func toConversations(in []db.Conversation) []model.Conversation {
	out := make([]model.Conversation, 0, len(in))
	for _, c := range in {
		out = append(out, toConversation(c))
	}
	return out
}

func toReview(r db.Review) model.Review {
	return model.Review{
		ID:         int64(r.ID),
		ReviewerID: int64(r.ReviewerID),
		RevieweePK: int64(r.RevieweeID),
		ActivityPK: int64(r.ActivityID),
		Rating:     r.Rating,
		Comment:    r.Comment,
	}
}

func toReviews(in []db.Review) []model.Review {
	out := make([]model.Review, 0, len(in))
	for _, r := range in {
		out = append(out, toReview(r))
	}
	return out
}
