// Package feed merges match and message events into a single notification
// feed, newest first.
package feed

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/oggyb/irlobby/internal/core/model"
)

const (
	matchTitle        = "New match confirmed!"
	fallbackChatLabel = "your conversation"
)

// MatchItemID is the feed id of a match notification.
func MatchItemID(matchID int64) string {
	return "match-" + strconv.FormatInt(matchID, 10)
}

// MessageItemID is the feed id of a message notification. It is namespaced by
// conversation so equal message ids in different conversations never collide.
func MessageItemID(conversationID, messageID int64) string {
	return "message-" + strconv.FormatInt(conversationID, 10) + "-" + strconv.FormatInt(messageID, 10)
}

// MatchItem builds the notification for a single match.
func MatchItem(m model.Match) model.NotificationItem {
	return model.NotificationItem{
		ID:        MatchItemID(m.ID),
		Title:     matchTitle,
		Body:      fmt.Sprintf("%s and %s matched for %s", m.UserA, m.UserB, m.Activity),
		CreatedAt: m.CreatedAt,
		Action:    model.ActionViewMatch,
	}
}

// MessageItem builds the notification for the last message of a conversation.
// ok is false when the conversation has no messages.
func MessageItem(c model.Conversation) (model.NotificationItem, bool) {
	last, ok := c.LastMessage()
	if !ok {
		return model.NotificationItem{}, false
	}
	label := c.Match
	if label == "" {
		label = fallbackChatLabel
	}
	item := model.NotificationItem{
		ID:        MessageItemID(c.ID, last.ID),
		Title:     "New message in " + label,
		Body:      fmt.Sprintf("%s: %s", last.User.DisplayName(), last.Message),
		CreatedAt: last.CreatedAt,
	}
	if c.MatchID != nil {
		item.Action = model.ActionOpenChat
	}
	return item, true
}

// BuildNotificationFeed returns one item per match and one per non-empty
// conversation, sorted newest first by calendar time. Items with unparseable
// timestamps sort last. Ties keep matches ahead of messages, each in input order.
func BuildNotificationFeed(matches []model.Match, conversations []model.Conversation) []model.NotificationItem {
	type keyed struct {
		item model.NotificationItem
		at   model.SortKey
	}
	merged := make([]keyed, 0, len(matches)+len(conversations))
	for _, m := range matches {
		it := MatchItem(m)
		merged = append(merged, keyed{item: it, at: model.KeyOf(it.CreatedAt)})
	}
	for _, c := range conversations {
		if it, ok := MessageItem(c); ok {
			merged = append(merged, keyed{item: it, at: model.KeyOf(it.CreatedAt)})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].at.After(merged[j].at) })

	items := make([]model.NotificationItem, len(merged))
	for i, k := range merged {
		items[i] = k.item
	}
	return items
}
