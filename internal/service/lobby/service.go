package lobby

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc/codes"
	"gorm.io/gorm"

	"github.com/oggyb/irlobby/internal/app"
	"github.com/oggyb/irlobby/internal/core/eligibility"
	"github.com/oggyb/irlobby/internal/core/feed"
	"github.com/oggyb/irlobby/internal/core/model"
	"github.com/oggyb/irlobby/internal/db"
	svcErr "github.com/oggyb/irlobby/internal/errors"
	"github.com/oggyb/irlobby/internal/events"
	"github.com/oggyb/irlobby/internal/logger"
	"github.com/oggyb/irlobby/internal/observability"
	"github.com/oggyb/irlobby/internal/repository"
	"github.com/oggyb/irlobby/internal/utils/pagination"
)

// SwipePageSize is the number of likes returned per ListActivitySwipes page.
const SwipePageSize = 20

const maxMessageLength = 2000

var validate = validator.New()

// Service implements the lobby business operations on top of the repository,
// cache and core layers. Every error it returns carries a gRPC status code.
type Service struct {
	appCtx        *app.AppContext
	activities    *repository.ActivityRepository
	swipes        *repository.SwipeRepository
	matches       *repository.MatchRepository
	conversations *repository.ConversationRepository
	reviews       *repository.ReviewRepository
}

// NewService creates a lobby service with dependencies from AppContext.
// Dependencies include:
//   - DB connection (via the repositories)
//   - RedisCache for participant counts
//   - Publisher and Notifier for match/message/review side effects
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:        appCtx,
		activities:    repository.NewActivityRepository(appCtx.DB),
		swipes:        repository.NewSwipeRepository(appCtx.DB),
		matches:       repository.NewMatchRepository(appCtx.DB),
		conversations: repository.NewConversationRepository(appCtx.DB),
		reviews:       repository.NewReviewRepository(appCtx.DB),
	}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOr(ctx, s.appCtx.Logger)
}

// --- read side ---

// ListMatches returns the user's matches, newest first.
func (s *Service) ListMatches(ctx context.Context, userID uint64) ([]model.Match, error) {
	matches, err := s.matches.ListForUser(ctx, userID)
	if err != nil {
		s.log(ctx).Error("ListMatches failed", "user_id", userID, "err", err)
		return nil, svcErr.Map(err)
	}
	return toMatches(matches), nil
}

// ListConversations returns conversations of the user's matches with
// messages oldest first.
func (s *Service) ListConversations(ctx context.Context, userID uint64) ([]model.Conversation, error) {
	conversations, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		s.log(ctx).Error("ListConversations failed", "user_id", userID, "err", err)
		return nil, svcErr.Map(err)
	}
	return toConversations(conversations), nil
}

// ListReviewsByUser returns the reviews the user authored.
func (s *Service) ListReviewsByUser(ctx context.Context, userID uint64) ([]model.Review, error) {
	reviews, err := s.reviews.ListByReviewer(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return toReviews(reviews), nil
}

// GetActivity returns the activity snapshot including its participant count.
func (s *Service) GetActivity(ctx context.Context, activityID uint64) (model.Activity, error) {
	a, err := s.activities.Get(ctx, activityID)
	if err != nil {
		return model.Activity{}, svcErr.Map(err)
	}
	count, err := s.participantCount(ctx, activityID)
	if err != nil {
		return model.Activity{}, svcErr.Map(err)
	}
	return toActivity(*a, count), nil
}

// participantCount reads the count cache-first:
//  1. Attempts to read from Redis (activity:participants:ID).
//  2. On miss or cache error, falls back to the DB.
//  3. On DB fetch, updates Redis with the configured TTL.
func (s *Service) participantCount(ctx context.Context, activityID uint64) (int64, error) {
	n, ok, err := s.appCtx.RedisCache.GetParticipantCount(ctx, activityID)
	switch {
	case err != nil:
		observability.IncCacheLookup("error")
		s.log(ctx).Warn("participant count cache read failed", "activity_id", activityID, "err", err)
	case ok:
		observability.IncCacheLookup("hit")
		return n, nil
	default:
		observability.IncCacheLookup("miss")
	}

	count, err := s.activities.CountParticipants(ctx, activityID)
	if err != nil {
		return 0, err
	}
	_ = s.appCtx.RedisCache.SetParticipantCount(ctx, activityID, count)
	return count, nil
}

// NotificationFeed merges the user's matches and conversations into the
// newest-first notification feed.
func (s *Service) NotificationFeed(ctx context.Context, userID uint64) ([]model.NotificationItem, error) {
	ctx, span := observability.StartSpan(ctx, "lobby.NotificationFeed", attribute.Int64("user_id", int64(userID)))
	defer span.End()

	matches, err := s.ListMatches(ctx, userID)
	if err != nil {
		return nil, err
	}
	latest, err := s.conversations.ListLatestForUser(ctx, userID)
	if err != nil {
		s.log(ctx).Error("ListLatestForUser failed", "user_id", userID, "err", err)
		return nil, svcErr.Map(err)
	}

	items := feed.BuildNotificationFeed(matches, toConversations(latest))
	observability.ObserveFeed("notifications", len(items))
	s.log(ctx).Debug("NotificationFeed result", "user_id", userID, "items", len(items))
	return items, nil
}

// ReviewOpportunities lists the user's matches that still need a review.
func (s *Service) ReviewOpportunities(ctx context.Context, userID uint64) ([]model.ReviewOpportunity, error) {
	ctx, span := observability.StartSpan(ctx, "lobby.ReviewOpportunities", attribute.Int64("user_id", int64(userID)))
	defer span.End()

	matches, err := s.ListMatches(ctx, userID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.ListReviewsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := eligibility.ComputeReviewOpportunities(int64(userID), matches, reviews)
	observability.ObserveFeed("review_opportunities", len(out))
	return out, nil
}

// Eligibility is the join decision for one activity.
type Eligibility struct {
	ActivityID       int64 `json:"activity_id"`
	Joinable         bool  `json:"joinable"`
	Capacity         int   `json:"capacity"`
	ParticipantCount int64 `json:"participant_count"`
}

func (s *Service) eligibilityOf(a model.Activity) Eligibility {
	return Eligibility{
		ActivityID:       a.ID,
		Joinable:         s.appCtx.Policy.CanJoin(a, nil),
		Capacity:         s.appCtx.Policy.EffectiveCapacity(a.Capacity),
		ParticipantCount: eligibility.ParticipantCount(a.ParticipantCount),
	}
}

// JoinEligibility reports whether one more participant fits into the activity.
func (s *Service) JoinEligibility(ctx context.Context, activityID uint64) (Eligibility, error) {
	a, err := s.GetActivity(ctx, activityID)
	if err != nil {
		return Eligibility{}, err
	}
	return s.eligibilityOf(a), nil
}

// --- write side ---

// CreateActivityInput is the payload for CreateActivity.
type CreateActivityInput struct {
	Title            string     `json:"title" validate:"required,max=128"`
	Location         string     `json:"location" validate:"max=255"`
	Time             string     `json:"time"`
	Capacity         *int       `json:"capacity" validate:"omitempty,min=1"`
	RequiresApproval bool       `json:"requires_approval"`
	Tags             model.Tags `json:"tags"`
}

// CreateActivity validates and persists a new activity hosted by hostID.
func (s *Service) CreateActivity(ctx context.Context, hostID uint64, in CreateActivityInput) (model.Activity, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validate.Struct(in); err != nil {
		return model.Activity{}, svcErr.InvalidArgument(err.Error())
	}

	a := db.Activity{
		HostID:           hostID,
		Title:            in.Title,
		Location:         strings.TrimSpace(in.Location),
		Capacity:         in.Capacity,
		RequiresApproval: in.RequiresApproval,
		Tags:             db.TagsJSON(model.NormalizeTags(in.Tags)),
	}
	if in.Time != "" {
		t, ok := model.ParseTimestamp(in.Time)
		if !ok {
			return model.Activity{}, svcErr.InvalidArgument("time must be an ISO 8601 timestamp")
		}
		t = t.UTC()
		a.StartsAt = &t
	}

	if err := s.activities.Create(ctx, &a); err != nil {
		s.log(ctx).Error("CreateActivity failed", "host_id", hostID, "err", err)
		return model.Activity{}, svcErr.Map(err)
	}
	_ = s.appCtx.RedisCache.SetParticipantCount(ctx, a.ID, 0)

	s.log(ctx).Info("activity created", "activity_id", a.ID, "host_id", hostID)
	return toActivity(a, 0), nil
}

// JoinActivity adds the user to the activity's participants.
//
// Behavior:
//   - The host cannot join their own activity (InvalidArgument).
//   - Joining twice returns AlreadyExists.
//   - A full or unapproved activity returns FailedPrecondition.
//   - On success the cached participant count is bumped.
func (s *Service) JoinActivity(ctx context.Context, userID, activityID uint64) (Eligibility, error) {
	a, err := s.activities.Get(ctx, activityID)
	if err != nil {
		return Eligibility{}, svcErr.Map(err)
	}
	if a.HostID == userID {
		return Eligibility{}, svcErr.InvalidArgument("host cannot join own activity")
	}

	joined, err := s.activities.IsParticipant(ctx, activityID, userID)
	if err != nil {
		return Eligibility{}, svcErr.Map(err)
	}
	if joined {
		return Eligibility{}, svcErr.AlreadyExists("already joined")
	}

	if err := s.join(ctx, a, userID); err != nil {
		return Eligibility{}, err
	}

	_ = s.appCtx.Publisher.Publish(ctx, events.ActivityJoined, events.NewEnvelope(events.ActivityJoined, map[string]uint64{
		"activity_id": activityID,
		"user_id":     userID,
	}))
	return s.JoinEligibility(ctx, activityID)
}

// join inserts the participant row if the activity still has room. The
// capacity check runs against the database inside the insert transaction;
// the cached count is only bumped afterwards.
func (s *Service) join(ctx context.Context, a *db.Activity, userID uint64) error {
	joined, count, err := s.activities.JoinWithinCapacity(ctx, a.ID, userID, func(locked *db.Activity, count int64) bool {
		return s.appCtx.Policy.CanJoin(toActivity(*locked, count), nil)
	})
	if err != nil {
		return svcErr.Map(err)
	}
	if !joined {
		if serr := s.appCtx.RedisCache.SetParticipantCount(ctx, a.ID, count); serr != nil {
			s.log(ctx).Warn("participant count cache write failed", "activity_id", a.ID, "err", serr)
		}
		return svcErr.FailedPrecondition("activity is not joinable")
	}
	if err := s.appCtx.RedisCache.AdjustParticipantCount(ctx, a.ID, 1); err != nil {
		_ = s.appCtx.RedisCache.Del(ctx, s.appCtx.RedisCache.KeyForParticipantCount(a.ID))
	}
	return nil
}

// LeaveActivity removes the user from the activity's participants.
func (s *Service) LeaveActivity(ctx context.Context, userID, activityID uint64) error {
	removed, err := s.activities.RemoveParticipant(ctx, activityID, userID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !removed {
		return svcErr.NotFound("not a participant")
	}
	if err := s.appCtx.RedisCache.AdjustParticipantCount(ctx, activityID, -1); err != nil {
		_ = s.appCtx.RedisCache.Del(ctx, s.appCtx.RedisCache.KeyForParticipantCount(activityID))
	}
	return nil
}

// SwipeResult reports what a swipe produced.
type SwipeResult struct {
	Liked        bool         `json:"liked"`
	Match        *model.Match `json:"match,omitempty"`
	MatchCreated bool         `json:"match_created"`
}

// Swipe records a like/pass on an activity.
//
// Behavior:
//   - The host cannot swipe on their own activity.
//   - The swipe is upserted; swiping again overwrites.
//   - A like on an activity that does not require approval joins the user
//     (when there is room) and opens a host/user match with its conversation.
//     The match is created at most once; its creation is published and pushed
//     to both users.
func (s *Service) Swipe(ctx context.Context, userID, activityID uint64, liked bool) (SwipeResult, error) {
	ctx, span := observability.StartSpan(ctx, "lobby.Swipe",
		attribute.Int64("user_id", int64(userID)),
		attribute.Int64("activity_id", int64(activityID)),
		attribute.Bool("liked", liked),
	)
	defer span.End()

	s.log(ctx).Debug("Swipe called", "user_id", userID, "activity_id", activityID, "liked", liked)

	a, err := s.activities.Get(ctx, activityID)
	if err != nil {
		return SwipeResult{}, svcErr.Map(err)
	}
	if a.HostID == userID {
		return SwipeResult{}, svcErr.InvalidArgument("cannot swipe on own activity")
	}

	if err := s.swipes.Upsert(ctx, userID, activityID, liked); err != nil {
		return SwipeResult{}, svcErr.Map(err)
	}

	result := SwipeResult{Liked: liked}
	if !liked || a.RequiresApproval {
		return result, nil
	}

	joined, err := s.activities.IsParticipant(ctx, activityID, userID)
	if err != nil {
		return SwipeResult{}, svcErr.Map(err)
	}
	if !joined {
		err := s.join(ctx, a, userID)
		switch svcErr.Code(err) {
		case codes.OK, codes.AlreadyExists:
		case codes.FailedPrecondition:
			// full or unapproved: the like stays recorded, no match
			return result, nil
		default:
			return SwipeResult{}, err
		}
	}

	m, created, err := s.matches.CreateWithConversation(ctx, activityID, a.HostID, userID)
	if err != nil {
		s.log(ctx).ErrorContext(ctx, "match creation failed", "activity_id", activityID, "user_id", userID, "err", err)
		return SwipeResult{}, svcErr.Map(err)
	}
	match := toMatch(*m)
	result.Match = &match
	result.MatchCreated = created

	if created {
		_ = s.appCtx.Publisher.Publish(ctx, events.MatchCreated, events.NewEnvelope(events.MatchCreated, match))
		item := feed.MatchItem(match)
		s.appCtx.Notifier.Push(m.UserAID, item)
		s.appCtx.Notifier.Push(m.UserBID, item)
		s.log(ctx).InfoContext(ctx, "match created", "match_id", m.ID, "activity_id", activityID)
	}
	return result, nil
}

// ActivitySwipe is one like on an activity as seen by its host.
type ActivitySwipe struct {
	UserID    int64  `json:"user_id"`
	UpdatedAt string `json:"updated_at"`
}

// SwipePage is a page of likes plus the token of the next page.
type SwipePage struct {
	Swipes              []ActivitySwipe `json:"swipes"`
	NextPaginationToken *string         `json:"next_pagination_token,omitempty"`
}

// ListActivitySwipes returns the likes an activity received. Host only.
//
// Behavior:
//   - Ordered by updated_at DESC, user_id DESC.
//   - Supports cursor-based pagination with paginationToken.
func (s *Service) ListActivitySwipes(ctx context.Context, hostID, activityID uint64, paginationToken *string) (SwipePage, error) {
	a, err := s.activities.Get(ctx, activityID)
	if err != nil {
		return SwipePage{}, svcErr.Map(err)
	}
	if a.HostID != hostID {
		return SwipePage{}, svcErr.PermissionDenied("only the host can list swipes")
	}

	swipes, next, err := s.swipes.ListLikes(ctx, activityID, paginationToken, SwipePageSize)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidToken) {
			return SwipePage{}, svcErr.InvalidArgument(err.Error())
		}
		return SwipePage{}, svcErr.Map(err)
	}

	page := SwipePage{Swipes: make([]ActivitySwipe, 0, len(swipes)), NextPaginationToken: next}
	for _, sw := range swipes {
		page.Swipes = append(page.Swipes, ActivitySwipe{
			UserID:    int64(sw.UserID),
			UpdatedAt: model.FormatTimestamp(sw.UpdatedAt),
		})
	}
	return page, nil
}

// SendMessage appends a message to a conversation the user takes part in and
// notifies the other participant.
func (s *Service) SendMessage(ctx context.Context, userID, conversationID uint64, text string) (model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Message{}, svcErr.InvalidArgument("message must not be empty")
	}
	if len(text) > maxMessageLength {
		return model.Message{}, svcErr.InvalidArgument("message is too long")
	}

	c, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return model.Message{}, svcErr.Map(err)
	}
	if c.Match == nil || (c.Match.UserAID != userID && c.Match.UserBID != userID) {
		return model.Message{}, svcErr.PermissionDenied("not a participant of this conversation")
	}

	msg := db.Message{ConversationID: c.ID, SenderID: userID, Body: text}
	if err := s.conversations.AddMessage(ctx, &msg); err != nil {
		return model.Message{}, svcErr.Map(err)
	}
	out := toMessage(msg)

	_ = s.appCtx.Publisher.Publish(ctx, events.MessageCreated, events.NewEnvelope(events.MessageCreated, map[string]any{
		"conversation_id": c.ID,
		"message":         out,
	}))

	conv := toConversation(*c)
	conv.Messages = []model.Message{out}
	if item, ok := feed.MessageItem(conv); ok {
		other := c.Match.UserAID
		if other == userID {
			other = c.Match.UserBID
		}
		s.appCtx.Notifier.Push(other, item)
	}
	return out, nil
}

// SubmitReviewInput is the payload for SubmitReview.
type SubmitReviewInput struct {
	ActivityID uint64 `json:"activity_id" validate:"required"`
	RevieweeID uint64 `json:"reviewee_id" validate:"required"`
	Rating     int    `json:"rating" validate:"min=1,max=5"`
	Comment    string `json:"comment" validate:"max=2000"`
}

// SubmitReview records a review of the match counterpart on an activity.
//
// Behavior:
//   - Rating must be within 1..5.
//   - The reviewee must be the other side of a match on that activity.
//   - A second review of the same (activity, reviewee) returns AlreadyExists.
func (s *Service) SubmitReview(ctx context.Context, reviewerID uint64, in SubmitReviewInput) (model.Review, error) {
	if err := validate.Struct(in); err != nil {
		return model.Review{}, svcErr.InvalidArgument(err.Error())
	}
	if in.RevieweeID == reviewerID {
		return model.Review{}, svcErr.InvalidArgument("cannot review yourself")
	}

	if _, err := s.matches.FindBetween(ctx, in.ActivityID, reviewerID, in.RevieweeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Review{}, svcErr.FailedPrecondition("no match with this user on this activity")
		}
		return model.Review{}, svcErr.Map(err)
	}

	existing, err := s.ListReviewsByUser(ctx, reviewerID)
	if err != nil {
		return model.Review{}, err
	}
	key := eligibility.ReviewKey(int64(in.ActivityID), int64(in.RevieweeID))
	if _, done := eligibility.ReviewedKeys(int64(reviewerID), existing)[key]; done {
		return model.Review{}, svcErr.AlreadyExists("review already submitted")
	}

	rv := db.Review{
		ReviewerID: reviewerID,
		RevieweeID: in.RevieweeID,
		ActivityID: in.ActivityID,
		Rating:     in.Rating,
		Comment:    strings.TrimSpace(in.Comment),
	}
	if err := s.reviews.Create(ctx, &rv); err != nil {
		// lost a race against a concurrent submission
		return model.Review{}, svcErr.Map(err)
	}
	out := toReview(rv)

	_ = s.appCtx.Publisher.Publish(ctx, events.ReviewSubmitted, events.NewEnvelope(events.ReviewSubmitted, out))
	s.log(ctx).InfoContext(ctx, "review submitted", "reviewer_id", reviewerID, "review_key", key)
	return out, nil
}
