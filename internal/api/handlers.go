package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/irlobby/internal/core/model"
	svcErr "github.com/oggyb/irlobby/internal/errors"
	"github.com/oggyb/irlobby/internal/logger"
	"github.com/oggyb/irlobby/internal/service/lobby"
)

// Service is the business surface the HTTP handlers need.
type Service interface {
	NotificationFeed(ctx context.Context, userID uint64) ([]model.NotificationItem, error)
	ListMatches(ctx context.Context, userID uint64) ([]model.Match, error)
	ListConversations(ctx context.Context, userID uint64) ([]model.Conversation, error)
	SendMessage(ctx context.Context, userID, conversationID uint64, text string) (model.Message, error)
	ListReviewsByUser(ctx context.Context, userID uint64) ([]model.Review, error)
	ReviewOpportunities(ctx context.Context, userID uint64) ([]model.ReviewOpportunity, error)
	SubmitReview(ctx context.Context, reviewerID uint64, in lobby.SubmitReviewInput) (model.Review, error)
	CreateActivity(ctx context.Context, hostID uint64, in lobby.CreateActivityInput) (model.Activity, error)
	GetActivity(ctx context.Context, activityID uint64) (model.Activity, error)
	JoinEligibility(ctx context.Context, activityID uint64) (lobby.Eligibility, error)
	JoinActivity(ctx context.Context, userID, activityID uint64) (lobby.Eligibility, error)
	LeaveActivity(ctx context.Context, userID, activityID uint64) error
	Swipe(ctx context.Context, userID, activityID uint64, liked bool) (lobby.SwipeResult, error)
	ListActivitySwipes(ctx context.Context, hostID, activityID uint64, paginationToken *string) (lobby.SwipePage, error)
}

// Handler serves the /api routes.
type Handler struct {
	svc Service
}

// NewHandler builds a Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// respondError writes {"error": msg} with the status the error maps to.
func respondError(c *gin.Context, err error) {
	code := svcErr.HTTPStatus(err)
	msg := svcErr.Message(err)
	if code >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("request failed", "err", err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

func idParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// Notifications returns the merged notification feed.
func (h *Handler) Notifications(c *gin.Context) {
	items, err := h.svc.NotificationFeed(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) ListMatches(c *gin.Context) {
	matches, err := h.svc.ListMatches(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

func (h *Handler) ListConversations(c *gin.Context) {
	conversations, err := h.svc.ListConversations(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// PostMessage appends a message to a conversation.
func (h *Handler) PostMessage(c *gin.Context) {
	conversationID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.svc.SendMessage(c.Request.Context(), currentUser(c), conversationID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) MyReviews(c *gin.Context) {
	reviews, err := h.svc.ListReviewsByUser(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *Handler) ReviewOpportunities(c *gin.Context) {
	opps, err := h.svc.ReviewOpportunities(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, opps)
}

// SubmitReview records a review by the current user.
func (h *Handler) SubmitReview(c *gin.Context) {
	var in lobby.SubmitReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rv, err := h.svc.SubmitReview(c.Request.Context(), currentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rv)
}

// CreateActivity creates an activity hosted by the current user.
func (h *Handler) CreateActivity(c *gin.Context) {
	var in lobby.CreateActivityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := h.svc.CreateActivity(c.Request.Context(), currentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetActivity(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.GetActivity(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) Eligibility(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	e, err := h.svc.JoinEligibility(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) Join(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	e, err := h.svc.JoinActivity(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) Leave(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.LeaveActivity(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Swipe records a like or pass. The body must carry "liked" explicitly.
func (h *Handler) Swipe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Liked *bool `json:"liked" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.svc.Swipe(c.Request.Context(), currentUser(c), id, *req.Liked)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListSwipes returns a page of likes for the host.
func (h *Handler) ListSwipes(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var token *string
	if t := c.Query("pagination_token"); t != "" {
		token = &t
	}

	page, err := h.svc.ListActivitySwipes(c.Request.Context(), currentUser(c), id, token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
