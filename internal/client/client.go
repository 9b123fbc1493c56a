// Package client is a REST client for the irlobby API. It feeds the core
// feed and eligibility packages from a remote server.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/oggyb/irlobby/internal/core/model"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("irlobby api: status %d", e.Status)
	}
	return fmt.Sprintf("irlobby api: status %d: %s", e.Status, e.Message)
}

// Client talks to the irlobby HTTP API with a bearer token.
type Client struct {
	http       *resty.Client
	maxElapsed time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithMaxRetryElapsed bounds the total time spent retrying a GET.
func WithMaxRetryElapsed(d time.Duration) Option {
	return func(c *Client) { c.maxElapsed = d }
}

// New creates a Client for baseURL authenticating with token.
func New(baseURL, token string, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(10 * time.Second)
	if token != "" {
		rc.SetAuthToken(token)
	}

	c := &Client{http: rc, maxElapsed: 15 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type errorBody struct {
	Error string `json:"error"`
}

func checkResponse(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode()}
	if e, ok := resp.Error().(*errorBody); ok && e != nil {
		apiErr.Message = e.Error
	}
	return apiErr
}

// get fetches path into out, retrying transport errors and 5xx responses
// with exponential backoff. 4xx responses fail immediately.
func (c *Client) get(ctx context.Context, path string, out any) error {
	op := func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(out).
			SetError(&errorBody{}).
			Get(path)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		if err := checkResponse(resp); err != nil {
			if resp.StatusCode() < http.StatusInternalServerError {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = c.maxElapsed
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}

// ListMatches returns the current user's matches.
func (c *Client) ListMatches(ctx context.Context) ([]model.Match, error) {
	var out []model.Match
	if err := c.get(ctx, "/api/matches", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListConversations returns the current user's conversations with messages.
func (c *Client) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	var out []model.Conversation
	if err := c.get(ctx, "/api/conversations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMyReviews returns the reviews authored by the current user.
func (c *Client) ListMyReviews(ctx context.Context) ([]model.Review, error) {
	var out []model.Review
	if err := c.get(ctx, "/api/reviews/mine", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetActivity returns the capacity/participant snapshot of an activity.
func (c *Client) GetActivity(ctx context.Context, id int64) (model.Activity, error) {
	var out model.Activity
	if err := c.get(ctx, fmt.Sprintf("/api/activities/%d", id), &out); err != nil {
		return model.Activity{}, err
	}
	return out, nil
}

// ReviewRequest is the body of SubmitReview.
type ReviewRequest struct {
	ActivityID int64  `json:"activity_id"`
	RevieweeID int64  `json:"reviewee_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment,omitempty"`
}

// SubmitReview posts a review. It is never retried.
func (c *Client) SubmitReview(ctx context.Context, req ReviewRequest) (model.Review, error) {
	var out model.Review
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/api/reviews")
	if err != nil {
		return model.Review{}, err
	}
	if err := checkResponse(resp); err != nil {
		return model.Review{}, err
	}
	return out, nil
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
