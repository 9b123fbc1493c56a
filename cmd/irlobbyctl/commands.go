package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/golang-jwt/jwt/v4"
	"github.com/spf13/cobra"

	"github.com/oggyb/irlobby/internal/api"
	"github.com/oggyb/irlobby/internal/client"
	"github.com/oggyb/irlobby/internal/core/eligibility"
	"github.com/oggyb/irlobby/internal/core/feed"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// userFromToken reads the user_id claim without verifying the signature; the
// server verifies it on every request.
func userFromToken(raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("no token")
	}
	var claims api.Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return 0, err
	}
	if claims.UserID == 0 {
		return 0, fmt.Errorf("token has no user_id")
	}
	return int64(claims.UserID), nil
}

func feedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Build the notification feed from matches and conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			matches, err := c.ListMatches(cmd.Context())
			if err != nil {
				return fmt.Errorf("list matches: %w", err)
			}
			conversations, err := c.ListConversations(cmd.Context())
			if err != nil {
				return fmt.Errorf("list conversations: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), feed.BuildNotificationFeed(matches, conversations))
		},
	}
}

func opportunitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opportunities",
		Short: "List matches that still need a review",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := userFlag
			if userID <= 0 {
				id, err := userFromToken(tokenFlag)
				if err != nil {
					return fmt.Errorf("--user required: %w", err)
				}
				userID = id
			}
			c := newClient()
			matches, err := c.ListMatches(cmd.Context())
			if err != nil {
				return fmt.Errorf("list matches: %w", err)
			}
			reviews, err := c.ListMyReviews(cmd.Context())
			if err != nil {
				return fmt.Errorf("list reviews: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), eligibility.ComputeReviewOpportunities(userID, matches, reviews))
		},
	}
	cmd.Flags().Int64VarP(&userFlag, "user", "u", 0, "Current user id (defaults to the token's user_id claim)")
	return cmd
}

func canJoinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "can-join ACTIVITY_ID",
		Short: "Check whether one more participant fits into an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid activity id %q", args[0])
			}
			a, err := newClient().GetActivity(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get activity: %w", err)
			}
			p := policy()
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"activity_id":       a.ID,
				"joinable":          p.CanJoin(a, nil),
				"capacity":          p.EffectiveCapacity(a.Capacity),
				"participant_count": eligibility.ParticipantCount(a.ParticipantCount),
			})
		},
	}
	cmd.Flags().IntVar(&minCapFlag, "min-capacity", eligibility.DefaultPolicy.MinCapacity, "Capacity floor")
	cmd.Flags().IntVar(&maxCapFlag, "max-capacity", eligibility.DefaultPolicy.MaxCapacity, "Capacity ceiling")
	return cmd
}

func reviewCmd() *cobra.Command {
	var req client.ReviewRequest
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Submit a review for a match",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Rating < 1 || req.Rating > 5 {
				return fmt.Errorf("--rating must be between 1 and 5")
			}
			rv, err := newClient().SubmitReview(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("submit review: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), rv)
		},
	}
	cmd.Flags().Int64Var(&req.ActivityID, "activity", 0, "Activity id (required)")
	cmd.Flags().Int64Var(&req.RevieweeID, "reviewee", 0, "Reviewee user id (required)")
	cmd.Flags().IntVar(&req.Rating, "rating", 0, "Rating 1-5 (required)")
	cmd.Flags().StringVar(&req.Comment, "comment", "", "Optional comment")
	_ = cmd.MarkFlagRequired("activity")
	_ = cmd.MarkFlagRequired("reviewee")
	_ = cmd.MarkFlagRequired("rating")
	return cmd
}
