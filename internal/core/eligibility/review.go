package eligibility

import (
	"strconv"

	"github.com/oggyb/irlobby/internal/core/model"
)

// ReviewKey identifies a review slot for the current reviewer. Callers reuse it
// after a successful submission to recognise the new review once the review
// collection has been refetched.
func ReviewKey(activityID, revieweeID int64) string {
	return strconv.FormatInt(activityID, 10) + ":" + strconv.FormatInt(revieweeID, 10)
}

// ReviewedKeys collects the keys of every review authored by reviewerID.
func ReviewedKeys(reviewerID int64, reviews []model.Review) map[string]struct{} {
	keys := make(map[string]struct{}, len(reviews))
	for _, r := range reviews {
		if r.ReviewerID != reviewerID {
			continue
		}
		keys[ReviewKey(r.ActivityPK, r.RevieweePK)] = struct{}{}
	}
	return keys
}

// ComputeReviewOpportunities lists the matches that still need a review from
// currentUserID, in input order.
//
// Matches missing an activity or user id are skipped, as are matches the
// current user is not part of, self-reviews, and (activity, reviewee) pairs
// the current user already reviewed.
func ComputeReviewOpportunities(currentUserID int64, matches []model.Match, reviews []model.Review) []model.ReviewOpportunity {
	reviewed := ReviewedKeys(currentUserID, reviews)

	out := make([]model.ReviewOpportunity, 0, len(matches))
	for _, m := range matches {
		if m.ActivityID == nil || m.UserAID == nil || m.UserBID == nil {
			continue
		}
		revieweeID, revieweeName, ok := m.OtherUser(currentUserID)
		if !ok || revieweeID == currentUserID {
			continue
		}
		if _, done := reviewed[ReviewKey(*m.ActivityID, revieweeID)]; done {
			continue
		}
		out = append(out, model.ReviewOpportunity{
			MatchID:      m.ID,
			ActivityID:   *m.ActivityID,
			Activity:     m.Activity,
			RevieweeID:   revieweeID,
			RevieweeName: revieweeName,
		})
	}
	return out
}
