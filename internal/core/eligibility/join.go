// Package eligibility decides which activities a user may still join and
// which completed matches still need a review from the current user.
//
// Every function here is pure and total: malformed numbers are coerced,
// partially populated records are skipped, nothing returns an error.
package eligibility

import "github.com/oggyb/irlobby/internal/core/model"

// Policy bounds the capacity an activity may advertise.
type Policy struct {
	MinCapacity int
	MaxCapacity int
}

// DefaultPolicy is used when configuration does not override the bounds.
var DefaultPolicy = Policy{MinCapacity: 1, MaxCapacity: 100}

// normalized repairs a misconfigured policy so that Min <= Max and Min >= 1.
func (p Policy) normalized() Policy {
	if p.MinCapacity < 1 {
		p.MinCapacity = 1
	}
	if p.MaxCapacity < p.MinCapacity {
		p.MaxCapacity = p.MinCapacity
	}
	return p
}

// EffectiveCapacity coerces a raw capacity into [MinCapacity, MaxCapacity].
//
//   - absent: MaxCapacity (no limit beyond the configured ceiling)
//   - invalid or non-finite: MinCapacity
//   - otherwise: truncated toward zero, then clamped (values beyond int64
//     clamp by sign)
func (p Policy) EffectiveCapacity(capacity *model.Number) int {
	p = p.normalized()
	if capacity == nil {
		return p.MaxCapacity
	}
	n, ok := capacity.Truncated()
	if !ok {
		if capacity.Finite() && capacity.Value > 0 {
			return p.MaxCapacity
		}
		return p.MinCapacity
	}
	switch {
	case n < int64(p.MinCapacity):
		return p.MinCapacity
	case n > int64(p.MaxCapacity):
		return p.MaxCapacity
	}
	return int(n)
}

// ParticipantCount coerces a raw participant count into a non-negative integer.
// Absent or malformed counts are 0.
func ParticipantCount(count *model.Number) int64 {
	n, ok := count.Truncated()
	if !ok || n < 0 {
		return 0
	}
	return n
}

// CanJoin reports whether one more participant fits into the activity.
//
// participantCount overrides the count carried by the activity snapshot;
// pass nil to use activity.ParticipantCount. An activity whose approval flag
// is explicitly false is never joinable.
func (p Policy) CanJoin(activity model.Activity, participantCount *model.Number) bool {
	if activity.IsApproved != nil && !*activity.IsApproved {
		return false
	}
	if participantCount == nil {
		participantCount = activity.ParticipantCount
	}
	return ParticipantCount(participantCount) < int64(p.EffectiveCapacity(activity.Capacity))
}

// CanJoin evaluates join eligibility with DefaultPolicy.
func CanJoin(activity model.Activity, participantCount *model.Number) bool {
	return DefaultPolicy.CanJoin(activity, participantCount)
}
