// Package verification models the review lifecycle shared by every evidence
// item.
//
//	pending ──verify──▶ verified ──expire──▶ expired
//	   └─────reject───▶ rejected
//
// States are a closed set of variant types. Code that needs to branch on a
// state uses a type switch over State; the unexported marker method keeps the
// set closed to this package. Transitions are one-directional and nothing
// returns to pending.
package verification

import (
	"errors"
	"fmt"
	"time"
)

// Status is the storage and wire code of a state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// ErrInvalidTransition is returned when a transition is not allowed from the
// current state.
var ErrInvalidTransition = errors.New("invalid verification transition")

// State is one of Pending, Verified, Rejected or Expired.
type State interface {
	Status() Status
	state()
}

// Pending is the initial state on submission.
type Pending struct{}

// Verified is a terminal reviewer decision (apart from expiry).
type Verified struct {
	At         time.Time
	ReviewerID string
}

// Rejected is a terminal reviewer decision.
type Rejected struct {
	At         time.Time
	ReviewerID string
	Reason     string
}

// Expired is reachable only from Verified and only for identity documents.
type Expired struct {
	VerifiedAt time.Time
	ReviewerID string
	At         time.Time
}

func (Pending) Status() Status  { return StatusPending }
func (Verified) Status() Status { return StatusVerified }
func (Rejected) Status() Status { return StatusRejected }
func (Expired) Status() Status  { return StatusExpired }

func (Pending) state()  {}
func (Verified) state() {}
func (Rejected) state() {}
func (Expired) state()  {}

// IsVerified reports whether s currently counts as verified evidence.
func IsVerified(s State) bool {
	_, ok := s.(Verified)
	return ok
}

// Verify moves a pending item to verified.
func Verify(s State, reviewerID string, at time.Time) (State, error) {
	if _, ok := s.(Pending); !ok {
		return s, transitionErr(s, StatusVerified)
	}
	return Verified{At: at, ReviewerID: reviewerID}, nil
}

// Reject moves a pending item to rejected.
func Reject(s State, reviewerID, reason string, at time.Time) (State, error) {
	if _, ok := s.(Pending); !ok {
		return s, transitionErr(s, StatusRejected)
	}
	return Rejected{At: at, ReviewerID: reviewerID, Reason: reason}, nil
}

// Expire moves a verified item to expired.
func Expire(s State, at time.Time) (State, error) {
	v, ok := s.(Verified)
	if !ok {
		return s, transitionErr(s, StatusExpired)
	}
	return Expired{VerifiedAt: v.At, ReviewerID: v.ReviewerID, At: at}, nil
}

func transitionErr(from State, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from.Status(), to)
}

// Decision is a reviewer's verdict on a pending item.
type Decision string

const (
	DecisionVerify Decision = "verified"
	DecisionReject Decision = "rejected"
)

func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionVerify, DecisionReject:
		return Decision(s), nil
	default:
		return "", fmt.Errorf("unknown review decision %q", s)
	}
}

// Apply runs the transition for a reviewer decision.
func Apply(s State, d Decision, reviewerID, reason string, at time.Time) (State, error) {
	switch d {
	case DecisionVerify:
		return Verify(s, reviewerID, at)
	case DecisionReject:
		return Reject(s, reviewerID, reason, at)
	default:
		return s, fmt.Errorf("unknown review decision %q", d)
	}
}
