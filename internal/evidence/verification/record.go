package verification

import (
	"fmt"
	"time"
)

// Record is the flat column form of a State used by stores.
type Record struct {
	Status          Status
	ReviewedBy      string
	ReviewedAt      *time.Time
	RejectionReason string
	ExpiredAt       *time.Time
}

// Encode flattens s for persistence.
func Encode(s State) Record {
	switch v := s.(type) {
	case Verified:
		return Record{Status: StatusVerified, ReviewedBy: v.ReviewerID, ReviewedAt: timePtr(v.At)}
	case Rejected:
		return Record{Status: StatusRejected, ReviewedBy: v.ReviewerID, ReviewedAt: timePtr(v.At), RejectionReason: v.Reason}
	case Expired:
		return Record{Status: StatusExpired, ReviewedBy: v.ReviewerID, ReviewedAt: timePtr(v.VerifiedAt), ExpiredAt: timePtr(v.At)}
	default:
		return Record{Status: StatusPending}
	}
}

// Decode rebuilds a State from persisted columns, rejecting rows whose
// columns contradict their status.
func Decode(r Record) (State, error) {
	switch r.Status {
	case StatusPending:
		return Pending{}, nil
	case StatusVerified:
		if r.ReviewedAt == nil {
			return nil, fmt.Errorf("verified record without reviewed_at")
		}
		return Verified{At: *r.ReviewedAt, ReviewerID: r.ReviewedBy}, nil
	case StatusRejected:
		if r.ReviewedAt == nil {
			return nil, fmt.Errorf("rejected record without reviewed_at")
		}
		return Rejected{At: *r.ReviewedAt, ReviewerID: r.ReviewedBy, Reason: r.RejectionReason}, nil
	case StatusExpired:
		if r.ReviewedAt == nil || r.ExpiredAt == nil {
			return nil, fmt.Errorf("expired record without reviewed_at/expired_at")
		}
		return Expired{VerifiedAt: *r.ReviewedAt, ReviewerID: r.ReviewedBy, At: *r.ExpiredAt}, nil
	default:
		return nil, fmt.Errorf("unknown verification status %q", r.Status)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
