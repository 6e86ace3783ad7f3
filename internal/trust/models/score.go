// Package models defines the persisted trust score record and its tiers.
package models

import (
	"time"

	id "crafted/pkg/domain"
)

// Component caps. They sum to MaxOverall.
const (
	MaxIdentity    = 25
	MaxSkill       = 25
	MaxReputation  = 30
	MaxReliability = 20
	MaxOverall     = MaxIdentity + MaxSkill + MaxReputation + MaxReliability
)

// TrustScore is the one current score record per worker. It is replaced
// whole on every recompute, never patched.
//
// Invariants:
//   - each component is within [0, its cap]
//   - OverallScore == IdentityScore + SkillScore + ReputationScore + ReliabilityScore
type TrustScore struct {
	WorkerID         id.WorkerID `json:"worker_id"`
	OverallScore     int         `json:"overall_score"`
	IdentityScore    int         `json:"identity_score"`
	SkillScore       int         `json:"skill_score"`
	ReputationScore  int         `json:"reputation_score"`
	ReliabilityScore int         `json:"reliability_score"`
	TotalJobs        int         `json:"total_jobs"`
	CompletedJobs    int         `json:"completed_jobs"`
	AverageRating    float64     `json:"average_rating"`
	LastCalculated   time.Time   `json:"last_calculated"`
}

// Zero is the record of a worker that has never been scored.
func Zero(workerID id.WorkerID, at time.Time) *TrustScore {
	return &TrustScore{WorkerID: workerID, LastCalculated: at}
}

func (s *TrustScore) Tier() Tier {
	return TierFor(s.OverallScore)
}

// Valid reports whether the record satisfies the cap and sum invariants.
func (s *TrustScore) Valid() bool {
	return within(s.IdentityScore, MaxIdentity) &&
		within(s.SkillScore, MaxSkill) &&
		within(s.ReputationScore, MaxReputation) &&
		within(s.ReliabilityScore, MaxReliability) &&
		s.OverallScore == s.IdentityScore+s.SkillScore+s.ReputationScore+s.ReliabilityScore
}

// SameScores compares everything but LastCalculated.
func (s *TrustScore) SameScores(o *TrustScore) bool {
	a, b := *s, *o
	a.LastCalculated, b.LastCalculated = time.Time{}, time.Time{}
	return a == b
}

func within(v, limit int) bool { return v >= 0 && v <= limit }

// Tier is the display band derived from the overall score.
type Tier string

const (
	TierBasic       Tier = "basic"
	TierTrusted     Tier = "trusted"
	TierVerifiedPro Tier = "verified_pro"
	TierElite       Tier = "elite"
)

// Tiers lists every tier from lowest to highest.
var Tiers = []Tier{TierBasic, TierTrusted, TierVerifiedPro, TierElite}

// TierFor maps an overall score to its tier:
// basic < 50 <= trusted < 70 <= verified_pro < 85 <= elite.
func TierFor(overall int) Tier {
	switch {
	case overall >= 85:
		return TierElite
	case overall >= 70:
		return TierVerifiedPro
	case overall >= 50:
		return TierTrusted
	default:
		return TierBasic
	}
}
