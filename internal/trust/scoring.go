package trust

import (
	"math"

	"crafted/internal/trust/models"
)

// Evidence is everything the scoring rules read for one worker. Only
// verified evidence is counted; pending, rejected and expired items never
// reach this struct.
type Evidence struct {
	VerifiedIdentityDocuments int
	VerifiedCertifications    int
	VerifiedSkillProofs       int
	Licensed                  bool
	TrustedByLocals           bool
	ExperienceYears           int
	TotalJobs                 int
	CompletedJobs             int
	AverageRating             float64
	RatingCount               int
}

// Components are the four capped sub-scores.
type Components struct {
	Identity    int
	Skill       int
	Reputation  int
	Reliability int
}

func (c Components) Overall() int {
	return c.Identity + c.Skill + c.Reputation + c.Reliability
}

// Scoring weights. Every rule is non-decreasing in verified evidence.
const (
	identityBase          = 15 // first verified identity document
	identityPerExtra      = 5  // each further verified document or corroborating flag
	skillPerCertification = 8
	skillPerProof         = 4
	skillPerYear          = 2
	maxProvisionalSkill   = 15
	ratingScale           = 5.0
	ratingPrior           = 5 // ratings needed before an average earns half its weight
)

// Score applies the scoring rules. This is pure domain logic: no I/O and the
// same evidence always gives the same components.
func Score(e Evidence) Components {
	return Components{
		Identity:    identityScore(e),
		Skill:       skillScore(e),
		Reputation:  reputationScore(e),
		Reliability: reliabilityScore(e),
	}
}

// identityScore needs at least one verified identity document. The licensed
// and trusted-by-locals flags only corroborate a verified identity.
func identityScore(e Evidence) int {
	if e.VerifiedIdentityDocuments <= 0 {
		return 0
	}
	score := identityBase + identityPerExtra*(e.VerifiedIdentityDocuments-1)
	if e.Licensed {
		score += identityPerExtra
	}
	if e.TrustedByLocals {
		score += identityPerExtra
	}
	return clamp(score, models.MaxIdentity)
}

// skillScore takes the larger of verified credit and the provisional credit
// for self-declared experience, so verified evidence supersedes the
// provisional credit instead of stacking on it.
func skillScore(e Evidence) int {
	verified := skillPerCertification*max(e.VerifiedCertifications, 0) + skillPerProof*max(e.VerifiedSkillProofs, 0)
	provisional := min(maxProvisionalSkill, skillPerYear*max(e.ExperienceYears, 0))
	return clamp(max(verified, provisional), models.MaxSkill)
}

// reputationScore scales the average rating to the cap and weights it by
// n/(n+ratingPrior), so a 5.0 from two ratings earns less than a 4.8 from
// twenty.
func reputationScore(e Evidence) int {
	if e.RatingCount <= 0 || e.AverageRating <= 0 {
		return 0
	}
	n := float64(e.RatingCount)
	confidence := n / (n + ratingPrior)
	raw := float64(models.MaxReputation) * (e.AverageRating / ratingScale) * confidence
	return clamp(int(math.Round(raw)), models.MaxReputation)
}

func reliabilityScore(e Evidence) int {
	if e.TotalJobs <= 0 || e.CompletedJobs <= 0 {
		return 0
	}
	ratio := float64(e.CompletedJobs) / float64(e.TotalJobs)
	return clamp(int(math.Round(float64(models.MaxReliability)*ratio)), models.MaxReliability)
}

func clamp(v, limit int) int {
	return min(max(v, 0), limit)
}
