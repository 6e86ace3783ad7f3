// Package ports defines what the trust score engine reads from the modules
// that own evidence. The engine depends on these interfaces only, so evidence
// can live in-process, in another service, or behind a cache.
package ports

//go:generate mockgen -source=ports.go -destination=../mocks/ports.go -package=mocks

import (
	"context"

	id "crafted/pkg/domain"
)

// WorkerPort supplies the experience declared at registration and the
// operator-attested flags. Later profile edits must not reach the engine.
// A missing worker must be reported with a not_found coded error.
type WorkerPort interface {
	Profile(ctx context.Context, workerID id.WorkerID) (*WorkerProfile, error)
}

// WorkerProfile is the slice of a worker record that feeds the score.
type WorkerProfile struct {
	WorkerID        id.WorkerID
	ExperienceYears int
	Licensed        bool
	TrustedByLocals bool
}

// EvidencePort counts verified evidence items by kind.
type EvidencePort interface {
	VerifiedIdentityDocuments(ctx context.Context, workerID id.WorkerID) (int, error)
	VerifiedCertifications(ctx context.Context, workerID id.WorkerID) (int, error)
	VerifiedSkillProofs(ctx context.Context, workerID id.WorkerID) (int, error)
}

// HistoryPort supplies the job and rating aggregate. A worker with no jobs
// yields a zero JobRecord, not an error.
type HistoryPort interface {
	JobRecord(ctx context.Context, workerID id.WorkerID) (*JobRecord, error)
}

type JobRecord struct {
	TotalJobs     int
	CompletedJobs int
	AverageRating float64
	RatingCount   int
}
