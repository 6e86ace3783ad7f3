package models

import (
	"time"

	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
)

const (
	MinStars = 1
	MaxStars = 5
)

// JobHistory is the per-worker aggregate of job outcomes and client ratings.
//
// Invariants:
//   - 0 <= CompletedJobs <= TotalJobs
//   - AverageRating is 0 when RatingCount is 0, else within [1, 5]
type JobHistory struct {
	WorkerID      id.WorkerID
	TotalJobs     int
	CompletedJobs int
	AverageRating float64
	RatingCount   int
	UpdatedAt     time.Time
}

// Empty is the aggregate of a worker with no recorded jobs.
func Empty(workerID id.WorkerID) *JobHistory {
	return &JobHistory{WorkerID: workerID}
}

// CompletionRatio is completed/total, or 0 with no jobs.
func (h *JobHistory) CompletionRatio() float64 {
	if h.TotalJobs == 0 {
		return 0
	}
	return float64(h.CompletedJobs) / float64(h.TotalJobs)
}

// RecordAssigned counts a newly assigned job.
func (h *JobHistory) RecordAssigned(now time.Time) {
	h.TotalJobs++
	h.UpdatedAt = now
}

// RecordCompleted marks one open job as completed.
func (h *JobHistory) RecordCompleted(now time.Time) error {
	if h.CompletedJobs >= h.TotalJobs {
		return dErrors.New(dErrors.CodeConflict, "no assigned job left to complete")
	}
	h.CompletedJobs++
	h.UpdatedAt = now
	return nil
}

// RecordRating folds one client rating into the running average.
func (h *JobHistory) RecordRating(stars int, now time.Time) error {
	if stars < MinStars || stars > MaxStars {
		return dErrors.New(dErrors.CodeInvalidInput, "rating must be between 1 and 5")
	}
	total := h.AverageRating*float64(h.RatingCount) + float64(stars)
	h.RatingCount++
	h.AverageRating = total / float64(h.RatingCount)
	h.UpdatedAt = now
	return nil
}
