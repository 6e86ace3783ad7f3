package trust

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// gatherEvidence reads every evidence source in parallel with shared
// cancellation. The first failure cancels the remaining reads and is
// returned; a partial Evidence is never scored.
func (s *Service) gatherEvidence(ctx context.Context, profile workerSnapshot) (Evidence, error) {
	ctx, cancel := context.WithTimeout(ctx, s.evidenceTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	var (
		identity, certs, proofs int
		history                 = historySnapshot{}
	)

	g.Go(func() error {
		n, err := timed(s, "identity", func() (int, error) {
			return s.evidence.VerifiedIdentityDocuments(ctx, profile.WorkerID)
		})
		if err != nil {
			return fmt.Errorf("identity documents: %w", err)
		}
		identity = n
		return nil
	})

	g.Go(func() error {
		n, err := timed(s, "certification", func() (int, error) {
			return s.evidence.VerifiedCertifications(ctx, profile.WorkerID)
		})
		if err != nil {
			return fmt.Errorf("certifications: %w", err)
		}
		certs = n
		return nil
	})

	g.Go(func() error {
		n, err := timed(s, "skill_proof", func() (int, error) {
			return s.evidence.VerifiedSkillProofs(ctx, profile.WorkerID)
		})
		if err != nil {
			return fmt.Errorf("skill proofs: %w", err)
		}
		proofs = n
		return nil
	})

	g.Go(func() error {
		rec, err := timed(s, "history", func() (historySnapshot, error) {
			r, err := s.history.JobRecord(ctx, profile.WorkerID)
			if err != nil {
				return historySnapshot{}, err
			}
			return historySnapshot(*r), nil
		})
		if err != nil {
			return fmt.Errorf("job history: %w", err)
		}
		history = rec
		return nil
	})

	if err := g.Wait(); err != nil {
		return Evidence{}, err
	}

	return Evidence{
		VerifiedIdentityDocuments: identity,
		VerifiedCertifications:    certs,
		VerifiedSkillProofs:       proofs,
		Licensed:                  profile.Licensed,
		TrustedByLocals:           profile.TrustedByLocals,
		ExperienceYears:           profile.ExperienceYears,
		TotalJobs:                 history.TotalJobs,
		CompletedJobs:             history.CompletedJobs,
		AverageRating:             history.AverageRating,
		RatingCount:               history.RatingCount,
	}, nil
}

// timed runs fn and records its latency under source.
func timed[T any](s *Service, source string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	s.metrics.ObserveEvidenceLatency(source, time.Since(start))
	return v, err
}
