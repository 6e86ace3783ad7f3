package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"crafted/internal/evidence/models"
	id "crafted/pkg/domain"
	"crafted/pkg/platform/sentinel"
)

// InMemoryStore keeps all three evidence kinds behind one lock. Items are
// stored by value so readers never observe a half-applied update.
type InMemoryStore struct {
	mu        sync.RWMutex
	documents map[id.DocumentID]models.IdentityDocument
	certs     map[id.CertificationID]models.Certification
	proofs    map[id.SkillProofID]models.SkillProof
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		documents: make(map[id.DocumentID]models.IdentityDocument),
		certs:     make(map[id.CertificationID]models.Certification),
		proofs:    make(map[id.SkillProofID]models.SkillProof),
	}
}

func (s *InMemoryStore) SaveDocument(_ context.Context, d *models.IdentityDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[d.ID] = *d
	return nil
}

func (s *InMemoryStore) FindDocument(_ context.Context, docID id.DocumentID) (*models.IdentityDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[docID]
	if !ok {
		return nil, fmt.Errorf("identity document %s: %w", docID, sentinel.ErrNotFound)
	}
	return &d, nil
}

func (s *InMemoryStore) UpdateDocument(_ context.Context, docID id.DocumentID, fn func(*models.IdentityDocument) error) (*models.IdentityDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[docID]
	if !ok {
		return nil, fmt.Errorf("identity document %s: %w", docID, sentinel.ErrNotFound)
	}
	if err := fn(&d); err != nil {
		return nil, err
	}
	s.documents[docID] = d
	out := d
	return &out, nil
}

func (s *InMemoryStore) ListDocumentsByWorker(_ context.Context, workerID id.WorkerID) ([]*models.IdentityDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.IdentityDocument
	for _, d := range s.documents {
		if d.WorkerID == workerID {
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

// ListDocumentsDueForExpiry returns verified documents whose expiry is at or
// before now.
func (s *InMemoryStore) ListDocumentsDueForExpiry(_ context.Context, now time.Time) ([]*models.IdentityDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.IdentityDocument
	for _, d := range s.documents {
		if d.DueForExpiry(now) {
			out = append(out, &d)
		}
	}
	return out, nil
}

func (s *InMemoryStore) SaveCertification(_ context.Context, c *models.Certification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certs[c.ID] = *c
	return nil
}

func (s *InMemoryStore) UpdateCertification(_ context.Context, certID id.CertificationID, fn func(*models.Certification) error) (*models.Certification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.certs[certID]
	if !ok {
		return nil, fmt.Errorf("certification %s: %w", certID, sentinel.ErrNotFound)
	}
	if err := fn(&c); err != nil {
		return nil, err
	}
	s.certs[certID] = c
	out := c
	return &out, nil
}

func (s *InMemoryStore) ListCertificationsByWorker(_ context.Context, workerID id.WorkerID) ([]*models.Certification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Certification
	for _, c := range s.certs {
		if c.WorkerID == workerID {
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (s *InMemoryStore) SaveSkillProof(_ context.Context, p *models.SkillProof) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proofs[p.ID] = *p
	return nil
}

func (s *InMemoryStore) UpdateSkillProof(_ context.Context, proofID id.SkillProofID, fn func(*models.SkillProof) error) (*models.SkillProof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proofs[proofID]
	if !ok {
		return nil, fmt.Errorf("skill proof %s: %w", proofID, sentinel.ErrNotFound)
	}
	if err := fn(&p); err != nil {
		return nil, err
	}
	s.proofs[proofID] = p
	out := p
	return &out, nil
}

func (s *InMemoryStore) ListSkillProofsByWorker(_ context.Context, workerID id.WorkerID) ([]*models.SkillProof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.SkillProof
	for _, p := range s.proofs {
		if p.WorkerID == workerID {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}
