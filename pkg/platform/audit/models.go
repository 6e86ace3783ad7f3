package audit

import (
	"context"
	"time"

	id "crafted/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so they can
// get different retention.
type EventCategory string

const (
	// CategoryCompliance covers reviewer decisions on evidence. These explain
	// why a worker's trust score moved and are kept long term.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity such as recalculation requests.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	WorkerID  id.WorkerID
	Subject   string // evidence item or record the action applies to
	Action    string
	Decision  string
	Reason    string
	RequestID string
	// ActorID tracks who performed the action: the reviewer for evidence
	// decisions, "system" for scheduled expiry.
	ActorID string
}

type AuditEvent string

const (
	EventWorkerRegistered         AuditEvent = "worker_registered"
	EventWorkerApprovalChanged    AuditEvent = "worker_approval_changed"
	EventWorkerStatusChanged      AuditEvent = "worker_status_changed"
	EventWorkerCredentialsChanged AuditEvent = "worker_credentials_changed"
	EventIdentityDocumentReviewed AuditEvent = "identity_document_reviewed"
	EventIdentityDocumentExpired  AuditEvent = "identity_document_expired"
	EventCertificationReviewed    AuditEvent = "certification_reviewed"
	EventSkillProofReviewed       AuditEvent = "skill_proof_reviewed"
	EventTrustScoreRecalculated   AuditEvent = "trust_score_recalculated"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventWorkerRegistered:         CategoryCompliance,
	EventWorkerApprovalChanged:    CategoryCompliance,
	EventWorkerStatusChanged:      CategoryCompliance,
	EventWorkerCredentialsChanged: CategoryCompliance,
	EventIdentityDocumentReviewed: CategoryCompliance,
	EventIdentityDocumentExpired:  CategoryCompliance,
	EventCertificationReviewed:    CategoryCompliance,
	EventSkillProofReviewed:       CategoryCompliance,
	EventTrustScoreRecalculated:   CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Append must honour a transaction carried on ctx
// so a review decision and its audit row commit together.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByWorker(ctx context.Context, workerID id.WorkerID) ([]Event, error)
}
