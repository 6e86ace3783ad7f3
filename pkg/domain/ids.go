package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "crafted/pkg/domain-errors"
)

// Typed identifiers keep worker and evidence references from being mixed up at
// compile time. All of them are UUIDs on the wire and in storage.
type (
	WorkerID        uuid.UUID
	DocumentID      uuid.UUID
	CertificationID uuid.UUID
	SkillProofID    uuid.UUID
)

func (id WorkerID) String() string        { return uuid.UUID(id).String() }
func (id DocumentID) String() string      { return uuid.UUID(id).String() }
func (id CertificationID) String() string { return uuid.UUID(id).String() }
func (id SkillProofID) String() string    { return uuid.UUID(id).String() }

func (id WorkerID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id CertificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SkillProofID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func NewWorkerID() WorkerID               { return WorkerID(uuid.New()) }
func NewDocumentID() DocumentID           { return DocumentID(uuid.New()) }
func NewCertificationID() CertificationID { return CertificationID(uuid.New()) }
func NewSkillProofID() SkillProofID       { return SkillProofID(uuid.New()) }

// ParseWorkerID validates a worker identifier at a trust boundary.
func ParseWorkerID(s string) (WorkerID, error) {
	u, err := parseUUID(s, "worker")
	return WorkerID(u), err
}

func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s, "document")
	return DocumentID(u), err
}

func ParseCertificationID(s string) (CertificationID, error) {
	u, err := parseUUID(s, "certification")
	return CertificationID(u), err
}

func ParseSkillProofID(s string) (SkillProofID, error) {
	u, err := parseUUID(s, "skill proof")
	return SkillProofID(u), err
}

func parseUUID(s, kind string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be nil")
	}
	return u, nil
}

// Text marshalling keeps IDs as canonical UUID strings in JSON payloads and
// event records rather than raw byte arrays.

func (id WorkerID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *WorkerID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = WorkerID(u)
	return nil
}

func (id DocumentID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id CertificationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id SkillProofID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
