package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"crafted/internal/events"
	"crafted/internal/evidence/service"
	"crafted/internal/evidence/store"
	workermodels "crafted/internal/worker/models"
	workerservice "crafted/internal/worker/service"
	workerstore "crafted/internal/worker/store"
	id "crafted/pkg/domain"
	"crafted/pkg/testutil"
)

type noopInitializer struct{}

func (noopInitializer) Initialize(context.Context, id.WorkerID) error { return nil }

type EvidenceHandlerSuite struct {
	suite.Suite
	router   chi.Router
	workerID id.WorkerID
}

func TestEvidenceHandlerSuite(t *testing.T) {
	suite.Run(t, new(EvidenceHandlerSuite))
}

func (s *EvidenceHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	workers := workerservice.New(workerstore.NewInMemoryWorkerStore(), noopInitializer{}, events.NopPublisher{})
	w, err := workers.Register(context.Background(), &workermodels.RegisterRequest{DisplayName: "Mina", Trade: "carreleuse", City: "Meknès"})
	s.Require().NoError(err)
	s.workerID = w.ID

	svc := service.New(store.NewInMemoryStore(), workers, events.NopPublisher{})
	s.router = chi.NewRouter()
	New(svc, testutil.NewStaticResolver(w.ID), logger).Register(s.router)
}

func (s *EvidenceHandlerSuite) submitDocument() identityDocumentResponse {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/workers/"+s.workerID.String()+"/identity-documents", map[string]any{
		"document_type":   "national_id",
		"document_number": "BE778899",
	})
	rr := testutil.DoRequest(s.router, testutil.WithBearer(req, testutil.WorkerToken))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	return *testutil.UnmarshalResponse[identityDocumentResponse](s.T(), rr)
}

func (s *EvidenceHandlerSuite) TestSubmitAndReview() {
	doc := s.submitDocument()
	s.Equal("pending", doc.Status)

	s.Run("worker cannot review", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/identity-documents/"+doc.ID+"/review", map[string]any{"decision": "verified"})
		rr := testutil.DoRequest(s.router, testutil.WithBearer(req, testutil.WorkerToken))
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})

	s.Run("operator verifies", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/identity-documents/"+doc.ID+"/review", map[string]any{"decision": "verified"})
		rr := testutil.DoRequest(s.router, testutil.WithBearer(req, testutil.OperatorToken))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[identityDocumentResponse](s.T(), rr)
		s.Equal("verified", resp.Status)
		s.Equal("operator-1", resp.ReviewedBy)
		s.NotNil(resp.ReviewedAt)
	})

	s.Run("reviewing twice is a conflict", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/identity-documents/"+doc.ID+"/review", map[string]any{"decision": "verified"})
		rr := testutil.DoRequest(s.router, testutil.WithBearer(req, testutil.OperatorToken))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("operator expires verified document", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/identity-documents/"+doc.ID+"/expire")
		rr := testutil.DoRequest(s.router, testutil.WithBearer(req, testutil.OperatorToken))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "status", "expired")
	})
}

func (s *EvidenceHandlerSuite) TestSubmitForOtherWorkerForbidden() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/workers/"+id.NewWorkerID().String()+"/skill-proofs", map[string]any{
		"proof_type":   "work_photo",
		"document_ref": "x.jpg",
	})
	rr := testutil.DoRequest(s.router, testutil.WithBearer(req, testutil.WorkerToken))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
}

func (s *EvidenceHandlerSuite) TestOperatorSubmitForUnknownWorker() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/workers/"+id.NewWorkerID().String()+"/certifications", map[string]any{
		"name":   "CAP",
		"issuer": "OFPPT",
	})
	rr := testutil.DoRequest(s.router, testutil.WithBearer(req, testutil.OperatorToken))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *EvidenceHandlerSuite) TestListEvidence() {
	s.submitDocument()
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/workers/"+s.workerID.String()+"/skill-proofs", map[string]any{
		"proof_type":   "work_pdf",
		"document_ref": "uploads/devis.pdf",
	})
	testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, testutil.WithBearer(req, testutil.WorkerToken)), http.StatusCreated)

	rr := testutil.DoRequest(s.router, testutil.WithBearer(
		testutil.NewRequest(s.T(), http.MethodGet, "/workers/"+s.workerID.String()+"/evidence"), testutil.WorkerToken))
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[evidenceResponse](s.T(), rr)
	s.Len(resp.IdentityDocuments, 1)
	s.Empty(resp.Certifications)
	s.Len(resp.SkillProofs, 1)
	s.NotContains(testutil.MustMarshal(s.T(), resp), "BE778899")
}
