package worker

import (
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext is the subset of the e2e context the worker steps need.
type TestContext interface {
	UseToken(role, workerID string) error
	POST(path string, body any) error
	LastStatus() int
	LastBody() string
	Save(name, field string) error
	Saved(name string) string
}

// RegisterSteps registers worker registration and evidence steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &workerSteps{tc: tc}
	ctx.Step(`^a registered "([^"]*)" in "([^"]*)" with (\d+) years of experience$`, steps.registeredWorker)
	ctx.Step(`^I am that worker$`, steps.iAmThatWorker)
	ctx.Step(`^the worker submits a "([^"]*)" identity document$`, steps.submitIdentityDocument)
	ctx.Step(`^the worker submits a certification "([^"]*)" from "([^"]*)"$`, steps.submitCertification)
	ctx.Step(`^an operator marks the identity document "([^"]*)"$`, steps.reviewIdentityDocument)
	ctx.Step(`^an operator marks the certification "([^"]*)"$`, steps.reviewCertification)
	ctx.Step(`^the worker completes (\d+) jobs? rated (\d+) stars?$`, steps.completeJobs)
}

type workerSteps struct {
	tc TestContext
}

func (s *workerSteps) registeredWorker(trade, city string, years int) error {
	if err := s.tc.UseToken("operator", ""); err != nil {
		return err
	}
	err := s.tc.POST("/workers", map[string]any{
		"display_name":     "E2E " + trade,
		"trade":            trade,
		"city":             city,
		"experience_years": years,
	})
	if err != nil {
		return err
	}
	if err := s.expect(http.StatusCreated); err != nil {
		return err
	}
	return s.tc.Save("worker_id", "id")
}

func (s *workerSteps) iAmThatWorker() error {
	return s.tc.UseToken("worker", s.tc.Saved("worker_id"))
}

func (s *workerSteps) submitIdentityDocument(docType string) error {
	if err := s.asWorker(); err != nil {
		return err
	}
	err := s.tc.POST("/workers/{worker_id}/identity-documents", map[string]any{
		"document_type":   docType,
		"document_number": "E2E-0001",
	})
	if err != nil {
		return err
	}
	if err := s.expect(http.StatusCreated); err != nil {
		return err
	}
	return s.tc.Save("identity_document_id", "id")
}

func (s *workerSteps) submitCertification(name, issuer string) error {
	if err := s.asWorker(); err != nil {
		return err
	}
	if err := s.tc.POST("/workers/{worker_id}/certifications", map[string]any{
		"name":   name,
		"issuer": issuer,
	}); err != nil {
		return err
	}
	if err := s.expect(http.StatusCreated); err != nil {
		return err
	}
	return s.tc.Save("certification_id", "id")
}

func (s *workerSteps) reviewIdentityDocument(decision string) error {
	return s.review("/identity-documents/{identity_document_id}/review", decision)
}

func (s *workerSteps) reviewCertification(decision string) error {
	return s.review("/certifications/{certification_id}/review", decision)
}

func (s *workerSteps) review(path, decision string) error {
	if err := s.tc.UseToken("operator", ""); err != nil {
		return err
	}
	body := map[string]any{"decision": decision}
	if decision == "rejected" {
		body["reason"] = "document unreadable"
	}
	if err := s.tc.POST(path, body); err != nil {
		return err
	}
	return s.expect(http.StatusOK)
}

func (s *workerSteps) completeJobs(jobs, stars int) error {
	if err := s.tc.UseToken("operator", ""); err != nil {
		return err
	}
	for range jobs {
		if err := s.tc.POST("/workers/{worker_id}/jobs/assigned", nil); err != nil {
			return err
		}
		if err := s.expect(http.StatusOK); err != nil {
			return err
		}
		if err := s.tc.POST("/workers/{worker_id}/jobs/completed", nil); err != nil {
			return err
		}
		if err := s.expect(http.StatusOK); err != nil {
			return err
		}
		if err := s.tc.POST("/workers/{worker_id}/ratings", map[string]any{"stars": stars}); err != nil {
			return err
		}
		if err := s.expect(http.StatusOK); err != nil {
			return err
		}
	}
	return nil
}

func (s *workerSteps) asWorker() error {
	return s.tc.UseToken("worker", s.tc.Saved("worker_id"))
}

func (s *workerSteps) expect(status int) error {
	if s.tc.LastStatus() != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, s.tc.LastStatus(), s.tc.LastBody())
	}
	return nil
}
