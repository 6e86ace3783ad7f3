package trust

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cucumber/godog"

	"crafted/e2e/steps/common"
)

// Recomputes run off the event path, so reads poll until the score settles.
const (
	pollInterval = 100 * time.Millisecond
	pollTimeout  = 5 * time.Second
)

// TestContext is the subset of the e2e context the trust steps need.
type TestContext interface {
	UseToken(role, workerID string) error
	GET(path string) error
	POST(path string, body any) error
	LastStatus() int
	LastBody() string
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers trust score steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &trustSteps{tc: tc}
	ctx.Step(`^the worker's "([^"]*)" eventually equals (\d+)$`, steps.eventuallyEquals)
	ctx.Step(`^the worker's tier is "([^"]*)"$`, steps.tierIs)
	ctx.Step(`^an operator recalculates the worker's trust score$`, steps.recalculate)
}

type trustSteps struct {
	tc TestContext
}

func (s *trustSteps) eventuallyEquals(field string, expected int) error {
	deadline := time.Now().Add(pollTimeout)
	var last int
	for {
		if err := s.tc.GET("/workers/{worker_id}/trust-score"); err != nil {
			return err
		}
		if s.tc.LastStatus() == http.StatusOK {
			v, err := s.tc.GetResponseField(field)
			if err != nil {
				return err
			}
			if last, err = common.AsInt(v); err != nil {
				return err
			}
			if last == expected {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%s never reached %d (last %d, status %d): %s", field, expected, last, s.tc.LastStatus(), s.tc.LastBody())
		}
		time.Sleep(pollInterval)
	}
}

func (s *trustSteps) tierIs(expected string) error {
	if err := s.tc.GET("/workers/{worker_id}/trust-score"); err != nil {
		return err
	}
	v, err := s.tc.GetResponseField("tier")
	if err != nil {
		return err
	}
	if fmt.Sprint(v) != expected {
		return fmt.Errorf("expected tier %q, got %v", expected, v)
	}
	return nil
}

func (s *trustSteps) recalculate() error {
	if err := s.tc.UseToken("operator", ""); err != nil {
		return err
	}
	if err := s.tc.POST("/workers/{worker_id}/trust-score/recalculate", nil); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusOK {
		return fmt.Errorf("recalculate returned %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	return nil
}
