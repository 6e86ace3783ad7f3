package common

import (
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext is the subset of the e2e context the shared steps need.
type TestContext interface {
	UseToken(role, workerID string) error
	ClearToken()
	GET(path string) error
	POST(path string, body any) error
	LastStatus() int
	LastBody() string
	GetResponseField(field string) (any, error)
	Save(name, field string) error
}

// RegisterSteps registers request, auth and response assertion steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}
	ctx.Step(`^I am an operator$`, steps.iAmAnOperator)
	ctx.Step(`^I am anonymous$`, steps.iAmAnonymous)
	ctx.Step(`^I GET "([^"]*)"$`, steps.iGET)
	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.responseFieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal (\d+)$`, steps.responseFieldShouldEqual)
	ctx.Step(`^I save the response field "([^"]*)" as "([^"]*)"$`, steps.saveField)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) iAmAnOperator() error {
	return s.tc.UseToken("operator", "")
}

func (s *commonSteps) iAmAnonymous() error {
	s.tc.ClearToken()
	return nil
}

func (s *commonSteps) iGET(path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) responseStatusShouldBe(expected int) error {
	if s.tc.LastStatus() != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, s.tc.LastStatus(), s.tc.LastBody())
	}
	return nil
}

func (s *commonSteps) responseFieldShouldBe(field, expected string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprint(v) != expected {
		return fmt.Errorf("expected %s=%q, got %v", field, expected, v)
	}
	return nil
}

func (s *commonSteps) responseFieldShouldEqual(field string, expected int) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	got, err := AsInt(v)
	if err != nil {
		return fmt.Errorf("field %s: %w", field, err)
	}
	if got != expected {
		return fmt.Errorf("expected %s=%d, got %d", field, expected, got)
	}
	return nil
}

func (s *commonSteps) saveField(field, name string) error {
	return s.tc.Save(name, field)
}

// AsInt converts a decoded JSON number to int.
func AsInt(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}
