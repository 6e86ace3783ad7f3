package testutil

import "testing"

// Given, When, Then and And nest subtests so a failure reads as the scenario
// that broke, for example
//
//	TestHistory/Given_an_operator/When_a_job_is_completed/Then_history_shows_it
func Given(t *testing.T, situation string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "Given", situation, fn)
}

func When(t *testing.T, action string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "When", action, fn)
}

func Then(t *testing.T, outcome string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "Then", outcome, fn)
}

// And continues whichever step precedes it.
func And(t *testing.T, more string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "And", more, fn)
}

func step(t *testing.T, keyword, text string, fn func(t *testing.T)) bool {
	t.Helper()
	return t.Run(keyword+" "+text, fn)
}
