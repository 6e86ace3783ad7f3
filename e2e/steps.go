package e2e

import (
	"github.com/cucumber/godog"

	"crafted/e2e/steps/common"
	"crafted/e2e/steps/trust"
	"crafted/e2e/steps/worker"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Generic requests and response assertions
	common.RegisterSteps(ctx, tc)

	// Worker registration and evidence submission
	worker.RegisterSteps(ctx, tc)

	// Trust score reads with eventual consistency
	trust.RegisterSteps(ctx, tc)
}
