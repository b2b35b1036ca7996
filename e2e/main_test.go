package e2e

import (
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// TestFeatures runs the black-box API scenarios against a running instance.
// Point REGPULSE_E2E_BASE_URL at the deployment under test; the scenarios
// only assume the service is up, not that any data has been ingested.
func TestFeatures(t *testing.T) {
	if os.Getenv("REGPULSE_E2E_BASE_URL") == "" {
		t.Skip("REGPULSE_E2E_BASE_URL not set, skipping e2e features")
	}

	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("e2e feature suite failed")
	}
}
