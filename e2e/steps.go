// Package e2e holds black-box scenarios for the public query API and the
// admin surface, driven by godog against a live deployment.
package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// TestContext carries per-scenario HTTP state.
type TestContext struct {
	baseURL string
	client  *http.Client

	status int
	body   []byte
}

// InitializeScenario wires the step definitions.
func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &TestContext{
		baseURL: strings.TrimRight(os.Getenv("REGPULSE_E2E_BASE_URL"), "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}

	ctx.Step(`^I GET "([^"]*)"$`, tc.iGet)
	ctx.Step(`^I POST "([^"]*)" with body:$`, tc.iPostWithBody)
	ctx.Step(`^the response status is (\d+)$`, tc.responseStatusIs)
	ctx.Step(`^the response field "([^"]*)" is "([^"]*)"$`, tc.responseFieldIs)
	ctx.Step(`^the response has field "([^"]*)"$`, tc.responseHasField)
}

func (tc *TestContext) iGet(path string) error {
	resp, err := tc.client.Get(tc.baseURL + path)
	if err != nil {
		return err
	}
	return tc.capture(resp)
}

func (tc *TestContext) iPostWithBody(path string, body *godog.DocString) error {
	resp, err := tc.client.Post(tc.baseURL+path, "application/json", strings.NewReader(body.Content))
	if err != nil {
		return err
	}
	return tc.capture(resp)
}

func (tc *TestContext) capture(resp *http.Response) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.status = resp.StatusCode
	tc.body = body
	return nil
}

func (tc *TestContext) responseStatusIs(expected int) error {
	if tc.status != expected {
		return fmt.Errorf("expected status %d, got %d (body: %s)", expected, tc.status, tc.body)
	}
	return nil
}

func (tc *TestContext) decoded() (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(tc.body, &payload); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w (body: %s)", err, tc.body)
	}
	return payload, nil
}

func (tc *TestContext) responseFieldIs(field, expected string) error {
	payload, err := tc.decoded()
	if err != nil {
		return err
	}
	value, ok := payload[field]
	if !ok {
		return fmt.Errorf("field %q missing from response: %s", field, tc.body)
	}
	if fmt.Sprintf("%v", value) != expected {
		return fmt.Errorf("field %q: expected %q, got %v", field, expected, value)
	}
	return nil
}

func (tc *TestContext) responseHasField(field string) error {
	payload, err := tc.decoded()
	if err != nil {
		return err
	}
	if _, ok := payload[field]; !ok {
		return fmt.Errorf("field %q missing from response: %s", field, tc.body)
	}
	return nil
}
