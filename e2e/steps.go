package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cucumber/godog"
)

// RegisterSteps registers the shared background and assertion steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Step(`^the kycgate service is running$`, tc.serviceIsRunning)

	ctx.Step(`^the response status should be (\d+)$`, tc.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, tc.responseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, tc.responseFieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should be (true|false)$`, tc.responseFieldShouldBeBool)
	ctx.Step(`^the response field "([^"]*)" should not be empty$`, tc.responseFieldShouldNotBeEmpty)
	ctx.Step(`^the response header "([^"]*)" should equal "([^"]*)"$`, tc.responseHeaderShouldEqual)
	ctx.Step(`^I save the response field "([^"]*)" as "([^"]*)"$`, tc.saveResponseField)
	ctx.Step(`^the response field "([^"]*)" should equal the saved "([^"]*)"$`, tc.responseFieldShouldEqualSaved)
}

func (tc *TestContext) serviceIsRunning(ctx context.Context) error {
	if err := tc.GET("/health/live", nil); err != nil {
		return err
	}
	return tc.responseStatusShouldBe(ctx, http.StatusOK)
}

func (tc *TestContext) responseStatusShouldBe(_ context.Context, expectedStatus int) error {
	if tc.GetLastResponseStatus() != expectedStatus {
		return fmt.Errorf("expected status %d but got %d: %s", expectedStatus, tc.GetLastResponseStatus(), tc.LastResponseBody)
	}
	return nil
}

func (tc *TestContext) responseShouldContain(_ context.Context, field string) error {
	if !tc.ResponseContains(field) {
		return fmt.Errorf("response does not contain field: %s\nResponse: %s", field, string(tc.LastResponseBody))
	}
	return nil
}

func (tc *TestContext) responseFieldShouldEqual(_ context.Context, field, expectedValue string) error {
	actualValue, err := tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprint(actualValue) != expectedValue {
		return fmt.Errorf("field %s: expected %s but got %v", field, expectedValue, actualValue)
	}
	return nil
}

func (tc *TestContext) responseFieldShouldBeBool(_ context.Context, field, expected string) error {
	want, err := strconv.ParseBool(expected)
	if err != nil {
		return err
	}
	actualValue, err := tc.GetResponseField(field)
	if err != nil {
		return err
	}
	got, ok := actualValue.(bool)
	if !ok || got != want {
		return fmt.Errorf("field %s: expected %t but got %v", field, want, actualValue)
	}
	return nil
}

func (tc *TestContext) responseFieldShouldNotBeEmpty(_ context.Context, field string) error {
	actualValue, err := tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if s, ok := actualValue.(string); !ok || s == "" {
		return fmt.Errorf("field %s: expected a non-empty string but got %v", field, actualValue)
	}
	return nil
}

func (tc *TestContext) responseHeaderShouldEqual(_ context.Context, header, expected string) error {
	if tc.LastResponse == nil {
		return fmt.Errorf("no response recorded")
	}
	if got := tc.LastResponse.Header.Get(header); got != expected {
		return fmt.Errorf("header %s: expected %q but got %q", header, expected, got)
	}
	return nil
}

func (tc *TestContext) saveResponseField(_ context.Context, field, key string) error {
	value, err := tc.GetResponseField(field)
	if err != nil {
		return err
	}
	s, ok := value.(string)
	if !ok {
		raw, _ := json.Marshal(value)
		s = string(raw)
	}
	tc.Save(key, s)
	return nil
}

func (tc *TestContext) responseFieldShouldEqualSaved(ctx context.Context, field, key string) error {
	expected, err := tc.Saved(key)
	if err != nil {
		return err
	}
	return tc.responseFieldShouldEqual(ctx, field, expected)
}
