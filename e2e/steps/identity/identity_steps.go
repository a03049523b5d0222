package identity

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	POSTWithHeaders(path string, body any, headers map[string]string) error
	GET(path string, headers map[string]string) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	Unique(name string) string
}

// RegisterSteps registers subject and DID step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &identitySteps{tc: tc}

	ctx.Step(`^I register subject "([^"]*)" with username "([^"]*)"$`, steps.register)
	ctx.Step(`^subject "([^"]*)" is registered as "([^"]*)"$`, steps.isRegistered)
	ctx.Step(`^I provision a DID for "([^"]*)"$`, steps.provisionDID)
	ctx.Step(`^I provision a DID for "([^"]*)" with idempotency key "([^"]*)"$`, steps.provisionDIDWithKey)
	ctx.Step(`^subject "([^"]*)" has a DID$`, steps.hasDID)
	ctx.Step(`^I check the DID status of "([^"]*)"$`, steps.didStatus)
}

type identitySteps struct {
	tc TestContext
}

func didPath(address string) string {
	return "/api/users/" + url.PathEscape(address) + "/did"
}

func (s *identitySteps) register(_ context.Context, address, username string) error {
	return s.tc.POST("/api/users/register", map[string]string{
		"suiAddress": s.tc.Unique(address),
		"username":   s.tc.Unique(username),
	})
}

func (s *identitySteps) isRegistered(ctx context.Context, address, username string) error {
	if err := s.register(ctx, address, username); err != nil {
		return err
	}
	return s.expect(http.StatusCreated)
}

func (s *identitySteps) provisionDID(_ context.Context, address string) error {
	return s.tc.POST(didPath(s.tc.Unique(address)), nil)
}

func (s *identitySteps) provisionDIDWithKey(_ context.Context, address, key string) error {
	return s.tc.POSTWithHeaders(didPath(s.tc.Unique(address)), nil, map[string]string{
		"Idempotency-Key": s.tc.Unique(key),
	})
}

func (s *identitySteps) hasDID(ctx context.Context, address string) error {
	if err := s.provisionDID(ctx, address); err != nil {
		return err
	}
	return s.expect(http.StatusCreated)
}

func (s *identitySteps) didStatus(_ context.Context, address string) error {
	return s.tc.GET(didPath(s.tc.Unique(address)), nil)
}

func (s *identitySteps) expect(status int) error {
	if got := s.tc.GetLastResponseStatus(); got != status {
		return fmt.Errorf("expected status %d but got %d: %s", status, got, s.tc.GetLastResponseBody())
	}
	return nil
}
