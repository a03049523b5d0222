package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	POSTWithHeaders(path string, body any, headers map[string]string) error
	GET(path string, headers map[string]string) error
	GetLastResponseBody() []byte
	Unique(name string) string
	Saved(key string) (string, error)
	SubmissionsOf(function string) (int, bool)
	AdminToken() string
}

// RegisterSteps registers credential step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &credentialSteps{tc: tc}

	ctx.Step(`^I issue a credential to "([^"]*)" with full name "([^"]*)", date of birth "([^"]*)", national id "([^"]*)" and address "([^"]*)"$`, steps.issue)
	ctx.Step(`^I issue a credential to "([^"]*)" with idempotency key "([^"]*)"$`, steps.issueWithKey)
	ctx.Step(`^I issue a credential to "([^"]*)" without credential data$`, steps.issueWithoutData)
	ctx.Step(`^I issue a legacy KYC credential to "([^"]*)" for "([^"]*)" "([^"]*)" born "([^"]*)"$`, steps.issueLegacy)
	ctx.Step(`^I list the credentials of "([^"]*)"$`, steps.list)
	ctx.Step(`^the response should be a list of (\d+) credentials?$`, steps.listShouldHave)
	ctx.Step(`^I verify credential "([^"]*)" for "([^"]*)"$`, steps.verify)
	ctx.Step(`^I verify the saved credential "([^"]*)" for "([^"]*)"$`, steps.verifySaved)
	ctx.Step(`^I revoke the saved credential "([^"]*)" as admin$`, steps.revokeAsAdmin)
	ctx.Step(`^I revoke the saved credential "([^"]*)" without the admin token$`, steps.revokeWithoutToken)
	ctx.Step(`^(\d+) "([^"]*)" transactions? should have been submitted$`, steps.submissionsShouldBe)
	ctx.Step(`^no "([^"]*)" transaction should have been submitted$`, steps.noSubmissions)
}

type credentialSteps struct {
	tc TestContext
}

func issueBody(address, fullName, dob, nationalID, addr string) map[string]any {
	return map[string]any{
		"userAddress": address,
		"credentialData": map[string]string{
			"fullName":    fullName,
			"dateOfBirth": dob,
			"nationalId":  nationalID,
			"address":     addr,
		},
	}
}

func (s *credentialSteps) issue(_ context.Context, address, fullName, dob, nationalID, addr string) error {
	return s.tc.POST("/api/users/credentials", issueBody(s.tc.Unique(address), fullName, dob, nationalID, addr))
}

func (s *credentialSteps) issueWithKey(_ context.Context, address, key string) error {
	return s.tc.POSTWithHeaders("/api/users/credentials",
		issueBody(s.tc.Unique(address), "Jane Doe", "1990-01-01", "N123", "1 Main St"),
		map[string]string{"Idempotency-Key": s.tc.Unique(key)},
	)
}

func (s *credentialSteps) issueWithoutData(_ context.Context, address string) error {
	return s.tc.POST("/api/users/credentials", map[string]string{"userAddress": s.tc.Unique(address)})
}

func (s *credentialSteps) issueLegacy(_ context.Context, address, first, last, dob string) error {
	return s.tc.POST("/api/users/issue-kyc", map[string]string{
		"suiAddress":  s.tc.Unique(address),
		"firstName":   first,
		"lastName":    last,
		"dateOfBirth": dob,
		"nationalId":  "N123",
		"address":     "1 Main St",
	})
}

func (s *credentialSteps) list(_ context.Context, address string) error {
	return s.tc.GET("/api/users/"+url.PathEscape(s.tc.Unique(address))+"/credentials", nil)
}

func (s *credentialSteps) listShouldHave(_ context.Context, n int) error {
	var records []map[string]any
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &records); err != nil {
		return fmt.Errorf("expected a JSON array: %w", err)
	}
	if len(records) != n {
		return fmt.Errorf("expected %d credentials but got %d", n, len(records))
	}
	return nil
}

func (s *credentialSteps) verify(_ context.Context, vcID, address string) error {
	return s.tc.POST("/api/users/verify", map[string]string{
		"userAddress": s.tc.Unique(address),
		"vcId":        vcID,
	})
}

func (s *credentialSteps) verifySaved(ctx context.Context, key, address string) error {
	vcID, err := s.tc.Saved(key)
	if err != nil {
		return err
	}
	return s.verify(ctx, vcID, address)
}

func (s *credentialSteps) revokePath(key string) (string, error) {
	id, err := s.tc.Saved(key)
	if err != nil {
		return "", err
	}
	return "/api/users/credentials/" + url.PathEscape(id) + "/revoke", nil
}

func (s *credentialSteps) revokeAsAdmin(_ context.Context, key string) error {
	if s.tc.AdminToken() == "" {
		return godog.ErrSkip
	}
	path, err := s.revokePath(key)
	if err != nil {
		return err
	}
	return s.tc.POSTWithHeaders(path, nil, map[string]string{"X-Admin-Token": s.tc.AdminToken()})
}

func (s *credentialSteps) revokeWithoutToken(_ context.Context, key string) error {
	path, err := s.revokePath(key)
	if err != nil {
		return err
	}
	return s.tc.POST(path, nil)
}

// Ledger assertions are skipped against a deployed server.
func (s *credentialSteps) submissionsShouldBe(_ context.Context, n int, function string) error {
	got, ok := s.tc.SubmissionsOf(function)
	if !ok {
		return godog.ErrSkip
	}
	if got != n {
		return fmt.Errorf("expected %d %s submissions but got %d", n, function, got)
	}
	return nil
}

func (s *credentialSteps) noSubmissions(ctx context.Context, function string) error {
	return s.submissionsShouldBe(ctx, 0, function)
}
