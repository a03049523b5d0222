package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestMessageFallsBackToCode() {
	s.Equal("User not found with this Sui address", New(CodeNotFound, "User not found with this Sui address").Error())
	s.Equal("not_found", (&Error{Code: CodeNotFound}).Error())
	s.Equal("credential 0x01 already revoked", Newf(CodeConflict, "credential %s already revoked", "0x01").Error())
}

func (s *DomainErrorsSuite) TestErrorsIsMatchesByCode() {
	missingSubject := New(CodeNotFound, "User not found with this Sui address")
	missingCredential := New(CodeNotFound, "Credential not found")

	s.ErrorIs(missingSubject, missingCredential)
	s.NotErrorIs(missingSubject, New(CodeConflict, "User with this address or username already exists"))
	s.NotErrorIs(missingSubject, errors.New("not_found"))

	// through fmt wrapping too
	s.ErrorIs(fmt.Errorf("lookup: %w", missingSubject), &Error{Code: CodeNotFound})
}

func (s *DomainErrorsSuite) TestWrapKeepsTheInnermostCode() {
	rpc := errors.New("rpc: connection refused")

	s.Run("plain cause takes the given code", func() {
		err := Wrap(rpc, CodeChainSubmission, "submit transaction")
		s.True(HasCode(err, CodeChainSubmission))
		s.ErrorIs(err, rpc)
	})

	s.Run("submission failure inside an issuance stays a submission failure", func() {
		submit := Wrap(rpc, CodeChainSubmission, "submit transaction")
		issue := Wrap(submit, CodeVCIssuance, "issue credential")

		s.Equal(CodeChainSubmission, CodeOf(issue))
		s.False(HasCode(issue, CodeVCIssuance))
		s.ErrorIs(issue, rpc)
	})
}

func (s *DomainErrorsSuite) TestTrace() {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "single message",
			err:  New(CodeBadRequest, "User must have a DID before creating credentials"),
			want: "User must have a DID before creating credentials",
		},
		{
			name: "nested causes",
			err: Wrap(
				Wrap(errors.New("dial tcp 10.0.0.5:9000: connection refused"), CodeChainSubmission, "submit transaction"),
				CodeVCIssuance, "issue credential"),
			want: "issue credential: submit transaction: dial tcp 10.0.0.5:9000: connection refused",
		},
		{
			name: "empty inner message is skipped",
			err:  Wrap(&Error{Code: CodeDIDCreation, Err: errors.New("no DIDObject in effects")}, CodeInternal, "provision DID"),
			want: "provision DID: no DIDObject in effects",
		},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			var e *Error
			s.Require().ErrorAs(tc.err, &e)
			s.Equal(tc.want, e.Trace())
		})
	}
}

func (s *DomainErrorsSuite) TestCodeOf() {
	s.Equal(CodeTimeout, CodeOf(New(CodeTimeout, "request timed out")))
	s.Equal(CodeInternal, CodeOf(errors.New("boom")))
	s.Equal(CodeInternal, CodeOf(nil))
	s.False(HasCode(nil, CodeNotFound))
}

func (s *DomainErrorsSuite) TestChainCodesAreDistinct() {
	seen := map[Code]bool{}
	for _, c := range []Code{CodeChainSubmission, CodeSchemaCreation, CodeDIDCreation, CodeVCIssuance} {
		s.False(seen[c], "duplicate code %s", c)
		seen[c] = true
	}
}
