package issuer_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"kycgate/internal/chain"
	"kycgate/internal/chain/chaintest"
	"kycgate/internal/credential/issuer"
	"kycgate/internal/credential/models"
	"kycgate/internal/credential/schema"
	dErrors "kycgate/pkg/domain-errors"
)

const (
	packageID = "0xpkg"
	issuerDID = "0xissuerdid"
	schemaID  = "0xschema"
)

type fixedProof struct {
	bytes []byte
	err   error
}

func (p fixedProof) Proof(context.Context, string, models.KYCClaims) ([]byte, error) {
	return p.bytes, p.err
}

type IssuerSuite struct {
	suite.Suite
	ctx    context.Context
	ledger *chaintest.Ledger
	claims models.KYCClaims
}

func TestIssuerSuite(t *testing.T) {
	suite.Run(t, new(IssuerSuite))
}

func (s *IssuerSuite) SetupTest() {
	s.ctx = context.Background()
	s.ledger = chaintest.NewLedger()
	s.ledger.Put(schemaID, packageID+schema.ObjectType)
	s.claims = models.KYCClaims{
		FirstName: "Jane", LastName: "Doe", DateOfBirth: "1990-01-01", NationalID: "N123", Address: "1 Main St",
	}
}

func (s *IssuerSuite) newIssuer(opts ...issuer.Option) *issuer.Issuer {
	gw := s.ledger.Gateway()
	signer := chaintest.NewSigner()
	return issuer.New(gw, schema.New(gw, signer, packageID), signer, issuer.Config{
		PackageID: packageID,
		IssuerDID: issuerDID,
		SchemaID:  schemaID,
	}, opts...)
}

func (s *IssuerSuite) TestIssueCredential() {
	res, err := s.newIssuer().IssueCredential(s.ctx, "0xrecipient", s.claims)
	s.Require().NoError(err)
	s.NotEmpty(res.TransactionDigest)

	subs := s.ledger.Submissions()
	s.Require().Len(subs, 1)
	s.Equal(res.TransactionDigest, subs[0].Digest)
	s.Equal("issue_vc", subs[0].Call.Function)

	args := subs[0].Call.Args
	s.Require().Len(args, 10)
	s.Equal(issuerDID, args[0])
	s.Equal(schemaID, args[1])
	s.Equal("0xrecipient", args[2])
	s.Equal([]any{"Jane", "Doe", "1990-01-01", "N123", "1 Main St"}, args[3:8])
	s.Equal(jsonBytes([]byte("signature_would_go_here")), args[8])
	s.Equal(chain.ClockObjectID.String(), args[9])

	obj, err := s.ledger.GetObject(s.ctx, chain.ObjectID(res.CredentialObjectID))
	s.Require().NoError(err)
	s.Equal(packageID+issuer.ObjectType, obj.Type)
}

func (s *IssuerSuite) TestMissingSchemaIsCreatedOnceAndRemembered() {
	s.ledger.Delete(schemaID)
	iss := s.newIssuer()

	_, err := iss.IssueCredential(s.ctx, "0xrecipient", s.claims)
	s.Require().NoError(err)
	newSchema := iss.SchemaID()
	s.NotEqual(chain.ObjectID(schemaID), newSchema)

	_, err = iss.IssueCredential(s.ctx, "0xrecipient", s.claims)
	s.Require().NoError(err)
	s.Equal(newSchema, iss.SchemaID())
	s.Equal(1, s.ledger.SubmissionsOf("create_schema"))
	s.Equal(2, s.ledger.SubmissionsOf("issue_vc"))

	last := s.ledger.Submissions()[2]
	s.Equal(newSchema.String(), last.Call.Args[1])
}

func (s *IssuerSuite) TestSchemaSwitchIsLoggedOnce() {
	s.ledger.Delete(schemaID)
	var buf bytes.Buffer
	iss := s.newIssuer(issuer.WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))

	for range 2 {
		_, err := iss.IssueCredential(s.ctx, "0xrecipient", s.claims)
		s.Require().NoError(err)
	}

	s.Equal(1, strings.Count(buf.String(), "using new schema for issuance"))
	s.Contains(buf.String(), `"previous_schema_id":"`+schemaID+`"`)
}

func (s *IssuerSuite) TestCustomProofMaterial() {
	_, err := s.newIssuer(issuer.WithProofMaterial(fixedProof{bytes: []byte{1, 2, 3}})).
		IssueCredential(s.ctx, "0xrecipient", s.claims)
	s.Require().NoError(err)
	s.Equal(jsonBytes([]byte{1, 2, 3}), s.ledger.Submissions()[0].Call.Args[8])
}

func (s *IssuerSuite) TestProofFailureSubmitsNothing() {
	_, err := s.newIssuer(issuer.WithProofMaterial(fixedProof{err: errors.New("hsm offline")})).
		IssueCredential(s.ctx, "0xrecipient", s.claims)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeVCIssuance))
	s.Zero(s.ledger.SubmissionsOf("issue_vc"))
}

func (s *IssuerSuite) TestSubmissionFailure() {
	s.ledger.FailNext("issue_vc", errors.New("InsufficientGas"))

	_, err := s.newIssuer().IssueCredential(s.ctx, "0xrecipient", s.claims)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeChainSubmission))
}

func (s *IssuerSuite) TestNoCredentialObjectCreated() {
	s.ledger.OmitCreated("issue_vc", true)

	_, err := s.newIssuer().IssueCredential(s.ctx, "0xrecipient", s.claims)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeVCIssuance))
}

func (s *IssuerSuite) TestSchemaFailureStopsIssuance() {
	s.ledger.Delete(schemaID)
	s.ledger.OmitCreated("create_schema", true)

	_, err := s.newIssuer().IssueCredential(s.ctx, "0xrecipient", s.claims)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeSchemaCreation))
	s.Zero(s.ledger.SubmissionsOf("issue_vc"))
}

// jsonBytes mirrors how a byte vector argument looks after a JSON round trip.
func jsonBytes(b []byte) []any {
	out := make([]any, len(b))
	for i, v := range b {
		out[i] = float64(v)
	}
	return out
}
