//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kycgate/internal/credential/models"
	"kycgate/internal/credential/store"
	"kycgate/pkg/platform/sentinel"
	"kycgate/pkg/testutil"
	"kycgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.Postgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Reset(s.ctx))
}

func (s *PostgresStoreSuite) record(subject, onChainID string, issuedAt time.Time) *models.CredentialRecord {
	issuedAt = issuedAt.UTC().Truncate(time.Microsecond)
	return &models.CredentialRecord{
		ID:                models.NewMirrorKey(issuedAt),
		SubjectAddress:    subject,
		Claims:            models.Claims{FullName: "Jane Doe", DateOfBirth: "1990-01-01", NationalID: "N123", Address: "1 Main St"},
		IssuedAt:          issuedAt,
		OnChainID:         onChainID,
		TransactionDigest: "digest-" + onChainID,
		CreatedAt:         issuedAt,
		UpdatedAt:         issuedAt,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	subject := s.postgres.NewSubject(s.ctx, s.T())
	rec := s.record(subject, "0x01", time.Now())
	s.Require().NoError(s.store.Save(s.ctx, rec))

	found, err := s.store.FindActive(s.ctx, subject, "0x01")
	s.Require().NoError(err)
	s.Equal(rec.ID, found.ID)
	s.Equal(rec.Claims, found.Claims)
	s.True(rec.IssuedAt.Equal(found.IssuedAt))

	found, err = s.store.FindActiveByKey(s.ctx, subject, rec.ID)
	s.Require().NoError(err)
	s.Equal("0x01", found.OnChainID)

	s.ErrorIs(s.store.Save(s.ctx, rec), sentinel.ErrAlreadyExists)
}

func (s *PostgresStoreSuite) TestListActiveNewestFirst() {
	subject := s.postgres.NewSubject(s.ctx, s.T())
	now := time.Now()
	older := s.record(subject, "0x01", now.Add(-time.Hour))
	newer := s.record(subject, "0x02", now)
	s.Require().NoError(s.store.Save(s.ctx, older))
	s.Require().NoError(s.store.Save(s.ctx, newer))

	list, err := s.store.ListActive(s.ctx, subject)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(newer.ID, list[0].ID)
	s.Equal(older.ID, list[1].ID)
}

func (s *PostgresStoreSuite) TestRevoke() {
	subject := s.postgres.NewSubject(s.ctx, s.T())
	rec := s.record(subject, "0x01", time.Now())
	s.Require().NoError(s.store.Save(s.ctx, rec))

	revoked, err := s.store.Revoke(s.ctx, rec.ID, time.Now())
	s.Require().NoError(err)
	s.True(revoked.Revoked)

	_, err = s.store.Revoke(s.ctx, rec.ID, time.Now())
	s.ErrorIs(err, sentinel.ErrInvalidState)
	_, err = s.store.Revoke(s.ctx, "000000000000000000000000", time.Now())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindActive(s.ctx, subject, "0x01")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindActiveByKey(s.ctx, subject, rec.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConcurrentRevokeSucceedsOnce() {
	subject := s.postgres.NewSubject(s.ctx, s.T())
	rec := s.record(subject, "0x01", time.Now())
	s.Require().NoError(s.store.Save(s.ctx, rec))

	outcomes := testutil.Race(10, func(int) error {
		_, err := s.store.Revoke(s.ctx, rec.ID, time.Now())
		return err
	})

	s.Equal(1, outcomes.Won())
	s.Equal(9, outcomes.Lost(sentinel.ErrInvalidState))
	s.Empty(outcomes.Unexpected(sentinel.ErrInvalidState))
}
