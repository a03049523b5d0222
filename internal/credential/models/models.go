package models

import (
	"strings"
	"time"
)

// Claims is the KYC payload mirrored off chain.
type Claims struct {
	FullName    string `json:"fullName"`
	DateOfBirth string `json:"dateOfBirth"`
	NationalID  string `json:"nationalId"`
	Address     string `json:"address"`
}

// SplitName splits FullName on the first space. The last name is empty for
// single-word names.
func (c Claims) SplitName() (first, last string) {
	first, last, _ = strings.Cut(c.FullName, " ")
	return first, last
}

// CredentialRecord mirrors an issued on-chain credential. OnChainID and
// TransactionDigest are set together at creation.
type CredentialRecord struct {
	ID                string    `json:"id"`
	SubjectAddress    string    `json:"userAddress"`
	Claims            Claims    `json:"credentialData"`
	IssuedAt          time.Time `json:"issuedAt"`
	OnChainID         string    `json:"suiVcId"`
	TransactionDigest string    `json:"transactionDigest"`
	Revoked           bool      `json:"isRevoked"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// IsActive reports whether the record may satisfy a verification.
func (r *CredentialRecord) IsActive() bool {
	return r != nil && !r.Revoked
}

// KYCClaims are the on-chain issuance arguments in schema field order.
type KYCClaims struct {
	FirstName   string
	LastName    string
	DateOfBirth string
	NationalID  string
	Address     string
}

// ClaimsFromRecord derives issuance arguments from a mirror payload.
func ClaimsFromRecord(c Claims) KYCClaims {
	first, last := c.SplitName()
	return KYCClaims{
		FirstName:   first,
		LastName:    last,
		DateOfBirth: c.DateOfBirth,
		NationalID:  c.NationalID,
		Address:     c.Address,
	}
}

// IssueResult is what a successful issuance transaction yields.
type IssueResult struct {
	TransactionDigest  string `json:"transactionDigest"`
	CredentialObjectID string `json:"vcObjectId"`
}

// VerifyResult is the outcome of a verification query. A missing credential
// is a negative result, not an error.
type VerifyResult struct {
	IsValid   bool   `json:"isValid"`
	HasAccess bool   `json:"hasAccess"`
	Message   string `json:"message"`
}

const (
	MessageNotFound      = "Credential not found or has been revoked"
	MessageAccessGranted = "Credential verified successfully! Access granted."
	MessageDenied        = "Credential verification failed."
)
