package models

import (
	"strings"

	dErrors "kycgate/pkg/domain-errors"
)

// IssueCredentialRequest issues a credential and writes its mirror record.
type IssueCredentialRequest struct {
	UserAddress    string  `json:"userAddress"`
	CredentialData *Claims `json:"credentialData"`
}

func (r *IssueCredentialRequest) Sanitize() {
	r.UserAddress = strings.TrimSpace(r.UserAddress)
	if r.CredentialData != nil {
		r.CredentialData.FullName = strings.TrimSpace(r.CredentialData.FullName)
		r.CredentialData.DateOfBirth = strings.TrimSpace(r.CredentialData.DateOfBirth)
		r.CredentialData.NationalID = strings.TrimSpace(r.CredentialData.NationalID)
		r.CredentialData.Address = strings.TrimSpace(r.CredentialData.Address)
	}
}

func (r *IssueCredentialRequest) Validate() error {
	if r.UserAddress == "" || r.CredentialData == nil {
		return dErrors.New(dErrors.CodeValidation, "User address and credential data are required")
	}
	c := r.CredentialData
	if c.FullName == "" || c.DateOfBirth == "" || c.NationalID == "" || c.Address == "" {
		return dErrors.New(dErrors.CodeValidation, "Full name, date of birth, national ID, and address are required")
	}
	return nil
}

// IssueKYCRequest issues a credential on chain without a mirror record.
type IssueKYCRequest struct {
	SuiAddress  string `json:"suiAddress"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	NationalID  string `json:"nationalId"`
	Address     string `json:"address"`
}

func (r *IssueKYCRequest) Sanitize() {
	r.SuiAddress = strings.TrimSpace(r.SuiAddress)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.DateOfBirth = strings.TrimSpace(r.DateOfBirth)
	r.NationalID = strings.TrimSpace(r.NationalID)
	r.Address = strings.TrimSpace(r.Address)
}

func (r *IssueKYCRequest) Validate() error {
	if r.SuiAddress == "" {
		return dErrors.New(dErrors.CodeValidation, "suiAddress is required")
	}
	if r.FirstName == "" || r.LastName == "" || r.DateOfBirth == "" || r.NationalID == "" || r.Address == "" {
		return dErrors.New(dErrors.CodeValidation, "firstName, lastName, dateOfBirth, nationalId and address are required")
	}
	return nil
}

// Claims converts the request into issuance arguments.
func (r *IssueKYCRequest) Claims() KYCClaims {
	return KYCClaims{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		DateOfBirth: r.DateOfBirth,
		NationalID:  r.NationalID,
		Address:     r.Address,
	}
}

// IssueKYCResponse is the legacy issuance response.
type IssueKYCResponse struct {
	Message string `json:"message"`
	IssueResult
}

// VerifyRequest asks whether a subject holds a valid credential.
type VerifyRequest struct {
	UserAddress string `json:"userAddress"`
	VCID        string `json:"vcId"`
}

func (r *VerifyRequest) Sanitize() {
	r.UserAddress = strings.TrimSpace(r.UserAddress)
	r.VCID = strings.TrimSpace(r.VCID)
}

func (r *VerifyRequest) Validate() error {
	if r.UserAddress == "" || r.VCID == "" {
		return dErrors.New(dErrors.CodeValidation, "User address and VC ID are required")
	}
	return nil
}
