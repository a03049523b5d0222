package models

import (
	"strings"

	dErrors "kycgate/pkg/domain-errors"
)

type RegisterRequest struct {
	SuiAddress string `json:"suiAddress"`
	Username   string `json:"username"`
}

func (r *RegisterRequest) Sanitize() {
	r.SuiAddress = strings.TrimSpace(r.SuiAddress)
	r.Username = strings.TrimSpace(r.Username)
}

func (r *RegisterRequest) Validate() error {
	if r.SuiAddress == "" || r.Username == "" {
		return dErrors.New(dErrors.CodeValidation, "Sui address and username are required")
	}
	return nil
}

type RegisterResponse struct {
	ID         string `json:"id"`
	SuiAddress string `json:"suiAddress"`
	Username   string `json:"username"`
}

type DIDStatusResponse struct {
	HasDID bool   `json:"hasDid"`
	DIDID  string `json:"didId,omitempty"`
}

type ProvisionDIDResponse struct {
	DIDID   string `json:"didId"`
	Message string `json:"message"`
}

const MessageDIDCreated = "DID created successfully"
