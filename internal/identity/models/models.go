package models

import "time"

// Subject is a principal identified by its chain address. DIDObjectID is set
// at most once.
type Subject struct {
	Address     string    `json:"suiAddress"`
	Handle      string    `json:"username"`
	DIDObjectID string    `json:"didObjectId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s *Subject) HasDID() bool {
	return s != nil && s.DIDObjectID != ""
}

const defaultHandlePrefixLen = 8

// DefaultHandle names a subject created implicitly by DID provisioning.
func DefaultHandle(address string) string {
	if len(address) > defaultHandlePrefixLen {
		address = address[:defaultHandlePrefixLen]
	}
	return "user_" + address
}
