package models

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MirrorKeyLength is the number of hex characters in a mirror record key.
const MirrorKeyLength = 24

// NewMirrorKey returns a 12-byte key rendered as 24 lowercase hex characters:
// big-endian unix seconds followed by 8 random bytes. Keys sort roughly by
// creation time.
func NewMirrorKey(now time.Time) string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[:4], uint32(now.Unix()))
	id := uuid.New()
	copy(b[4:], id[:8])
	return hex.EncodeToString(b[:])
}

// IsMirrorKey reports whether ref has the mirror key shape. Either hex case
// is accepted.
func IsMirrorKey(ref string) bool {
	if len(ref) != MirrorKeyLength {
		return false
	}
	_, err := hex.DecodeString(ref)
	return err == nil
}

// NormalizeMirrorKey lowercases a key so lookups match stored keys.
func NormalizeMirrorKey(ref string) string {
	return strings.ToLower(ref)
}
