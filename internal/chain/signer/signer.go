// Package signer holds the issuer keypair and produces ledger transaction
// signatures. Keys are loaded once at startup and injected; nothing here is global.
package signer

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Ed25519Flag is the signature scheme flag prefixed to keys and signatures.
const Ed25519Flag byte = 0x00

// intentTransactionData is the intent prefix (scope, version, app id) for
// transaction signing.
var intentTransactionData = []byte{0, 0, 0}

// Ed25519 signs transactions with an ed25519 issuer key.
type Ed25519 struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
	address string
}

// FromBase64 loads a key exported as base64(flag || 32 byte seed). A bare
// 32 byte seed is also accepted.
func FromBase64(secret string) (*Ed25519, error) {
	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("decode issuer secret: %w", err)
	}
	switch len(raw) {
	case ed25519.SeedSize + 1:
		if raw[0] != Ed25519Flag {
			return nil, fmt.Errorf("unsupported key scheme flag 0x%02x", raw[0])
		}
		raw = raw[1:]
	case ed25519.SeedSize:
	default:
		return nil, fmt.Errorf("issuer secret must be %d or %d bytes, got %d", ed25519.SeedSize, ed25519.SeedSize+1, len(raw))
	}
	return FromSeed(raw)
}

// FromSeed builds a signer from a 32 byte seed.
func FromSeed(seed []byte) (*Ed25519, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.New("ed25519 seed must be 32 bytes")
	}
	private := ed25519.NewKeyFromSeed(seed)
	public := private.Public().(ed25519.PublicKey)
	return &Ed25519{
		private: private,
		public:  public,
		address: deriveAddress(public),
	}, nil
}

// Address is the ledger account address of the key: blake2b-256(flag || pubkey).
func (s *Ed25519) Address() string {
	return s.address
}

// PublicKey returns a copy of the raw public key.
func (s *Ed25519) PublicKey() ed25519.PublicKey {
	return append(ed25519.PublicKey(nil), s.public...)
}

// SignTransaction signs blake2b-256(intent || txBytes) and returns the
// serialized signature base64(flag || signature || pubkey).
func (s *Ed25519) SignTransaction(txBytes []byte) (string, error) {
	if len(txBytes) == 0 {
		return "", errors.New("empty transaction bytes")
	}
	digest := IntentDigest(txBytes)
	sig := ed25519.Sign(s.private, digest[:])

	serialized := make([]byte, 0, 1+len(sig)+len(s.public))
	serialized = append(serialized, Ed25519Flag)
	serialized = append(serialized, sig...)
	serialized = append(serialized, s.public...)
	return base64.StdEncoding.EncodeToString(serialized), nil
}

// IntentDigest returns the message actually signed for txBytes.
func IntentDigest(txBytes []byte) [blake2b.Size256]byte {
	msg := make([]byte, 0, len(intentTransactionData)+len(txBytes))
	msg = append(msg, intentTransactionData...)
	msg = append(msg, txBytes...)
	return blake2b.Sum256(msg)
}

// Verify checks a serialized signature against txBytes. Used by tests and
// the local ledger fake.
func Verify(serialized string, txBytes []byte) (ed25519.PublicKey, bool) {
	raw, err := base64.StdEncoding.DecodeString(serialized)
	if err != nil || len(raw) != 1+ed25519.SignatureSize+ed25519.PublicKeySize || raw[0] != Ed25519Flag {
		return nil, false
	}
	sig := raw[1 : 1+ed25519.SignatureSize]
	pub := ed25519.PublicKey(raw[1+ed25519.SignatureSize:])
	digest := IntentDigest(txBytes)
	return pub, ed25519.Verify(pub, digest[:], sig)
}

func deriveAddress(public ed25519.PublicKey) string {
	buf := make([]byte, 0, 1+len(public))
	buf = append(buf, Ed25519Flag)
	buf = append(buf, public...)
	sum := blake2b.Sum256(buf)
	return "0x" + hex.EncodeToString(sum[:])
}

// AddressOf derives the account address for a raw public key.
func AddressOf(public ed25519.PublicKey) string {
	return deriveAddress(public)
}
