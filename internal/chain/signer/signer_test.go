package signer

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seed = bytes.Repeat([]byte{0x2a}, 32)

func flagged(seed []byte) string {
	return base64.StdEncoding.EncodeToString(append([]byte{Ed25519Flag}, seed...))
}

func TestFromBase64(t *testing.T) {
	t.Run("strips scheme flag", func(t *testing.T) {
		withFlag, err := FromBase64(flagged(seed))
		require.NoError(t, err)
		bare, err := FromBase64(base64.StdEncoding.EncodeToString(seed))
		require.NoError(t, err)

		assert.Equal(t, bare.Address(), withFlag.Address())
	})

	t.Run("rejects other schemes", func(t *testing.T) {
		_, err := FromBase64(base64.StdEncoding.EncodeToString(append([]byte{0x01}, seed...)))
		assert.ErrorContains(t, err, "unsupported key scheme")
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := FromBase64(base64.StdEncoding.EncodeToString([]byte("short")))
		assert.Error(t, err)
	})

	t.Run("rejects invalid base64", func(t *testing.T) {
		_, err := FromBase64("not base64!!")
		assert.Error(t, err)
	})
}

func TestAddressShape(t *testing.T) {
	s, err := FromSeed(seed)
	require.NoError(t, err)

	addr := s.Address()
	assert.True(t, strings.HasPrefix(addr, "0x"))
	assert.Len(t, addr, 66)
	assert.Equal(t, AddressOf(s.PublicKey()), addr)
}

func TestSignTransaction(t *testing.T) {
	s, err := FromSeed(seed)
	require.NoError(t, err)
	tx := []byte("transaction-bytes")

	sig, err := s.SignTransaction(tx)
	require.NoError(t, err)

	pub, ok := Verify(sig, tx)
	assert.True(t, ok)
	assert.Equal(t, s.PublicKey(), pub)

	_, ok = Verify(sig, []byte("tampered"))
	assert.False(t, ok)

	_, err = s.SignTransaction(nil)
	assert.Error(t, err)
}
