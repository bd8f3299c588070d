package crypt_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmartin-estofados/storefront/pkg/crypt"
)

func TestEncryptDecrypt(t *testing.T) {
	enc, err := crypt.Encrypt("APP_USR-123")
	require.NoError(t, err)
	assert.NotContains(t, enc, "APP_USR")

	plain, err := crypt.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "APP_USR-123", plain)
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	a, _ := crypt.Encrypt("same")
	b, _ := crypt.Encrypt("same")
	assert.NotEqual(t, a, b)
}

func TestDecryptRejectsTampering(t *testing.T) {
	enc, err := crypt.Encrypt("secret")
	require.NoError(t, err)

	raw, err := base64.URLEncoding.DecodeString(enc)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	_, err = crypt.Decrypt(base64.URLEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, crypt.ErrDecrypt)

	_, err = crypt.Decrypt("%%%")
	assert.ErrorIs(t, err, crypt.ErrDecrypt)
}
