package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v := New(t.TempDir())

	ciphertext, err := v.Encrypt("hunter2")
	require.NoError(t, err)
	assert.True(t, IsEncrypted(ciphertext))
	assert.NotContains(t, ciphertext, "hunter2")

	plaintext, err := v.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plaintext)
}

func TestEncryptFreshNonces(t *testing.T) {
	v := New(t.TempDir())

	a, err := v.Encrypt("same-value")
	require.NoError(t, err)
	b, err := v.Encrypt("same-value")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEmptyValuesPassThrough(t *testing.T) {
	v := New(t.TempDir())

	out, err := v.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", out)

	out, err = v.Decrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestPlaintextPassesThroughDecrypt(t *testing.T) {
	v := New(t.TempDir())

	out, err := v.Decrypt("legacy-plaintext-password")
	require.NoError(t, err)
	assert.Equal(t, "legacy-plaintext-password", out)
}

func TestIsEncrypted(t *testing.T) {
	assert.False(t, IsEncrypted(""))
	assert.False(t, IsEncrypted("plaintext"))
	assert.True(t, IsEncrypted("enc:abc"))
}

func TestKeyFileCreatedWithOwnerOnlyPermissions(t *testing.T) {
	dir := t.TempDir()
	v := New(dir)

	_, err := v.Encrypt("anything")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, KeyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestKeyReplacementSurfacesErrKeyLost(t *testing.T) {
	dir := t.TempDir()

	ciphertext, err := New(dir).Encrypt("secret")
	require.NoError(t, err)

	// Replace the key, as would happen if the key file were deleted and a
	// new install regenerated it.
	require.NoError(t, os.Remove(filepath.Join(dir, KeyFileName)))
	_, err = New(dir).Decrypt(ciphertext)
	assert.ErrorIs(t, err, ErrKeyLost)
}

func TestCorruptCiphertext(t *testing.T) {
	v := New(t.TempDir())

	_, err := v.Decrypt("enc:!!!not-base64!!!")
	assert.ErrorIs(t, err, ErrKeyLost)

	_, err = v.Decrypt("enc:YQ==") // valid base64, shorter than a nonce
	assert.ErrorIs(t, err, ErrKeyLost)
}

func TestKeyPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	ciphertext, err := New(dir).Encrypt("secret")
	require.NoError(t, err)

	plaintext, err := New(dir).Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "secret", plaintext)
}
