// Package vault encrypts stored SMB credentials with a per-installation key.
//
// Values are sealed with AES-256-GCM under a randomly generated key that
// lives in a 0600 file next to the catalog database. Ciphertexts carry an
// "enc:" prefix so plaintext legacy values can be recognized and migrated
// transparently on read.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// EncryptedPrefix marks a value as vault ciphertext.
const EncryptedPrefix = "enc:"

// KeyFileName is the key file created next to the catalog database.
const KeyFileName = ".encryption_key"

const keySize = 32 // AES-256

// ErrKeyLost is returned when a stored credential cannot be decrypted.
// This happens when the key file was deleted or replaced after the
// credential was written. The only remediation is re-entering the
// credentials for every configured source.
var ErrKeyLost = errors.New("encryption key lost or changed; stored credentials cannot be recovered")

// Vault performs symmetric encryption of credential strings.
type Vault struct {
	keyPath string

	mu   sync.Mutex
	aead cipher.AEAD
}

// New creates a vault whose key file lives in dataDir.
// The key is generated lazily on first use.
func New(dataDir string) *Vault {
	return &Vault{keyPath: filepath.Join(dataDir, KeyFileName)}
}

// IsEncrypted reports whether a value carries the ciphertext prefix.
func IsEncrypted(value string) bool {
	return value != "" && strings.HasPrefix(value, EncryptedPrefix)
}

// Encrypt seals a plaintext string. Empty values pass through unchanged.
// Each call uses a fresh random nonce, so encrypting the same plaintext
// twice yields distinct ciphertexts.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return plaintext, nil
	}

	aead, err := v.cipher()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return EncryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a sealed value. Values without the ciphertext prefix are
// returned unchanged (plaintext not yet migrated). Empty values pass
// through. A value that carries the prefix but cannot be opened surfaces
// ErrKeyLost.
func (v *Vault) Decrypt(value string) (string, error) {
	if value == "" || !strings.HasPrefix(value, EncryptedPrefix) {
		return value, nil
	}

	aead, err := v.cipher()
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, EncryptedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: malformed ciphertext", ErrKeyLost)
	}
	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("%w: truncated ciphertext", ErrKeyLost)
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrKeyLost
	}

	return string(plaintext), nil
}

// cipher returns the AEAD, loading or generating the key on first use.
func (v *Vault) cipher() (cipher.AEAD, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.aead != nil {
		return v.aead, nil
	}

	key, err := v.loadOrCreateKey()
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}

	v.aead = aead
	return aead, nil
}

func (v *Vault) loadOrCreateKey() ([]byte, error) {
	key, err := os.ReadFile(v.keyPath)
	if err == nil {
		if len(key) != keySize {
			return nil, fmt.Errorf("%w: key file %s has unexpected size %d", ErrKeyLost, v.keyPath, len(key))
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read key file %s: %w", v.keyPath, err)
	}

	key = make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(v.keyPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	// Owner-only permissions: the key protects every stored credential.
	if err := os.WriteFile(v.keyPath, key, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write key file %s: %w", v.keyPath, err)
	}

	return key, nil
}
