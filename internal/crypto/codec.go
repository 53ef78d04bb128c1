/**
 * @description
 * This package implements the field-level encryption codec used by the ledger.
 * Individual column values (account number, description, amount) are encrypted
 * with AES-256-GCM before they reach the database and decrypted on the way out.
 *
 * Key properties:
 * - One process-wide key, derived once at startup from configuration. The raw
 *   key string is hashed with SHA-256 so any configured length yields a valid
 *   32-byte AES key. Key material is never logged.
 * - Ciphertext is nonce||sealed bytes, base64 encoded, so it stores safely in
 *   a TEXT column. Encryption is non-deterministic (fresh nonce per call).
 * - The empty string round-trips to the empty string without touching the
 *   cipher, so optional fields stay empty rather than becoming ciphertext.
 * - Decrypting a value that was never encrypted (legacy plaintext, truncated
 *   or corrupted ciphertext) fails with ErrDecrypt. There is no plaintext
 *   pass-through: a GCM authentication failure always surfaces as an error and
 *   the caller degrades that single field instead of failing the request.
 *
 * @dependencies
 * - crypto/aes, crypto/cipher, crypto/rand, crypto/sha256, encoding/base64: Standard Go libraries.
 */

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrEncrypt indicates the codec could not produce ciphertext. With a
	// correctly constructed codec this only happens when the nonce source fails.
	ErrEncrypt = errors.New("field encryption failed")
	// ErrDecrypt indicates malformed ciphertext or a key mismatch. Callers must
	// treat the field as unavailable, not fail the whole record.
	ErrDecrypt = errors.New("field decryption failed")
)

// Codec encrypts and decrypts individual field values with AES-256-GCM.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec derives a 32-byte key from the configured key string and prepares
// the AEAD. An empty key string is a misconfiguration and is rejected here so
// Encrypt and Decrypt never have to re-check key material.
func NewCodec(keyString string) (*Codec, error) {
	if strings.TrimSpace(keyString) == "" {
		return nil, errors.New("field encryption key is not configured")
	}

	key := sha256.Sum256([]byte(keyString))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encrypt seals a plaintext field value into a base64, text-safe ciphertext.
// The empty string is returned as-is so empty optional fields round-trip.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: nonce: %v", ErrEncrypt, err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Any input that is not valid
// base64 nonce||ciphertext under the current key fails with ErrDecrypt; legacy
// plaintext values stored before encryption was enabled fail the same way.
func (c *Codec) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.RawStdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: not base64", ErrDecrypt)
	}

	ns := c.aead.NonceSize()
	if len(raw) <= ns {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	plaintext, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecrypt)
	}
	return string(plaintext), nil
}
