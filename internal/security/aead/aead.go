// Package aead provides authenticated encryption with caller-supplied key
// and nonce. It keeps no state: nonce uniqueness per key is the caller's job.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm names accepted on the wire.
const (
	AES256GCM        = "aes-256-gcm"
	ChaCha20Poly1305 = "chacha20-poly1305"
)

const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16
)

var (
	// ErrInputValidation: bad key or nonce length, or an unknown algorithm.
	ErrInputValidation = errors.New("aead: invalid input")
	// ErrTagVerification: authentication failed (wrong key, nonce, aad, or tampered data).
	ErrTagVerification = errors.New("aead: tag verification failed")
	// ErrEncoding: the authenticated plaintext is not valid UTF-8.
	ErrEncoding = errors.New("aead: plaintext is not valid utf-8")
)

// Normalize maps an algorithm name to its canonical form. Empty means AES-256-GCM.
func Normalize(alg string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(alg)) {
	case "", AES256GCM, "aes256gcm", "aes-gcm":
		return AES256GCM, nil
	case ChaCha20Poly1305, "chacha20poly1305":
		return ChaCha20Poly1305, nil
	default:
		return "", fmt.Errorf("%w: unsupported algorithm %q", ErrInputValidation, alg)
	}
}

// Encrypt seals plaintext and returns ciphertext||tag.
func Encrypt(alg string, key, nonce, plaintext, aad []byte) ([]byte, error) {
	c, err := newCipher(alg, key, nonce)
	if err != nil {
		return nil, err
	}
	return c.Seal(nil, nonce, plaintext, aad), nil
}

// Decrypt opens ciphertext||tag and returns the plaintext as a string.
func Decrypt(alg string, key, nonce, ciphertext, aad []byte) (string, error) {
	pt, err := Open(alg, key, nonce, ciphertext, aad)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(pt) {
		return "", ErrEncoding
	}
	return string(pt), nil
}

// Open is Decrypt without the UTF-8 requirement.
func Open(alg string, key, nonce, ciphertext, aad []byte) ([]byte, error) {
	c, err := newCipher(alg, key, nonce)
	if err != nil {
		return nil, err
	}
	pt, err := c.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrTagVerification
	}
	return pt, nil
}

func newCipher(alg string, key, nonce []byte) (cipher.AEAD, error) {
	name, err := Normalize(alg)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes", ErrInputValidation, NonceSize)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes", ErrInputValidation, KeySize)
	}

	if name == ChaCha20Poly1305 {
		c, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInputValidation, err)
		}
		return c, nil
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputValidation, err)
	}
	c, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aead: gcm: %w", err)
	}
	return c, nil
}
