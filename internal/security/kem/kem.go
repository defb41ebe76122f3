// Package kem wraps ML-KEM-1024 (FIPS 203) key encapsulation.
//
// Keys and ciphertexts travel as raw bytes in the FIPS 203 encodings: the
// secret key is the expanded 3168-byte decapsulation key, not the 64-byte seed.
package kem

import (
	"errors"
	"fmt"

	circlkem "github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"
)

// Algorithm is the name reported to clients.
const Algorithm = "ML-KEM-1024"

// ErrInvalidKeyMaterial is returned for keys or ciphertexts that cannot be
// decoded (wrong length or malformed encoding).
var ErrInvalidKeyMaterial = errors.New("kem: invalid key material")

var scheme circlkem.Scheme = mlkem1024.Scheme()

// Sizes in bytes.
var (
	PublicKeySize    = scheme.PublicKeySize()
	SecretKeySize    = scheme.PrivateKeySize()
	CiphertextSize   = scheme.CiphertextSize()
	SharedSecretSize = scheme.SharedKeySize()
)

// KeyPair is an encoded ML-KEM-1024 keypair. The process keypair is built
// once at startup and only read afterwards.
type KeyPair struct {
	PublicKey []byte
	SecretKey []byte

	sk circlkem.PrivateKey
}

// Encapsulation is the result of one encapsulation.
type Encapsulation struct {
	Ciphertext   []byte
	SharedSecret []byte
}

// GenerateKeyPair creates a fresh keypair from crypto/rand.
func GenerateKeyPair() (*KeyPair, error) {
	pk, sk, err := scheme.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("kem: generate: %w", err)
	}
	pkb, err := pk.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("kem: marshal public key: %w", err)
	}
	skb, err := sk.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("kem: marshal secret key: %w", err)
	}
	return &KeyPair{PublicKey: pkb, SecretKey: skb, sk: sk}, nil
}

// Encapsulate derives a fresh shared secret for publicKey.
func Encapsulate(publicKey []byte) (Encapsulation, error) {
	if len(publicKey) != PublicKeySize {
		return Encapsulation{}, fmt.Errorf("%w: public key is %d bytes, want %d", ErrInvalidKeyMaterial, len(publicKey), PublicKeySize)
	}
	pk, err := scheme.UnmarshalBinaryPublicKey(publicKey)
	if err != nil {
		return Encapsulation{}, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	ct, ss, err := scheme.Encapsulate(pk)
	if err != nil {
		return Encapsulation{}, fmt.Errorf("kem: encapsulate: %w", err)
	}
	return Encapsulation{Ciphertext: ct, SharedSecret: ss}, nil
}

// Decapsulate recovers the shared secret for ciphertext.
//
// ML-KEM uses implicit rejection: a well-formed ciphertext that was not
// produced for this key yields a pseudorandom 32-byte secret and no error.
// Callers detect the mismatch only when the secrets disagree downstream.
func Decapsulate(secretKey, ciphertext []byte) ([]byte, error) {
	kp, err := ParseSecretKey(secretKey)
	if err != nil {
		return nil, err
	}
	return decapsulate(kp.sk, ciphertext)
}

// ParseSecretKey decodes an expanded secret key and recovers its public half.
// Errors wrap ErrInvalidKeyMaterial.
func ParseSecretKey(secretKey []byte) (*KeyPair, error) {
	if len(secretKey) != SecretKeySize {
		return nil, fmt.Errorf("%w: secret key is %d bytes, want %d", ErrInvalidKeyMaterial, len(secretKey), SecretKeySize)
	}
	sk, err := scheme.UnmarshalBinaryPrivateKey(secretKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	pkb, err := sk.Public().MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return &KeyPair{PublicKey: pkb, SecretKey: append([]byte(nil), secretKey...), sk: sk}, nil
}

// Decapsulate uses the pair's own secret key.
func (kp *KeyPair) Decapsulate(ciphertext []byte) ([]byte, error) {
	if kp.sk == nil {
		return Decapsulate(kp.SecretKey, ciphertext)
	}
	return decapsulate(kp.sk, ciphertext)
}

func decapsulate(sk circlkem.PrivateKey, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) != CiphertextSize {
		return nil, fmt.Errorf("%w: ciphertext is %d bytes, want %d", ErrInvalidKeyMaterial, len(ciphertext), CiphertextSize)
	}
	ss, err := scheme.Decapsulate(sk, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return ss, nil
}
