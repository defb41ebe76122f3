package kem

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSizes(t *testing.T) {
	require.Equal(t, 1568, PublicKeySize)
	require.Equal(t, 3168, SecretKeySize)
	require.Equal(t, 1568, CiphertextSize)
	require.Equal(t, 32, SharedSecretSize)
}

func TestRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	require.Len(t, kp.PublicKey, PublicKeySize)
	require.Len(t, kp.SecretKey, SecretKeySize)

	enc, err := Encapsulate(kp.PublicKey)
	require.NoError(t, err)
	require.Len(t, enc.Ciphertext, CiphertextSize)
	require.Len(t, enc.SharedSecret, SharedSecretSize)

	ss, err := Decapsulate(kp.SecretKey, enc.Ciphertext)
	require.NoError(t, err)
	require.Equal(t, enc.SharedSecret, ss)

	ss2, err := kp.Decapsulate(enc.Ciphertext)
	require.NoError(t, err)
	require.Equal(t, enc.SharedSecret, ss2)
}

func TestEncapsulate_Fresh(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	a, err := Encapsulate(kp.PublicKey)
	require.NoError(t, err)
	b, err := Encapsulate(kp.PublicKey)
	require.NoError(t, err)
	require.False(t, bytes.Equal(a.Ciphertext, b.Ciphertext))
	require.False(t, bytes.Equal(a.SharedSecret, b.SharedSecret))
}

func TestDecapsulate_ImplicitRejection(t *testing.T) {
	kp1, err := GenerateKeyPair()
	require.NoError(t, err)
	kp2, err := GenerateKeyPair()
	require.NoError(t, err)

	enc, err := Encapsulate(kp1.PublicKey)
	require.NoError(t, err)

	ss, err := Decapsulate(kp2.SecretKey, enc.Ciphertext)
	require.NoError(t, err)
	require.Len(t, ss, SharedSecretSize)
	require.NotEqual(t, enc.SharedSecret, ss)
}

func TestInvalidKeyMaterial(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	enc, err := Encapsulate(kp.PublicKey)
	require.NoError(t, err)

	_, err = Encapsulate(kp.PublicKey[:100])
	require.ErrorIs(t, err, ErrInvalidKeyMaterial)

	_, err = Decapsulate(kp.SecretKey[:SecretKeySize-1], enc.Ciphertext)
	require.ErrorIs(t, err, ErrInvalidKeyMaterial)

	_, err = Decapsulate(kp.SecretKey, enc.Ciphertext[:10])
	require.ErrorIs(t, err, ErrInvalidKeyMaterial)

	_, err = kp.Decapsulate(nil)
	require.ErrorIs(t, err, ErrInvalidKeyMaterial)
}

func TestParseSecretKey(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	parsed, err := ParseSecretKey(kp.SecretKey)
	require.NoError(t, err)
	require.Equal(t, kp.PublicKey, parsed.PublicKey)
	require.Equal(t, kp.SecretKey, parsed.SecretKey)

	enc, err := Encapsulate(parsed.PublicKey)
	require.NoError(t, err)
	ss, err := parsed.Decapsulate(enc.Ciphertext)
	require.NoError(t, err)
	require.Equal(t, enc.SharedSecret, ss)

	_, err = ParseSecretKey(kp.SecretKey[:SecretKeySize-1])
	require.ErrorIs(t, err, ErrInvalidKeyMaterial)
	_, err = ParseSecretKey(nil)
	require.ErrorIs(t, err, ErrInvalidKeyMaterial)
}
