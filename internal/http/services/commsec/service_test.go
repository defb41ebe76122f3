package commsec

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	dto "github.com/dropDatabas3/tidasone/internal/http/dto/commsec"
	"github.com/dropDatabas3/tidasone/internal/security/aead"
	"github.com/dropDatabas3/tidasone/internal/security/kem"
)

var b64 = base64.StdEncoding.EncodeToString

func newService(t *testing.T, expose bool) Service {
	t.Helper()
	kp, err := kem.GenerateKeyPair()
	require.NoError(t, err)
	svc, err := NewService(Deps{KeyPair: kp, ExposeSecretKey: expose})
	require.NoError(t, err)
	return svc
}

func TestKEMHandshake(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, true)

	kp, err := svc.KeyPair(ctx)
	require.NoError(t, err)
	require.Equal(t, kp.PublicKey, svc.PublicKey(ctx).KEMPublicKey)

	enc, err := svc.Encapsulate(ctx, dto.EncapsulateRequest{PublicKey: kp.PublicKey})
	require.NoError(t, err)

	withKey, err := svc.Decapsulate(ctx, dto.DecapsulateRequest{SecretKey: kp.SecretKey, Ciphertext: enc.Ciphertext})
	require.NoError(t, err)
	require.Equal(t, enc.SharedSecret, withKey.SharedSecret)

	serverSide, err := svc.Decapsulate(ctx, dto.DecapsulateRequest{Ciphertext: enc.Ciphertext})
	require.NoError(t, err)
	require.Equal(t, enc.SharedSecret, serverSide.SharedSecret)
}

func TestKeyPair_Disabled(t *testing.T) {
	svc := newService(t, false)
	_, err := svc.KeyPair(context.Background())
	require.ErrorIs(t, err, ErrSecretKeyDisabled)
	require.NotEmpty(t, svc.PublicKey(context.Background()).KEMPublicKey)
}

func TestEncapsulate_Errors(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, true)

	_, err := svc.Encapsulate(ctx, dto.EncapsulateRequest{PublicKey: "%%%"})
	require.ErrorIs(t, err, ErrInvalidBase64)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "public_key", fe.Field)

	_, err = svc.Encapsulate(ctx, dto.EncapsulateRequest{PublicKey: b64([]byte("short"))})
	require.ErrorIs(t, err, kem.ErrInvalidKeyMaterial)
}

func TestDecapsulate_Errors(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, true)

	_, err := svc.Decapsulate(ctx, dto.DecapsulateRequest{Ciphertext: "not base64!"})
	require.ErrorIs(t, err, ErrInvalidBase64)

	_, err = svc.Decapsulate(ctx, dto.DecapsulateRequest{SecretKey: b64(make([]byte, 10)), Ciphertext: b64(make([]byte, kem.CiphertextSize))})
	require.ErrorIs(t, err, kem.ErrInvalidKeyMaterial)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "secret_key", fe.Field)

	_, err = svc.Decapsulate(ctx, dto.DecapsulateRequest{Ciphertext: b64(make([]byte, 12))})
	require.ErrorIs(t, err, kem.ErrInvalidKeyMaterial)

	// valid secret key, short ciphertext: the ciphertext is at fault
	kp, err := svc.KeyPair(ctx)
	require.NoError(t, err)
	_, err = svc.Decapsulate(ctx, dto.DecapsulateRequest{SecretKey: kp.SecretKey, Ciphertext: b64(make([]byte, 12))})
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "ciphertext", fe.Field)
}

func TestAEADRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, false)
	key, nonce := b64(make([]byte, 32)), b64(make([]byte, 12))

	enc, err := svc.Encrypt(ctx, dto.EncryptRequest{Key: key, Nonce: nonce, Plaintext: "hello"})
	require.NoError(t, err)
	require.Equal(t, "psIsUSKLkI9/Yv/Opqkvq+85v02T", enc.Ciphertext)

	dec, err := svc.Decrypt(ctx, dto.DecryptRequest{Key: key, Nonce: nonce, Ciphertext: enc.Ciphertext})
	require.NoError(t, err)
	require.Equal(t, "hello", dec.Plaintext)

	enc, err = svc.Encrypt(ctx, dto.EncryptRequest{Algorithm: aead.ChaCha20Poly1305, Key: key, Nonce: nonce, Plaintext: "hello", AssociatedData: "meta"})
	require.NoError(t, err)
	_, err = svc.Decrypt(ctx, dto.DecryptRequest{Algorithm: aead.ChaCha20Poly1305, Key: key, Nonce: nonce, Ciphertext: enc.Ciphertext})
	require.ErrorIs(t, err, aead.ErrTagVerification)
}

func TestAEAD_TextAssociatedData(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, false)
	key, nonce := b64(make([]byte, 32)), b64(make([]byte, 12))

	enc, err := svc.Encrypt(ctx, dto.EncryptRequest{Key: key, Nonce: nonce, Plaintext: "hello", AssociatedData: "meta"})
	require.NoError(t, err)
	require.Equal(t, "psIsUSIjhF7cArKlXTXcuLzAnudH", enc.Ciphertext)

	dec, err := svc.Decrypt(ctx, dto.DecryptRequest{Key: key, Nonce: nonce, Ciphertext: enc.Ciphertext, AssociatedData: "meta"})
	require.NoError(t, err)
	require.Equal(t, "hello", dec.Plaintext)

	// aad that is not valid base64 is still plain text
	enc, err = svc.Encrypt(ctx, dto.EncryptRequest{Key: key, Nonce: nonce, Plaintext: "hello", AssociatedData: "header-v1"})
	require.NoError(t, err)
	dec, err = svc.Decrypt(ctx, dto.DecryptRequest{Key: key, Nonce: nonce, Ciphertext: enc.Ciphertext, AssociatedData: "header-v1"})
	require.NoError(t, err)
	require.Equal(t, "hello", dec.Plaintext)

	_, err = svc.Decrypt(ctx, dto.DecryptRequest{Key: key, Nonce: nonce, Ciphertext: enc.Ciphertext, AssociatedData: "header-v2"})
	require.ErrorIs(t, err, aead.ErrTagVerification)
}

func TestAEAD_InputErrors(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, false)
	key := b64(make([]byte, 32))

	_, err := svc.Encrypt(ctx, dto.EncryptRequest{Key: key, Nonce: b64(make([]byte, 16)), Plaintext: "x"})
	require.ErrorIs(t, err, aead.ErrInputValidation)

	_, err = svc.Decrypt(ctx, dto.DecryptRequest{Key: key, Nonce: b64(make([]byte, 8)), Ciphertext: b64(make([]byte, 20))})
	require.ErrorIs(t, err, aead.ErrInputValidation)

	_, err = svc.Encrypt(ctx, dto.EncryptRequest{Key: "??", Nonce: b64(make([]byte, 12))})
	require.ErrorIs(t, err, ErrInvalidBase64)
}

func TestNewService_NilKeyPair(t *testing.T) {
	_, err := NewService(Deps{})
	require.Error(t, err)
}
