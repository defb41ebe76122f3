// Package commsec implements the KEM and AEAD operations behind /commsec.
package commsec

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	dto "github.com/dropDatabas3/tidasone/internal/http/dto/commsec"
	"github.com/dropDatabas3/tidasone/internal/metrics"
	"github.com/dropDatabas3/tidasone/internal/observability/logger"
	"github.com/dropDatabas3/tidasone/internal/security/aead"
	"github.com/dropDatabas3/tidasone/internal/security/kem"
)

// Service errors
var (
	ErrInvalidBase64     = errors.New("invalid base64")
	ErrSecretKeyDisabled = errors.New("secret key exposure disabled")
)

// FieldError names the request field that failed to decode.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }
func (e *FieldError) Unwrap() error { return e.Err }

// Service exposes the stateless KEM/AEAD facility.
type Service interface {
	KeyPair(ctx context.Context) (*dto.KeyPairResponse, error)
	PublicKey(ctx context.Context) *dto.PublicKeyResponse
	Encapsulate(ctx context.Context, req dto.EncapsulateRequest) (*dto.EncapsulateResponse, error)
	Decapsulate(ctx context.Context, req dto.DecapsulateRequest) (*dto.DecapsulateResponse, error)
	Encrypt(ctx context.Context, req dto.EncryptRequest) (*dto.EncryptResponse, error)
	Decrypt(ctx context.Context, req dto.DecryptRequest) (*dto.DecryptResponse, error)
}

type Deps struct {
	// KeyPair is the process keypair generated at startup.
	KeyPair *kem.KeyPair
	// ExposeSecretKey allows KeyPair to return the secret key.
	ExposeSecretKey bool
	Metrics         *metrics.Metrics
}

type service struct {
	kp      *kem.KeyPair
	expose  bool
	metrics *metrics.Metrics
}

// NewService creates the commsec service. The keypair is shared read-only.
func NewService(d Deps) (Service, error) {
	if d.KeyPair == nil {
		return nil, errors.New("commsec: nil keypair")
	}
	return &service{kp: d.KeyPair, expose: d.ExposeSecretKey, metrics: d.Metrics}, nil
}

func (s *service) KeyPair(ctx context.Context) (*dto.KeyPairResponse, error) {
	if !s.expose {
		return nil, ErrSecretKeyDisabled
	}
	s.metrics.Commsec("keypair", nil)
	return &dto.KeyPairResponse{
		PublicKey: encode(s.kp.PublicKey),
		SecretKey: encode(s.kp.SecretKey),
	}, nil
}

func (s *service) PublicKey(ctx context.Context) *dto.PublicKeyResponse {
	return &dto.PublicKeyResponse{Algorithm: kem.Algorithm, KEMPublicKey: encode(s.kp.PublicKey)}
}

func (s *service) Encapsulate(ctx context.Context, req dto.EncapsulateRequest) (res *dto.EncapsulateResponse, err error) {
	defer func() { s.metrics.Commsec("encapsulate", err) }()

	pk, err := decode("public_key", req.PublicKey)
	if err != nil {
		return nil, err
	}
	enc, err := kem.Encapsulate(pk)
	if err != nil {
		return nil, &FieldError{Field: "public_key", Err: err}
	}
	return &dto.EncapsulateResponse{
		Ciphertext:   encode(enc.Ciphertext),
		SharedSecret: encode(enc.SharedSecret),
	}, nil
}

func (s *service) Decapsulate(ctx context.Context, req dto.DecapsulateRequest) (res *dto.DecapsulateResponse, err error) {
	defer func() { s.metrics.Commsec("decapsulate", err) }()

	ct, err := decode("ciphertext", req.Ciphertext)
	if err != nil {
		return nil, err
	}

	var ss []byte
	if strings.TrimSpace(req.SecretKey) == "" {
		ss, err = s.kp.Decapsulate(ct)
		if err != nil {
			return nil, &FieldError{Field: "ciphertext", Err: err}
		}
	} else {
		sk, derr := decode("secret_key", req.SecretKey)
		if derr != nil {
			return nil, derr
		}
		kp, perr := kem.ParseSecretKey(sk)
		if perr != nil {
			return nil, &FieldError{Field: "secret_key", Err: perr}
		}
		ss, err = kp.Decapsulate(ct)
		if err != nil {
			return nil, &FieldError{Field: "ciphertext", Err: err}
		}
	}
	return &dto.DecapsulateResponse{SharedSecret: encode(ss)}, nil
}

func (s *service) Encrypt(ctx context.Context, req dto.EncryptRequest) (res *dto.EncryptResponse, err error) {
	defer func() { s.metrics.Commsec("aead_encrypt", err) }()

	key, nonce, aad, err := decodeAEAD(req.Key, req.Nonce, req.AssociatedData)
	if err != nil {
		return nil, err
	}
	ct, err := aead.Encrypt(req.Algorithm, key, nonce, []byte(req.Plaintext), aad)
	if err != nil {
		return nil, err
	}
	return &dto.EncryptResponse{Ciphertext: encode(ct)}, nil
}

func (s *service) Decrypt(ctx context.Context, req dto.DecryptRequest) (res *dto.DecryptResponse, err error) {
	defer func() {
		s.metrics.Commsec("aead_decrypt", err)
		if errors.Is(err, aead.ErrTagVerification) {
			logger.From(ctx).Debug("aead tag verification failed", logger.Algorithm(req.Algorithm))
		}
	}()

	key, nonce, aad, err := decodeAEAD(req.Key, req.Nonce, req.AssociatedData)
	if err != nil {
		return nil, err
	}
	ct, err := decode("ciphertext", req.Ciphertext)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Decrypt(req.Algorithm, key, nonce, ct, aad)
	if err != nil {
		return nil, err
	}
	return &dto.DecryptResponse{Plaintext: pt}, nil
}

// decodeAEAD decodes key and nonce. The associated data travels as plain
// text and is bound as its UTF-8 bytes.
func decodeAEAD(key, nonce, aad string) (k, n, a []byte, err error) {
	if k, err = decode("key", key); err != nil {
		return
	}
	if n, err = decode("nonce", nonce); err != nil {
		return
	}
	if aad != "" {
		a = []byte(aad)
	}
	return
}

func decode(field, v string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(v))
	if err != nil {
		return nil, &FieldError{Field: field, Err: fmt.Errorf("%w: %v", ErrInvalidBase64, err)}
	}
	return b, nil
}

func encode(b []byte) string { return base64.StdEncoding.EncodeToString(b) }
