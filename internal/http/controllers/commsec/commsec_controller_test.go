package commsec

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	svc "github.com/dropDatabas3/tidasone/internal/http/services/commsec"
	"github.com/dropDatabas3/tidasone/internal/security/aead"
	"github.com/dropDatabas3/tidasone/internal/security/kem"
)

func TestMapCommsecError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		detail string
	}{
		{"disabled", svc.ErrSecretKeyDisabled, http.StatusNotFound, "ROUTE_NOT_FOUND", ""},
		{"base64", &svc.FieldError{Field: "nonce", Err: fmt.Errorf("%w: illegal data", svc.ErrInvalidBase64)}, http.StatusBadRequest, "INVALID_BASE64", "nonce"},
		{"key material", &svc.FieldError{Field: "public_key", Err: kem.ErrInvalidKeyMaterial}, http.StatusBadRequest, "INVALID_KEY_MATERIAL", "public_key"},
		{"aead input", fmt.Errorf("%w: nonce must be 12 bytes", aead.ErrInputValidation), http.StatusBadRequest, "INVALID_CIPHER_INPUT", "nonce must be 12 bytes"},
		{"tag", aead.ErrTagVerification, http.StatusInternalServerError, "DECRYPTION_FAILED", ""},
		{"utf8", aead.ErrEncoding, http.StatusInternalServerError, "INVALID_UTF8", ""},
		{"other", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapCommsecError(tt.err)
			require.Equal(t, tt.status, got.HTTPStatus)
			require.Equal(t, tt.code, got.Code)
			require.Equal(t, tt.detail, got.Detail)
		})
	}
}
