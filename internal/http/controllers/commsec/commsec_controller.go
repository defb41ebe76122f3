// Package commsec contiene los controllers de /commsec.
package commsec

import (
	"errors"
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/tidasone/internal/http/dto/commsec"
	httperrors "github.com/dropDatabas3/tidasone/internal/http/errors"
	"github.com/dropDatabas3/tidasone/internal/http/helpers"
	svc "github.com/dropDatabas3/tidasone/internal/http/services/commsec"
	"github.com/dropDatabas3/tidasone/internal/observability/logger"
	"github.com/dropDatabas3/tidasone/internal/security/aead"
	"github.com/dropDatabas3/tidasone/internal/security/kem"
)

// CommsecController maneja las rutas KEM/AEAD.
type CommsecController struct {
	service svc.Service
}

func NewCommsecController(service svc.Service) *CommsecController {
	return &CommsecController{service: service}
}

// KeyPair maneja POST /commsec/keypair
func (c *CommsecController) KeyPair(w http.ResponseWriter, r *http.Request) {
	res, err := c.service.KeyPair(r.Context())
	if err != nil {
		c.fail(w, r, "keypair", err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// PublicKey maneja GET /commsec/keys/pq
func (c *CommsecController) PublicKey(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, c.service.PublicKey(r.Context()))
}

// Encapsulate maneja POST /commsec/encapsulate
func (c *CommsecController) Encapsulate(w http.ResponseWriter, r *http.Request) {
	var req dto.EncapsulateRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	res, err := c.service.Encapsulate(r.Context(), req)
	if err != nil {
		c.fail(w, r, "encapsulate", err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// Decapsulate maneja POST /commsec/decapsulate
func (c *CommsecController) Decapsulate(w http.ResponseWriter, r *http.Request) {
	var req dto.DecapsulateRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	res, err := c.service.Decapsulate(r.Context(), req)
	if err != nil {
		c.fail(w, r, "decapsulate", err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// Encrypt maneja POST /commsec/aead/encrypt
func (c *CommsecController) Encrypt(w http.ResponseWriter, r *http.Request) {
	var req dto.EncryptRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	res, err := c.service.Encrypt(r.Context(), req)
	if err != nil {
		c.fail(w, r, "aead_encrypt", err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// Decrypt maneja POST /commsec/aead/decrypt
func (c *CommsecController) Decrypt(w http.ResponseWriter, r *http.Request) {
	var req dto.DecryptRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	res, err := c.service.Decrypt(r.Context(), req)
	if err != nil {
		c.fail(w, r, "aead_decrypt", err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

func (c *CommsecController) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	appErr := mapCommsecError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.From(r.Context()).Warn("commsec operation failed", logger.Layer("controller"), logger.Op(op), logger.Err(err))
	}
	httperrors.WriteError(w, appErr)
}

func mapCommsecError(err error) *httperrors.AppError {
	var fe *svc.FieldError
	field := ""
	if errors.As(err, &fe) {
		field = fe.Field
	}

	switch {
	case errors.Is(err, svc.ErrSecretKeyDisabled):
		return httperrors.ErrRouteNotFound
	case errors.Is(err, svc.ErrInvalidBase64):
		return httperrors.ErrInvalidBase64.WithDetail(field).WithCause(err)
	case errors.Is(err, kem.ErrInvalidKeyMaterial):
		return httperrors.ErrInvalidKeyMaterial.WithDetail(field).WithCause(err)
	case errors.Is(err, aead.ErrInputValidation):
		return httperrors.ErrInvalidCipherInput.WithDetail(strings.TrimPrefix(err.Error(), "aead: invalid input: ")).WithCause(err)
	case errors.Is(err, aead.ErrTagVerification):
		return httperrors.ErrDecryptionFailed.WithCause(err)
	case errors.Is(err, aead.ErrEncoding):
		return httperrors.ErrInvalidUTF8.WithCause(err)
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}
