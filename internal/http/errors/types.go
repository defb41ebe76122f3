package errors

import (
	"fmt"
	"net/http"
)

// AppError es el error estándar de la capa HTTP.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // causa original, sólo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New crea un AppError.
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// Wrap crea un AppError envolviendo err.
func Wrap(err error, status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// WithDetail devuelve una COPIA con detail; los errores predefinidos no se mutan.
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithCause devuelve una COPIA con la causa original.
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// =================================================================================
// ERRORES PREDEFINIDOS
// =================================================================================

// 400
var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "La solicitud contiene sintaxis inválida o parámetros faltantes.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "El cuerpo de la solicitud no es un JSON válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingFields = &AppError{
		Code:       "MISSING_FIELDS",
		Message:    "Faltan campos requeridos en la solicitud.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrBodyTooLarge = &AppError{
		Code:       "BODY_TOO_LARGE",
		Message:    "El cuerpo de la solicitud excede el tamaño máximo permitido.",
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}

	ErrUnknownProvider = &AppError{
		Code:       "UNKNOWN_PROVIDER",
		Message:    "Unknown provider",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingCode = &AppError{
		Code:       "MISSING_CODE",
		Message:    "Missing authorization code",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidState = &AppError{
		Code:       "INVALID_STATE",
		Message:    "Invalid or expired state",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidBase64 = &AppError{
		Code:       "INVALID_BASE64",
		Message:    "invalid base64",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidKeyMaterial = &AppError{
		Code:       "INVALID_KEY_MATERIAL",
		Message:    "invalid key material",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidCipherInput = &AppError{
		Code:       "INVALID_CIPHER_INPUT",
		Message:    "invalid cipher input",
		HTTPStatus: http.StatusBadRequest,
	}
)

// 401
var (
	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "No autorizado. Se requiere autenticación.",
		HTTPStatus: http.StatusUnauthorized,
	}
)

// 404 / 405
var (
	ErrRouteNotFound = &AppError{
		Code:       "ROUTE_NOT_FOUND",
		Message:    "La ruta solicitada no existe.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "El método HTTP no está permitido para este recurso.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}
)

// 429
var (
	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Ha excedido el límite de solicitudes. Intente más tarde.",
		HTTPStatus: http.StatusTooManyRequests,
	}
)

// 500+
var (
	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Ocurrió un error interno en el servidor.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrTokenExchangeFailed = &AppError{
		Code:       "TOKEN_EXCHANGE_FAILED",
		Message:    "Token exchange failed",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrTokenMintFailed = &AppError{
		Code:       "TOKEN_MINT_FAILED",
		Message:    "Failed to create token",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrDecryptionFailed = &AppError{
		Code:       "DECRYPTION_FAILED",
		Message:    "decryption failed",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrInvalidUTF8 = &AppError{
		Code:       "INVALID_UTF8",
		Message:    "invalid utf-8",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrProfileFetchFailed = &AppError{
		Code:       "PROFILE_FETCH_FAILED",
		Message:    "Failed to fetch user profile",
		HTTPStatus: http.StatusBadGateway,
	}

	ErrProfileDecodeFailed = &AppError{
		Code:       "PROFILE_DECODE_FAILED",
		Message:    "Failed to parse user profile",
		HTTPStatus: http.StatusBadGateway,
	}
)
