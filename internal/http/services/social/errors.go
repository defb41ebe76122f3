package social

import (
	"errors"

	"github.com/dropDatabas3/tidasone/internal/http/providers"
)

// Service errors
var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrMissingCode     = errors.New("code is required")
	ErrInvalidState    = errors.New("state missing, unknown or expired")
	ErrTokenMint       = errors.New("token mint failed")

	// Errores del proveedor, re-exportados para que el controller no
	// dependa del paquete providers.
	ErrUpstreamExchange = providers.ErrExchange
	ErrUpstreamProfile  = providers.ErrProfile
	ErrProfileDecode    = providers.ErrProfileDecode
)
