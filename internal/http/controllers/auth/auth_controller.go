// Package auth contiene los controllers del login OAuth.
package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/tidasone/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/tidasone/internal/http/errors"
	"github.com/dropDatabas3/tidasone/internal/http/helpers"
	"github.com/dropDatabas3/tidasone/internal/http/middlewares"
	"github.com/dropDatabas3/tidasone/internal/http/providers"
	svc "github.com/dropDatabas3/tidasone/internal/http/services/social"
	"github.com/dropDatabas3/tidasone/internal/observability/logger"
)

// AuthController maneja /auth/*.
type AuthController struct {
	services  svc.Services
	providers *providers.Registry
}

func NewAuthController(services svc.Services, reg *providers.Registry) *AuthController {
	return &AuthController{services: services, providers: reg}
}

// Login maneja GET /auth/login/{provider}: 303 al authorize del proveedor.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")

	res, err := c.services.Start.Start(ctx, provider)
	if err != nil {
		httperrors.WriteError(w, mapSocialError(err))
		return
	}

	logger.From(ctx).Debug("redirect to provider", logger.Layer("controller"), logger.Provider(provider))
	http.Redirect(w, r, res.RedirectURL, http.StatusSeeOther)
}

// Callback maneja GET /auth/callback/{provider}?code=&state=
func (c *AuthController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	res, err := c.services.Callback.Callback(ctx, svc.CallbackRequest{
		Provider: chi.URLParam(r, "provider"),
		Code:     q.Get("code"),
		State:    q.Get("state"),
	})
	if err != nil {
		appErr := mapSocialError(err)
		// el proveedor vuelve con ?error=access_denied cuando el usuario cancela
		if errors.Is(err, svc.ErrMissingCode) {
			if e := strings.TrimSpace(q.Get("error")); e != "" {
				appErr = appErr.WithDetail("provider error: " + e)
			}
		}
		httperrors.WriteError(w, appErr)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.TokenResponse{Token: res.Token})
}

// Me maneja GET /auth/me (detrás de RequireAuth).
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middlewares.GetClaims(r.Context())
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.MeResponse{
		Sub:      claims.Subject,
		Exp:      claims.ExpiresAt,
		Provider: claims.Provider,
	})
}

// Providers maneja GET /auth/providers.
func (c *AuthController) Providers(w http.ResponseWriter, r *http.Request) {
	names := c.providers.Names()
	if names == nil {
		names = []string{}
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ProvidersResponse{Providers: names})
}

func mapSocialError(err error) *httperrors.AppError {
	var se *providers.StatusError
	switch {
	case errors.Is(err, svc.ErrUnknownProvider):
		return httperrors.ErrUnknownProvider
	case errors.Is(err, svc.ErrMissingCode):
		return httperrors.ErrMissingCode
	case errors.Is(err, svc.ErrInvalidState):
		return httperrors.ErrInvalidState
	case errors.Is(err, svc.ErrUpstreamExchange):
		return httperrors.ErrTokenExchangeFailed.WithCause(err)
	case errors.As(err, &se):
		return httperrors.ErrProfileFetchFailed.WithDetail("Userinfo request failed: " + strconv.Itoa(se.Status)).WithCause(err)
	case errors.Is(err, svc.ErrProfileDecode):
		return httperrors.ErrProfileDecodeFailed.WithCause(err)
	case errors.Is(err, svc.ErrUpstreamProfile):
		return httperrors.ErrProfileFetchFailed.WithCause(err)
	case errors.Is(err, svc.ErrTokenMint):
		return httperrors.ErrTokenMintFailed.WithCause(err)
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}
