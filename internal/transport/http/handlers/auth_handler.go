package handlers

import (
	"errors"
	"net/http"
	"time"

	authsvc "github.com/ivankudzin/vidshare/internal/services/auth"
	userssvc "github.com/ivankudzin/vidshare/internal/services/users"
	"github.com/ivankudzin/vidshare/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/vidshare/internal/transport/http/errors"
)

// AuthHandler composes credential verification (users service) with token
// issuance (auth service); neither service knows about the other.
type AuthHandler struct {
	users *userssvc.Service
	auth  *authsvc.Service
}

func NewAuthHandler(users *userssvc.Service, auth *authsvc.Service) *AuthHandler {
	return &AuthHandler{users: users, auth: auth}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.users == nil || h.auth == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		writeRequestErrors(w, err)
		return
	}

	profile, err := h.users.VerifyCredentials(r.Context(), req.Identifier, req.Password)
	if err != nil {
		handleLoginError(w, err)
		return
	}

	pair, err := h.auth.Issue(r.Context(), profile.ID)
	if err != nil {
		handleTokenError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AuthTokensResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresInSec: expiresInSec(pair.AccessExpires),
		User:         userResponse(profile),
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		writeRequestErrors(w, err)
		return
	}

	pair, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleTokenError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.RefreshTokensResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresInSec: expiresInSec(pair.AccessExpires),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.auth.Logout(r.Context(), identity.UserID); err != nil {
		handleTokenError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LogoutResponse{OK: true})
}

func handleLoginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, userssvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "identifier and password are required")
	case errors.Is(err, userssvc.ErrInvalidCredentials):
		writeUnauthorized(w, "INVALID_CREDENTIALS", "invalid identifier or password")
	default:
		writeInternal(w, "INTERNAL_ERROR", "login failed")
	}
}

func handleTokenError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authsvc.ErrInvalidInput):
		writeBadRequest(w, "INVALID_REQUEST", "request validation failed")
	case errors.Is(err, authsvc.ErrUnauthorized):
		writeUnauthorized(w, "UNAUTHORIZED", "authentication failed")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func expiresInSec(expires time.Time) int64 {
	sec := int64(time.Until(expires).Seconds())
	if sec < 0 {
		return 0
	}
	return sec
}
