package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hubooks/reading-service/internal/http/middleware"
	"github.com/hubooks/reading-service/internal/http/response"
	"github.com/hubooks/reading-service/internal/observability"
	"github.com/hubooks/reading-service/internal/security"
	"github.com/hubooks/reading-service/internal/service"
)

type AuthHandler struct {
	auth service.AuthServiceInterface
}

func NewAuthHandler(auth service.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Name string `json:"name"`
	PIN  string `json:"pin"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		observability.Audit(r, "auth.login", "outcome", "rejected", "reason", "malformed_body")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	res, err := h.auth.Login(r.Context(), req.Name, req.PIN)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			observability.Audit(r, "auth.login", "outcome", "rejected", "reason", "invalid_input")
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		case errors.Is(err, service.ErrInvalidCredentials):
			observability.Audit(r, "auth.login", "outcome", "rejected", "reason", "invalid_credentials")
			response.Error(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials", nil)
		default:
			slog.ErrorContext(r.Context(), "login failed", "error", err.Error())
			observability.Audit(r, "auth.login", "outcome", "error")
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		}
		return
	}
	security.SetSessionCookie(w, res.Session.Token())
	observability.Audit(r, "auth.login", "outcome", "success", "reader_id", res.Reader.ID)
	response.JSON(w, r, http.StatusOK, res.Reader.Summary())
}

// Logout always clears the cookie. It answers 204 whatever state the
// presented session was in, and 500 when the revoke could not be stored.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := security.GetCookie(r, security.SessionCookieName)
	err := h.auth.Logout(r.Context(), token)
	security.ClearSessionCookie(w)
	if err != nil {
		slog.ErrorContext(r.Context(), "logout revoke failed", "error", err.Error())
		observability.Audit(r, "auth.logout", "outcome", "error")
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	observability.Audit(r, "auth.logout", "outcome", "success")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	reader, err := h.auth.CurrentReader(r.Context(), identity.ReaderID)
	if err != nil {
		if errors.Is(err, service.ErrReaderNotFound) {
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
			return
		}
		slog.ErrorContext(r.Context(), "load current reader failed", "error", err.Error())
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, reader.Summary())
}
