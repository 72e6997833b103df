package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stayvista/stayvista-api/internal/domain"
	mw "github.com/stayvista/stayvista-api/internal/http/middleware"
	"github.com/stayvista/stayvista-api/internal/http/response"
	"github.com/stayvista/stayvista-api/internal/service"
	"github.com/stayvista/stayvista-api/pkg/logger"
)

type AuthHandler struct {
	Auth       service.AuthService
	CookieName string
	TokenTTL   time.Duration
}

func NewAuthHandler(auth service.AuthService, cookieName string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{Auth: auth, CookieName: cookieName, TokenTTL: tokenTTL}
}

func (h *AuthHandler) Routes(gate func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Group(func(r chi.Router) {
		r.Use(gate)
		r.Get("/me", h.me)
		r.Get("/validate-token", h.validateToken)
	})
	return r
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var in domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json body")
		return
	}

	user, token, err := h.Auth.Register(r.Context(), &in)
	if err != nil {
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			response.WriteValidation(w, vErr)
		case errors.Is(err, domain.ErrEmailExists):
			response.WriteError(w, http.StatusBadRequest, "user already exists", response.CodeEmailExists)
		default:
			logger.ErrorContext(r.Context(), "registration failed", "error", err)
			response.InternalError(w, "something went wrong")
		}
		return
	}

	h.setAuthCookie(w, r, token)
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "user registered",
		"user":    user.ToUserInfo(),
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json body")
		return
	}

	user, token, err := h.Auth.Login(r.Context(), &in)
	if err != nil {
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			response.WriteValidation(w, vErr)
		case errors.Is(err, domain.ErrInvalidCredentials):
			response.Unauthorized(w, "invalid credentials")
		default:
			logger.ErrorContext(r.Context(), "login failed", "error", err)
			response.InternalError(w, "something went wrong")
		}
		return
	}

	h.setAuthCookie(w, r, token)
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"user": user.ToUserInfo(),
	})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   -1,
	})
	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Auth.GetUser(r.Context(), mw.OwnerID(r))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "user not found")
			return
		}
		logger.ErrorContext(r.Context(), "failed to fetch user", "error", err)
		response.InternalError(w, "something went wrong")
		return
	}
	response.WriteJSON(w, http.StatusOK, user.ToUserInfo())
}

func (h *AuthHandler) validateToken(w http.ResponseWriter, r *http.Request) {
	// the gate already verified the cookie; just echo the resolved identity
	response.WriteJSON(w, http.StatusOK, map[string]string{"userId": mw.OwnerID(r)})
}

func (h *AuthHandler) setAuthCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(h.TokenTTL / time.Second),
	})
}
