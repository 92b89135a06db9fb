package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/foodie-be/internal/auth"
	"github.com/hongminglow/foodie-be/internal/guard"
	"github.com/hongminglow/foodie-be/internal/http/respond"
	"github.com/hongminglow/foodie-be/internal/identity"
	"github.com/hongminglow/foodie-be/internal/models/dto"
	"github.com/hongminglow/foodie-be/internal/session"
)

// credentialsMessage is shown for every failed sign-in or sign-up.
const credentialsMessage = "Please provide valid email & password!"

// AuthHandler owns account endpoints backed by the identity service.
type AuthHandler struct {
	accounts     *identity.Service
	tokens       *auth.TokenManager
	cookieSecure bool
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(accounts *identity.Service, tokens *auth.TokenManager, cookieSecure bool) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens, cookieSecure: cookieSecure}
}

// Routes attaches auth routes under /api/auth.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Post("/forget-password", h.handleForgetPassword)
	r.Post("/reset-password", h.handleResetPassword)
	r.Group(func(r chi.Router) {
		r.Use(guard.API(guard.Authenticated))
		r.Get("/me", h.handleMe)
		r.Patch("/profile", h.handleProfile)
	})
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := h.accounts.CreateAccount(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			respond.Error(w, http.StatusBadRequest, credentialsMessage)
			return
		}
		respond.Internal(w, r, "create account", err, "failed to create account")
		return
	}
	token, err := h.tokens.Generate(created)
	if err != nil {
		respond.Internal(w, r, "generate token", err, "failed to generate token")
		return
	}
	h.setSessionCookie(w, token, h.tokens.TTL())
	respond.JSON(w, http.StatusCreated, "Registration successful", dto.LoginResponse{Token: token, Identity: created})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	signedIn, err := h.accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			respond.Error(w, http.StatusUnauthorized, credentialsMessage)
			return
		}
		respond.Internal(w, r, "sign in", err, "failed to sign in")
		return
	}
	token, err := h.tokens.Generate(signedIn)
	if err != nil {
		respond.Internal(w, r, "generate token", err, "failed to generate token")
		return
	}
	h.setSessionCookie(w, token, h.tokens.TTL())
	respond.JSON(w, http.StatusOK, "Login successful", dto.LoginResponse{Token: token, Identity: signedIn})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.setSessionCookie(w, "", -1)
	respond.JSON(w, http.StatusOK, "Signed out", nil)
}

func (h *AuthHandler) handleForgetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.accounts.SendPasswordReset(r.Context(), req.Email); err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			respond.Error(w, http.StatusBadRequest, "Please provide a valid email address")
			return
		}
		respond.Internal(w, r, "send password reset", err, "failed to send reset email")
		return
	}
	respond.JSON(w, http.StatusOK, "If the address is registered, a reset link is on its way", nil)
}

func (h *AuthHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.accounts.ResetPassword(r.Context(), req.Token, req.Password)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusOK, "Password updated", nil)
	case errors.Is(err, identity.ErrInvalidCredentials):
		respond.Error(w, http.StatusBadRequest, credentialsMessage)
	case errors.Is(err, identity.ErrInvalidResetToken):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		respond.Internal(w, r, "reset password", err, "failed to reset password")
	}
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "ok", mustIdentity(r))
}

func (h *AuthHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	updated, err := h.accounts.UpdateProfile(r.Context(), mustIdentity(r).ID, req.Name, req.PhotoURL)
	if err != nil {
		storeError(w, r, "update profile", err, "failed to update profile")
		return
	}
	respond.JSON(w, http.StatusOK, "Profile updated", updated)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		cookie.MaxAge = -1
	} else {
		cookie.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, cookie)
}
