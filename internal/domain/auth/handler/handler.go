// Package handler exposes the auth HTTP endpoints.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/thequantifier/quantifier/internal/domain/auth/repository"
	"github.com/thequantifier/quantifier/internal/domain/auth/service"
	"github.com/thequantifier/quantifier/pkg/server"
)

// sessionCookie is the HTTP-only cookie carrying the session JWT.
const sessionCookie = "token"

// Profile is the safe user view returned to clients.
type Profile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	FullName      string    `json:"name"`
	PreferredName string    `json:"preferredName,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toProfile(u *repository.User) Profile {
	return Profile{
		ID:            u.ID.String(),
		Email:         u.Email,
		Username:      u.Username,
		FullName:      u.FullName,
		PreferredName: u.PreferredName,
		Phone:         u.Phone,
		Bio:           u.Bio,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// AuthHandler implements the auth endpoints.
type AuthHandler struct {
	svc          *service.AuthService
	cookieTTL    time.Duration
	secureCookie bool
}

// NewAuthHandler constructs a new handler. secureCookie should be false
// only for plain-HTTP local development.
func NewAuthHandler(svc *service.AuthService, cookieTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{svc: svc, cookieTTL: cookieTTL, secureCookie: secureCookie}
}

// Routes mounts the auth endpoints on a chi router.
func (h *AuthHandler) Routes(requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/me", h.Me)
		r.Put("/me", h.UpdateMe)
	})
	return r
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register handles POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		server.RespondError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	if req.Username == "" {
		req.Username = req.Email
	}

	result, err := h.svc.Register(r.Context(), service.RegisterParams{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		FullName: req.Name,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailTaken):
			server.RespondError(w, http.StatusBadRequest, "email already in use")
		case errors.Is(err, service.ErrPasswordTooShort):
			server.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			server.RespondError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	h.setSessionCookie(w, result.Token)
	server.RespondJSON(w, http.StatusCreated, map[string]any{"user": toProfile(result.User)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			server.RespondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		server.RespondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.setSessionCookie(w, result.Token)
	server.RespondJSON(w, http.StatusOK, map[string]any{"user": toProfile(result.User)})
}

// Logout handles POST /logout by expiring the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteNoneMode,
		Expires:  time.Unix(0, 0),
	})
	server.RespondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me handles GET /me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	server.RespondJSON(w, http.StatusOK, map[string]any{"user": toProfile(user)})
}

type updateMeRequest struct {
	Email         *string `json:"email"`
	Name          *string `json:"name"`
	PreferredName *string `json:"preferredName"`
	Phone         *string `json:"phone"`
	Bio           *string `json:"bio"`
}

// UpdateMe handles PUT /me with partial profile updates.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req updateMeRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.svc.UpdateProfile(r.Context(), user.ID, repository.ProfileUpdate{
		Email:         req.Email,
		FullName:      req.Name,
		PreferredName: req.PreferredName,
		Phone:         req.Phone,
		Bio:           req.Bio,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			server.RespondError(w, http.StatusBadRequest, "email already in use")
			return
		}
		server.RespondError(w, http.StatusInternalServerError, "profile update failed")
		return
	}

	server.RespondJSON(w, http.StatusOK, map[string]any{"user": toProfile(updated)})
}

// setSessionCookie mirrors the login cookie flags everywhere the cookie is
// written so browsers treat them as the same cookie.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   int(h.cookieTTL.Seconds()),
	})
}
