package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rewardhub/backend/internal/auth"
	"github.com/rewardhub/backend/internal/ledger"
	"github.com/rewardhub/backend/internal/middleware"
	"github.com/rewardhub/backend/internal/models"
	"github.com/rewardhub/backend/internal/services"
)

// AccessTokenHeader carries the session token issued on login.
const AccessTokenHeader = "X-Access-Token"

// UserLookup resolves the current user for /users/me.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	FirstUser(ctx context.Context) (*models.User, error)
}

// AuthHandler serves /api/auth endpoints and /api/users/me.
type AuthHandler struct {
	Auth      auth.Service
	Users     UserLookup
	Validator *services.Validator
	Logger    *slog.Logger
}

// --- POST /api/auth/register ---

// bcrypt only hashes the first 72 bytes of a password.
const maxPasswordBytes = 72

type registerRequest struct {
	Email       string  `json:"email" validate:"required,email,max=254"`
	Password    string  `json:"password" validate:"required,min=6,max=72"`
	Name        string  `json:"name" validate:"required,max=100"`
	Phone       *string `json:"phone" validate:"omitempty,min=7,max=20"`
	DateOfBirth *string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Location    *string `json:"location" validate:"omitempty,max=100"`
	DeviceInfo  *string `json:"deviceInfo" validate:"omitempty,max=500"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidation(w, err)
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeValidation(w, err)
		return
	}
	if len(req.Password) > maxPasswordBytes {
		writeError(w, http.StatusBadRequest, KindValidation, "password must be at most 72 bytes")
		return
	}

	u, err := h.Auth.Register(r.Context(), auth.Registration{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
		Location:    req.Location,
		DeviceInfo:  req.DeviceInfo,
	})
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			writeError(w, http.StatusBadRequest, KindConflict, "Email already registered")
			return
		}
		if errors.Is(err, services.ErrValidation) {
			writeValidation(w, err)
			return
		}
		h.Logger.Error("register failed", "error", err)
		writeError(w, http.StatusInternalServerError, KindInternal, "registration failed")
		return
	}

	h.Logger.Info("user registered", "user_id", u.ID)
	writeJSON(w, http.StatusCreated, u)
}

// --- POST /api/auth/login ---

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/auth/login. The session token is returned in the
// X-Access-Token header; the body is the user.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidation(w, err)
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeValidation(w, err)
		return
	}

	u, token, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, KindUnauthorized, "Invalid credentials")
			return
		}
		h.Logger.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, KindInternal, "login failed")
		return
	}

	w.Header().Set(AccessTokenHeader, token)
	writeJSON(w, http.StatusOK, u)
}

// --- GET /api/users/me ---

// Me returns the bearer identity when a token is presented. Without one it
// falls back to the first registered user, the placeholder session the
// frontend relies on.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if middleware.TokenRejected(r.Context()) {
		writeError(w, http.StatusUnauthorized, KindUnauthorized, "Not authenticated")
		return
	}

	var (
		u   *models.User
		err error
	)
	if id, ok := middleware.UserIDFromCtx(r.Context()); ok {
		u, err = h.Users.GetUser(r.Context(), id)
	} else {
		u, err = h.Users.FirstUser(r.Context())
	}
	if err != nil {
		if errors.Is(err, ledger.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, KindUnauthorized, "Not authenticated")
			return
		}
		h.Logger.Error("resolve current user", "error", err)
		writeError(w, http.StatusInternalServerError, KindInternal, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
