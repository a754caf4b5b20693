package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rewardhub/backend/internal/ledger"
	"github.com/rewardhub/backend/internal/models"
	"github.com/rewardhub/backend/internal/services"
)

// UserUpdater is the subset of the ledger needed for profile updates.
type UserUpdater interface {
	UpdateUserPaymentInfo(ctx context.Context, id int64, info models.PaymentInfo) (*models.User, error)
	UpdateUserPreferences(ctx context.Context, id int64, prefs models.Preferences) (*models.User, error)
}

// UserHandler serves /api/users/{id}/... endpoints.
type UserHandler struct {
	Users     UserUpdater
	Validator *services.Validator
	Logger    *slog.Logger
}

// UpdatePaymentInfo handles PATCH /api/users/{id}/payment-info.
func (h *UserHandler) UpdatePaymentInfo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeValidation(w, err)
		return
	}
	var info models.PaymentInfo
	if err := decodeJSON(w, r, &info); err != nil {
		writeValidation(w, err)
		return
	}
	if err := h.Validator.Struct(info); err != nil {
		writeValidation(w, err)
		return
	}

	u, err := h.Users.UpdateUserPaymentInfo(r.Context(), id, info)
	if err != nil {
		h.writeUpdateError(w, "update payment info", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdatePreferences handles PATCH /api/users/{id}/preferences.
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeValidation(w, err)
		return
	}
	var prefs models.Preferences
	if err := decodeJSON(w, r, &prefs); err != nil {
		writeValidation(w, err)
		return
	}
	if err := h.Validator.Struct(prefs); err != nil {
		writeValidation(w, err)
		return
	}

	u, err := h.Users.UpdateUserPreferences(r.Context(), id, prefs)
	if err != nil {
		h.writeUpdateError(w, "update preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) writeUpdateError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ledger.ErrUserNotFound) {
		writeError(w, http.StatusBadRequest, KindNotFound, "User not found")
		return
	}
	h.Logger.Error(op, "error", err)
	writeError(w, http.StatusInternalServerError, KindInternal, "internal error")
}
