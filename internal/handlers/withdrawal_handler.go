package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rewardhub/backend/internal/ledger"
	"github.com/rewardhub/backend/internal/models"
	"github.com/rewardhub/backend/internal/services"
)

// WithdrawalStore is the subset of the ledger needed by the withdrawal handler.
type WithdrawalStore interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	PlaceWithdrawal(ctx context.Context, in models.NewWithdrawal) (*models.Withdrawal, *models.User, error)
	GetWithdrawals(ctx context.Context, userID int64) ([]*models.Withdrawal, error)
	UpdateWithdrawalStatus(ctx context.Context, id int64, status string) (*models.Withdrawal, error)
}

type PayoutQuoter interface {
	Quote(points int, currency string) (services.Quote, error)
}

type WithdrawalRecorder interface {
	WithdrawalCreated(method string, points int)
}

// WithdrawalLimits bounds a single withdrawal request, in points.
type WithdrawalLimits struct {
	Min int
	Max int
}

// WithdrawalHandler serves /api/withdrawals and the admin status endpoint.
type WithdrawalHandler struct {
	Withdrawals WithdrawalStore
	Quoter      PayoutQuoter
	Metrics     WithdrawalRecorder
	Limits      WithdrawalLimits
	Validator   *services.Validator
	Logger      *slog.Logger
}

// --- POST /api/withdrawals ---

type createWithdrawalRequest struct {
	UserID         int64  `json:"userId" validate:"required,gt=0"`
	Amount         int    `json:"amount" validate:"required,gt=0"`
	Method         string `json:"method" validate:"required,oneof=upi bank paypal"`
	PaymentDetails string `json:"paymentDetails" validate:"required,max=200"`
}

// paymentDetailRules checks the destination against the chosen method.
var paymentDetailRules = map[string]string{
	models.PayoutMethodUPI:    "contains=@",
	models.PayoutMethodBank:   "min=6",
	models.PayoutMethodPayPal: "email",
}

// CreateWithdrawal handles POST /api/withdrawals.
// Validate -> user exists -> limits -> quote -> atomic check/record/debit -> 201.
func (h *WithdrawalHandler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req createWithdrawalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidation(w, err)
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeValidation(w, err)
		return
	}
	if err := h.Validator.Var("paymentDetails", req.PaymentDetails, paymentDetailRules[req.Method]); err != nil {
		writeValidation(w, err)
		return
	}
	if _, err := h.Withdrawals.GetUser(r.Context(), req.UserID); err != nil {
		if errors.Is(err, ledger.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, KindNotFound, "User not found")
			return
		}
		h.Logger.Error("lookup user", "error", err)
		writeError(w, http.StatusInternalServerError, KindInternal, "internal error")
		return
	}
	if h.Limits.Min > 0 && req.Amount < h.Limits.Min {
		writeError(w, http.StatusBadRequest, KindValidation, fmt.Sprintf("Minimum withdrawal is %d points", h.Limits.Min))
		return
	}
	if h.Limits.Max > 0 && req.Amount > h.Limits.Max {
		writeError(w, http.StatusBadRequest, KindValidation, fmt.Sprintf("Maximum withdrawal is %d points", h.Limits.Max))
		return
	}

	quote, err := h.Quoter.Quote(req.Amount, "INR")
	if err != nil {
		h.Logger.Error("quote withdrawal", "error", err)
		writeError(w, http.StatusInternalServerError, KindInternal, "internal error")
		return
	}

	wd, u, err := h.Withdrawals.PlaceWithdrawal(r.Context(), models.NewWithdrawal{
		UserID:         req.UserID,
		Amount:         req.Amount,
		Method:         req.Method,
		PaymentDetails: req.PaymentDetails,
		PayoutINR:      quote.Net,
		FeeINR:         quote.Fee,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrUserNotFound):
			writeError(w, http.StatusNotFound, KindNotFound, "User not found")
		case errors.Is(err, ledger.ErrInsufficientPoints):
			writeError(w, http.StatusBadRequest, KindInsufficientPoints, "Insufficient points")
		default:
			h.Logger.Error("place withdrawal", "error", err)
			writeError(w, http.StatusInternalServerError, KindInternal, "internal error")
		}
		return
	}

	h.Metrics.WithdrawalCreated(wd.Method, wd.Amount)
	h.Logger.Info("withdrawal requested", "withdrawal_id", wd.ID, "user_id", wd.UserID, "amount", wd.Amount, "balance", u.Points)
	writeJSON(w, http.StatusCreated, wd)
}

// ListWithdrawals handles GET /api/withdrawals/{userId}.
func (h *WithdrawalHandler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeValidation(w, err)
		return
	}
	list, err := h.Withdrawals.GetWithdrawals(r.Context(), userID)
	if err != nil {
		h.Logger.Error("list withdrawals", "error", err)
		writeError(w, http.StatusInternalServerError, KindInternal, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Quote handles GET /api/withdrawals/quote?amount=&currency=.
func (h *WithdrawalHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := strconv.Atoi(q.Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, KindValidation, "amount must be an integer")
		return
	}
	currency := q.Get("currency")
	if currency == "" {
		currency = "INR"
	}

	quote, err := h.Quoter.Quote(amount, currency)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeValidation(w, err)
			return
		}
		h.Logger.Error("quote", "error", err)
		writeError(w, http.StatusInternalServerError, KindInternal, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// --- PATCH /api/admin/withdrawals/{id}/status ---

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus handles PATCH /api/admin/withdrawals/{id}/status.
func (h *WithdrawalHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeValidation(w, err)
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidation(w, err)
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeValidation(w, err)
		return
	}

	wd, err := h.Withdrawals.UpdateWithdrawalStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, KindValidation, "status must be one of [pending approved rejected]")
		case errors.Is(err, ledger.ErrWithdrawalNotFound):
			writeError(w, http.StatusNotFound, KindNotFound, "Withdrawal not found")
		case errors.Is(err, ledger.ErrInvalidTransition):
			writeError(w, http.StatusConflict, KindConflict, "Withdrawal is no longer pending")
		default:
			h.Logger.Error("update withdrawal status", "error", err)
			writeError(w, http.StatusInternalServerError, KindInternal, "internal error")
		}
		return
	}

	h.Logger.Info("withdrawal status updated", "withdrawal_id", wd.ID, "status", wd.Status)
	writeJSON(w, http.StatusOK, wd)
}
