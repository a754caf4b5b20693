package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Withdrawal status vocabulary: pending -> approved | rejected.
const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusRejected = "rejected"
)

// Payout methods.
const (
	PayoutMethodUPI    = "upi"
	PayoutMethodBank   = "bank"
	PayoutMethodPayPal = "paypal"
)

type Withdrawal struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"userId"`
	Amount         int             `json:"amount"`
	Status         string          `json:"status"`
	Method         string          `json:"method"`
	PaymentDetails string          `json:"paymentDetails"`
	PaymentID      *string         `json:"paymentId"`
	PayoutINR      decimal.Decimal `json:"payoutInr"`
	FeeINR         decimal.Decimal `json:"feeInr"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// NewWithdrawal is the caller-supplied part of a Withdrawal.
type NewWithdrawal struct {
	UserID         int64
	Amount         int
	Method         string
	PaymentDetails string
	PayoutINR      decimal.Decimal
	FeeINR         decimal.Decimal
}

// ValidWithdrawalStatus reports whether s belongs to the status vocabulary.
func ValidWithdrawalStatus(s string) bool {
	switch s {
	case WithdrawalStatusPending, WithdrawalStatusApproved, WithdrawalStatusRejected:
		return true
	}
	return false
}
