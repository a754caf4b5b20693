package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// usdRates is units of currency per US dollar.
var usdRates = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(1),
	"INR": decimal.RequireFromString("83.24"),
	"EUR": decimal.RequireFromString("0.92"),
	"GBP": decimal.RequireFromString("0.79"),
	"AUD": decimal.RequireFromString("1.53"),
}

// Quote is the money value of a points amount.
type Quote struct {
	Points   int             `json:"points"`
	Currency string          `json:"currency"`
	Gross    decimal.Decimal `json:"gross"`
	Fee      decimal.Decimal `json:"fee"`
	Net      decimal.Decimal `json:"net"`
}

// Quoter converts points to money: points are valued in rupees, a single
// percentage fee is taken, and the result is converted with a static table.
type Quoter struct {
	pointValueINR decimal.Decimal
	feePercent    decimal.Decimal
}

func NewQuoter(pointValueINR, feePercent string) (*Quoter, error) {
	pv, err := decimal.NewFromString(pointValueINR)
	if err != nil || !pv.IsPositive() {
		return nil, fmt.Errorf("invalid point value %q", pointValueINR)
	}
	fee, err := decimal.NewFromString(feePercent)
	if err != nil || fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("invalid fee percent %q", feePercent)
	}
	return &Quoter{pointValueINR: pv, feePercent: fee}, nil
}

// SupportedCurrency reports whether code has a conversion rate.
func SupportedCurrency(code string) bool {
	_, ok := usdRates[strings.ToUpper(code)]
	return ok
}

// Quote prices points in currency, rounded to two decimal places.
func (q *Quoter) Quote(points int, currency string) (Quote, error) {
	code := strings.ToUpper(currency)
	rate, ok := usdRates[code]
	if !ok {
		return Quote{}, fmt.Errorf("%w: unsupported currency %q", ErrValidation, currency)
	}
	if points <= 0 {
		return Quote{}, fmt.Errorf("%w: points must be greater than 0", ErrValidation)
	}
	inr := q.pointValueINR.Mul(decimal.NewFromInt(int64(points)))
	gross := inr.Div(usdRates["INR"]).Mul(rate)
	if code == "INR" {
		gross = inr
	}
	gross = gross.Round(2)
	fee := gross.Mul(q.feePercent).Div(decimal.NewFromInt(100)).Round(2)
	return Quote{
		Points:   points,
		Currency: code,
		Gross:    gross,
		Fee:      fee,
		Net:      gross.Sub(fee),
	}, nil
}
