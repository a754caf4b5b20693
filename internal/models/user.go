package models

import "time"

// DefaultLanguage is the preference assigned to new users.
const DefaultLanguage = "en"

type User struct {
	ID                int64     `json:"id"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	Name              string    `json:"name"`
	ReferralCode      string    `json:"referralCode"`
	Phone             *string   `json:"phone,omitempty"`
	DateOfBirth       *string   `json:"dateOfBirth,omitempty"`
	Location          *string   `json:"location,omitempty"`
	DeviceInfo        *string   `json:"deviceInfo,omitempty"`
	Points            int       `json:"points"`
	UpiID             *string   `json:"upiId"`
	BankAccount       *string   `json:"bankAccount"`
	IfscCode          *string   `json:"ifscCode"`
	PreferredLanguage string    `json:"preferredLanguage"`
	DarkMode          bool      `json:"darkMode"`
	CreatedAt         time.Time `json:"createdAt"`
}

// NewUser carries the registration fields the store copies into a User.
type NewUser struct {
	Email        string
	PasswordHash string
	Name         string
	Phone        *string
	DateOfBirth  *string
	Location     *string
	DeviceInfo   *string
}

// PaymentInfo is a partial update of the payout destination. Nil fields are left untouched.
type PaymentInfo struct {
	UpiID       *string `json:"upiId" validate:"omitempty,min=3,max=100,contains=@"`
	BankAccount *string `json:"bankAccount" validate:"omitempty,numeric,min=6,max=20"`
	IfscCode    *string `json:"ifscCode" validate:"omitempty,len=11,alphanum"`
}

// Preferences is a partial update of the user's UI settings.
type Preferences struct {
	PreferredLanguage *string `json:"preferredLanguage" validate:"omitempty,min=2,max=10"`
	DarkMode          *bool   `json:"darkMode"`
}
