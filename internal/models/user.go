package models

import (
	"time"

	"github.com/pokefolio/pokefolio/internal/currency"
)

type User struct {
	ID           string            `json:"id" gorm:"primaryKey"`
	Email        string            `json:"email" gorm:"not null;uniqueIndex"`
	Username     string            `json:"username" gorm:"not null;uniqueIndex"`
	PasswordHash string            `json:"-" gorm:"not null"`
	Currency     currency.Currency `json:"currency" gorm:"not null;default:'USD'"`
	PaymentInfo  string            `json:"payment_info,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Session is a server-side session record; the token travels in an
// httpOnly cookie and can be revoked by deleting the row.
type Session struct {
	Token     string    `json:"-" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"not null;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// PasswordResetToken is single-use and expires one hour after issue.
type PasswordResetToken struct {
	Token     string    `json:"-" gorm:"primaryKey"`
	UserID    string    `json:"-" gorm:"not null;index"`
	ExpiresAt time.Time `json:"-" gorm:"not null"`
	Used      bool      `json:"-" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"-"`
}

type SignupRequest struct {
	Email    string            `json:"email" binding:"required"`
	Username string            `json:"username" binding:"required"`
	Password string            `json:"password" binding:"required"`
	Currency currency.Currency `json:"currency"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdatePreferencesRequest struct {
	Currency    *currency.Currency `json:"currency"`
	PaymentInfo *string            `json:"payment_info"`
}
