package domain

import "time"

// Token is a short-lived credential bound to a user's phone number.
// Expires is an absolute Unix timestamp in milliseconds.
type Token struct {
	ID      string `json:"id"`
	Phone   string `json:"phone"`
	Expires int64  `json:"expires"`
}

type CreateTokenRequest struct {
	Phone    string `json:"phone" validate:"required,min=11"`
	Password string `json:"password" validate:"required"`
}

type ExtendTokenRequest struct {
	ID     string `json:"id" validate:"required"`
	Extend bool   `json:"extend" validate:"required"`
}

// ExpiresAt returns the expiry as a time.Time.
func (t *Token) ExpiresAt() time.Time { return time.UnixMilli(t.Expires) }

// ValidAt reports whether the token has not yet expired at now.
func (t *Token) ValidAt(now time.Time) bool { return t.Expires > now.UnixMilli() }
