package model

import "time"

// User is an authenticated identity. It carries credentials only; the
// reviewer-facing data and the role live on the Profile.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Hash      *string    `json:"-"` // Never expose password hash
	CreatedOn time.Time  `json:"created_on"`
	LoginOn   *time.Time `json:"login_on,omitempty"`
}

// TokenClaims represents extracted JWT claims
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// LoginRequest is the email/password sign-in body
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries an opaque refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshToken represents a stored refresh token
type RefreshToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"-"`
	ExpiresOn time.Time  `json:"expires_on"`
	CreatedOn time.Time  `json:"created_on"`
	RevokedOn *time.Time `json:"revoked_on,omitempty"`
}

// IsRevoked reports whether the token was revoked
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedOn != nil
}
