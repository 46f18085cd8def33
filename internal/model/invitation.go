package model

import (
	"regexp"
	"strings"
	"time"
)

// InvitationStatus is the lifecycle state of an invitation
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

// IsLive reports whether the status still holds the invitee's email.
// An email has at most one live invitation.
func (s InvitationStatus) IsLive() bool {
	return s == InvitationPending || s == InvitationAccepted
}

// DefaultInvitationTTL is how long a fresh or resent invitation stays valid
const DefaultInvitationTTL = 7 * 24 * time.Hour

// Invitation constraints
const (
	MaxInviteeNameLength   = 200
	MaxCustomMessageLength = 2000
)

// Invitation gates reviewer signup. Its ID is the signup credential.
type Invitation struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	InviteeName   *string          `json:"invitee_name,omitempty"`
	CustomMessage *string          `json:"custom_message,omitempty"`
	Status        InvitationStatus `json:"status"`
	InvitedBy     string           `json:"invited_by"`
	CreatedOn     time.Time        `json:"created_on"`
	ExpiresOn     time.Time        `json:"expires_on"`
	AcceptedOn    *time.Time       `json:"accepted_on,omitempty"`
	AcceptedBy    *string          `json:"accepted_by,omitempty"`
}

// EffectiveStatus computes the status as of now without mutating anything.
// A pending invitation past its expiry reads as expired.
func (i *Invitation) EffectiveStatus(now time.Time) InvitationStatus {
	if i.Status == InvitationPending && now.After(i.ExpiresOn) {
		return InvitationExpired
	}
	return i.Status
}

// NeedsExpiry reports whether the stored status lags the effective one
func (i *Invitation) NeedsExpiry(now time.Time) bool {
	return i.Status == InvitationPending && i.EffectiveStatus(now) == InvitationExpired
}

// InvitationView is an invitation with its shareable signup link
type InvitationView struct {
	*Invitation
	SignupURL string `json:"signup_url"`
}

// InvitationPreview is what an invitee sees before signing up
type InvitationPreview struct {
	Email         string           `json:"email"`
	InviteeName   *string          `json:"invitee_name,omitempty"`
	CustomMessage *string          `json:"custom_message,omitempty"`
	Status        InvitationStatus `json:"status"`
	ExpiresOn     time.Time        `json:"expires_on"`
}

var inviteEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidInviteEmail checks the address shape accepted for invitations
func IsValidInviteEmail(email string) bool {
	return inviteEmailPattern.MatchString(email)
}

// CreateInvitationRequest represents an admin's invitation request
type CreateInvitationRequest struct {
	Email         string `json:"email" validate:"required"`
	InviteeName   string `json:"invitee_name" validate:"max=200"`
	CustomMessage string `json:"custom_message" validate:"max=2000"`
}

// Validate checks the email format
func (r *CreateInvitationRequest) Validate() []FieldError {
	var errors []FieldError
	if email := NormalizeEmail(r.Email); email != "" && !IsValidInviteEmail(email) {
		errors = append(errors, FieldError{Field: "email", Message: "must be a valid email address"})
	}
	return errors
}

// SignupRequest accepts an invitation and provisions a reviewer account.
// There is no email field: the account always uses the invitation's email.
type SignupRequest struct {
	Token           string          `json:"token" validate:"required"`
	Password        string          `json:"password"`
	ConfirmPassword string          `json:"confirm_password"`
	Name            string          `json:"name" validate:"required,max=200"`
	Credentials     string          `json:"credentials" validate:"required,max=1000"`
	Bio             string          `json:"bio" validate:"max=5000"`
	HasAffiliation  bool            `json:"has_affiliation"`
	AffiliationType AffiliationType `json:"affiliation_type"`
	Manufacturer    string          `json:"manufacturer"`
}

// AffiliationValue returns the declared affiliation, or nil if none
func (r *SignupRequest) AffiliationValue() *Affiliation {
	if !r.HasAffiliation {
		return nil
	}
	return &Affiliation{
		Type:         r.AffiliationType,
		Manufacturer: strings.TrimSpace(r.Manufacturer),
	}
}
