package service

import "errors"

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Authentication Errors =====
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailInUse         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password must be between 8 and 128 characters")
	ErrPasswordMismatch   = errors.New("passwords do not match")
)

// ===== Token Errors =====
var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
)

// ===== Authorization Errors =====
var (
	ErrNotAdmin = errors.New("administrator role required")
)

// ===== Profile Errors =====
var (
	ErrProfileNotFound       = errors.New("profile not found")
	ErrIncompleteAffiliation = errors.New("affiliation type and manufacturer are required when declaring an affiliation")
)

// ===== Catalog Errors =====
var (
	ErrSaxophoneNotFound = errors.New("saxophone not found")
	ErrPhotoTooLarge     = errors.New("photo exceeds the maximum upload size")
	ErrPhotoUpload       = errors.New("photo upload failed")
)

// ===== Invitation Errors =====
var (
	ErrInvitationNotFound      = errors.New("invitation not found")
	ErrInvalidInvitation       = errors.New("invalid invitation link")
	ErrInvitationAlreadyUsed   = errors.New("this invitation has already been used")
	ErrInvitationExpired       = errors.New("this invitation has expired")
	ErrDuplicatePending        = errors.New("a pending invitation already exists for this email")
	ErrAlreadyRegistered       = errors.New("an invitation for this email has already been accepted")
	ErrInvitationNotResendable = errors.New("only expired invitations can be resent")
)
