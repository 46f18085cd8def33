package handler

import (
	"errors"

	"github.com/truetone/api/internal/model"
	"github.com/truetone/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Errors that already carry problem details pass through unchanged.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var problem *model.ProblemDetails
	if errors.As(err, &problem) {
		return problem
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrInvalidCredentials):
		return model.NewUnauthorizedError(err.Error()).WithCode(model.ErrCodeLoginFailed)
	case errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrRefreshTokenExpired),
		errors.Is(err, service.ErrRefreshTokenRevoked):
		return model.NewUnauthorizedError(err.Error()).WithCode(model.ErrCodeTokenInvalid)

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrNotAdmin):
		return model.NewForbiddenError(err.Error()).WithCode(model.ErrCodeNotAdmin)

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrProfileNotFound):
		return model.NewNotFoundError("profile")
	case errors.Is(err, service.ErrSaxophoneNotFound):
		return model.NewNotFoundError("saxophone")
	case errors.Is(err, service.ErrInvitationNotFound):
		return model.NewNotFoundError("invitation")
	case errors.Is(err, service.ErrInvalidInvitation):
		return model.NewNotFoundError("invitation").WithDetail("invalid invitation link")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrDuplicatePending):
		return model.NewConflictError(err.Error()).WithCode(model.ErrCodeDuplicatePending)
	case errors.Is(err, service.ErrInvitationAlreadyUsed):
		return model.NewConflictError(err.Error()).WithCode(model.ErrCodeAlreadyUsed)
	case errors.Is(err, service.ErrAlreadyRegistered):
		return model.NewConflictError(err.Error()).WithCode(model.ErrCodeAlreadyExists)
	case errors.Is(err, service.ErrInvitationNotResendable):
		return model.NewConflictError(err.Error())
	case errors.Is(err, service.ErrEmailInUse):
		return model.NewConflictError(err.Error()).WithCode(model.ErrCodeAlreadyExists)

	// ===== Expired → 410 =====
	case errors.Is(err, service.ErrInvitationExpired):
		return model.NewGoneError(err.Error())

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrPasswordMismatch):
		return model.NewValidationError([]model.FieldError{{Field: "password", Message: err.Error()}})
	case errors.Is(err, service.ErrIncompleteAffiliation):
		return model.NewValidationError([]model.FieldError{{Field: "affiliation", Message: err.Error()}})
	case errors.Is(err, service.ErrPhotoTooLarge):
		return model.NewValidationError([]model.FieldError{{Field: "photo", Message: err.Error()}})

	// ===== Storage Errors → 502 =====
	case errors.Is(err, service.ErrPhotoUpload):
		return &model.ProblemDetails{
			Type:   model.ErrorType("storage"),
			Title:  "Storage Error",
			Status: 502,
			Detail: "the photo could not be stored, please try again",
			Code:   model.ErrCodeStorage,
		}

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}
