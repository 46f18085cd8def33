package model

import (
	"strings"
	"time"
)

// Review constraints
const (
	MaxWrittenReviewLength = 10000
	MaxCredentialsLength   = 1000
	MaxDisclosureLength    = 2000
)

// Review is one reviewer's assessment of a saxophone. Immutable after
// creation. Credentials are a snapshot taken at submission time.
type Review struct {
	ID                 string       `json:"id"`
	SaxophoneID        string       `json:"saxophone_id"`
	ReviewerID         string       `json:"reviewer_id"`
	ReviewerEmail      string       `json:"reviewer_email"`
	Ratings            RatingVector `json:"ratings"`
	WrittenReview      string       `json:"written_review"`
	Credentials        string       `json:"credentials"`
	HasConflict        bool         `json:"has_conflict"`
	ConflictDisclosure *string      `json:"conflict_disclosure,omitempty"`
	CreatedOn          time.Time    `json:"created_on"`
}

// ReviewView is a review joined with its author's current profile.
// The reviewer snapshot is built at read time and never stored.
type ReviewView struct {
	*Review
	Reviewer *ReviewerSnapshot `json:"reviewer,omitempty"`
}

// CreateReviewRequest represents a review submission
type CreateReviewRequest struct {
	Ratings            RatingVector `json:"ratings"`
	WrittenReview      string       `json:"written_review" validate:"required,max=10000"`
	Credentials        string       `json:"credentials" validate:"required,max=1000"`
	HasConflict        bool         `json:"has_conflict"`
	ConflictDisclosure string       `json:"conflict_disclosure" validate:"max=2000"`
}

// Validate runs the checks that struct tags cannot express
func (r *CreateReviewRequest) Validate() []FieldError {
	var errors []FieldError

	if r.HasConflict && strings.TrimSpace(r.ConflictDisclosure) == "" {
		errors = append(errors, FieldError{
			Field:   "conflict_disclosure",
			Message: "conflict_disclosure is required when has_conflict is true",
		})
	}
	if r.Ratings.Version != 0 && r.Ratings.Version != CurrentRatingSchema {
		errors = append(errors, FieldError{
			Field:   "ratings.version",
			Message: "new reviews must use the current rating schema",
		})
	} else {
		errors = append(errors, r.Ratings.Validate()...)
	}

	return errors
}

// DisclosureValue returns the disclosure to persist: the trimmed text when
// a conflict is declared, nil otherwise.
func (r *CreateReviewRequest) DisclosureValue() *string {
	if !r.HasConflict {
		return nil
	}
	d := strings.TrimSpace(r.ConflictDisclosure)
	return &d
}
