package model

import (
	"fmt"
	"time"
)

// ProfileRole is the authorization role of a profile
type ProfileRole string

const (
	RoleReviewer ProfileRole = "reviewer"
	RoleAdmin    ProfileRole = "admin"
)

// AffiliationType describes a reviewer's relationship with a manufacturer
type AffiliationType string

const (
	AffiliationEndorsed       AffiliationType = "endorsed"
	AffiliationWorksFor       AffiliationType = "works_for"
	AffiliationFormerEmployee AffiliationType = "former_employee"
	AffiliationDealer         AffiliationType = "dealer"
)

// IsValid reports whether t is a known affiliation type
func (t AffiliationType) IsValid() bool {
	switch t {
	case AffiliationEndorsed, AffiliationWorksFor, AffiliationFormerEmployee, AffiliationDealer:
		return true
	}
	return false
}

// Label is the short badge text shown next to a manufacturer name
func (t AffiliationType) Label() string {
	switch t {
	case AffiliationEndorsed:
		return "Endorsed by"
	case AffiliationWorksFor:
		return "Works for"
	case AffiliationFormerEmployee:
		return "Former employee of"
	case AffiliationDealer:
		return "Authorized dealer for"
	}
	return "Affiliated with"
}

// Affiliation is an optional manufacturer relationship declared at signup
type Affiliation struct {
	Type         AffiliationType `json:"type"`
	Manufacturer string          `json:"manufacturer"`
}

// Label renders the badge, e.g. "Endorsed by Selmer"
func (a *Affiliation) Label() string {
	return fmt.Sprintf("%s %s", a.Type.Label(), a.Manufacturer)
}

// Disclosure is the reader-facing bias notice for reviews by this reviewer
func (a *Affiliation) Disclosure() string {
	switch a.Type {
	case AffiliationEndorsed:
		return fmt.Sprintf("This reviewer is endorsed by %s and may receive instruments and support from the company. Consider potential bias when evaluating their assessment.", a.Manufacturer)
	case AffiliationWorksFor:
		return fmt.Sprintf("This reviewer works for %s. Consider potential bias when evaluating their assessment.", a.Manufacturer)
	case AffiliationFormerEmployee:
		return fmt.Sprintf("This reviewer is a former employee of %s. Consider potential bias when evaluating their assessment.", a.Manufacturer)
	case AffiliationDealer:
		return fmt.Sprintf("This reviewer is an authorized dealer for %s. Consider potential bias when evaluating their assessment.", a.Manufacturer)
	}
	return fmt.Sprintf("This reviewer is affiliated with %s. Consider potential bias when evaluating their assessment.", a.Manufacturer)
}

// Profile is the reviewer-facing record bound one-to-one to a User
type Profile struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Role        ProfileRole  `json:"role"`
	Email       string       `json:"email"`
	Name        string       `json:"name"`
	Credentials string       `json:"credentials"`
	Bio         *string      `json:"bio,omitempty"`
	Affiliation *Affiliation `json:"affiliation,omitempty"`
	CreatedOn   time.Time    `json:"created_on"`
}

// IsAdmin returns true if the profile has admin role
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ReviewerSnapshot is the read-time view of a review's author
type ReviewerSnapshot struct {
	Name             string       `json:"name"`
	Affiliation      *Affiliation `json:"affiliation,omitempty"`
	AffiliationLabel string       `json:"affiliation_label,omitempty"`
	Disclosure       string       `json:"disclosure,omitempty"`
}

// Snapshot builds the reviewer view shown beside each review
func (p *Profile) Snapshot() *ReviewerSnapshot {
	snap := &ReviewerSnapshot{Name: p.Name}
	if p.Affiliation != nil {
		snap.Affiliation = p.Affiliation
		snap.AffiliationLabel = p.Affiliation.Label()
		snap.Disclosure = p.Affiliation.Disclosure()
	}
	return snap
}

// BootstrapAdminRequest names the identity to make an administrator
type BootstrapAdminRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"`
	Name     string `json:"name" validate:"required,max=200"`
}
