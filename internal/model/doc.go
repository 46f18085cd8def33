// Package model defines domain entities and data structures for the True Tone API.
//
// The model package contains struct definitions for domain objects, request
// types, and error definitions. Models are used across all layers of the
// application and hold no I/O.
//
// # Domain Entities
//
//   - Saxophone: catalog master record, created together with its first review
//   - Review: one reviewer's rating vector and written assessment
//   - RatingVector: versioned map of 1-10 scores keyed by dimension
//   - User: authenticated identity (email + password hash)
//   - Profile: reviewer-facing record with role and optional affiliation
//   - Invitation: single-use signup credential with a 7-day lifetime
//
// # Rating Schemas
//
// Two rating schemas exist. Version 1 has ten dimensions; version 2, the
// current one, has six. Stored reviews keep their version:
//
//	dims, _ := model.RatingSchema(model.CurrentRatingSchema)
//
// # Pure Helpers
//
// Time-dependent and filtering logic is pure and takes its inputs explicitly:
//
//	inv.EffectiveStatus(now)       // pending past expiry reads as expired
//	filter.Matches(sax)            // brand, type, and price bucket
//	model.ParsePrice("$3,500")     // 3500
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go.
package model
