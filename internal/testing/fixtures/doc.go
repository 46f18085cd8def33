// Package fixtures provides test data factories for the True Tone API.
//
// # Factory Pattern
//
// Create a factory with a database connection:
//
//	f := fixtures.New(tdb.DB)
//
// # Creating Test Data
//
//	admin := f.CreateAdmin(t)
//	reviewer := f.CreateReviewer(t, fixtures.WithAffiliation(model.AffiliationWorksFor, "Selmer"))
//	sax := f.CreateSaxophone(t, reviewer, fixtures.WithType(model.SaxophoneAlto))
//	f.CreateReview(t, sax, reviewer, fixtures.UniformRatings(7))
//	inv := f.CreateInvitation(t, admin)
//
// Identities are created with DefaultPassword. Emails are random so tests
// sharing a namespace do not collide.
package fixtures
