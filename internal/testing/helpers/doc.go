// Package helpers provides test utilities for the True Tone API.
//
// # JWT Helpers
//
// Mint access tokens signed by an in-memory key:
//
//	jwtHelper := helpers.NewJWTHelper(t)
//	token := jwtHelper.GenerateToken(t, user)
//	expired := jwtHelper.GenerateExpiredToken(t, user)
//
// Wire jwtHelper.Service() into the token service so the router accepts them.
//
// # Requests
//
//	rec := helpers.NewRequest(t, http.MethodPost, "/v1/saxophones").
//	    WithAuth(jwtHelper, user).
//	    WithIdempotencyKey("k1").
//	    WithBody(body).
//	    Do(router)
//
// # Assertions
//
//	helpers.AssertStatus(t, rec, http.StatusCreated)
//	helpers.AssertProblemDetails(t, rec, http.StatusForbidden, model.ErrCodeNotAdmin)
//	helpers.AssertValidationError(t, rec, "ratings.darkBright")
package helpers
