// Package middleware provides HTTP middleware for the True Tone API.
//
// # Available Middleware
//
//   - RequestID, Logger, Recovery, CORS: applied to every route
//   - HTTPMetrics.Middleware: Prometheus request counters labelled by chi route
//   - Auth: bearer JWT validation; sets the user ID and email on the context
//   - RequireAdmin: loads the caller's profile and requires role "admin"
//   - RateLimit: per-client token bucket for the login and signup endpoints
//   - Idempotency: replays the first successful response for a repeated
//     Idempotency-Key on catalog submissions
//
// # Admin Checks
//
// The admin decision is never read from token claims. RequireAdmin looks up
// the profile on each request, so a demoted admin loses access as soon as
// the profile changes.
//
//	r.With(middleware.Auth(authService), middleware.RequireAdmin(profiles)).
//	    Post("/v1/admin/invitations", invitations.Create)
//
// # Context Values
//
//   - GetUserID(ctx), GetUserEmail(ctx): the authenticated identity
//   - GetProfile(ctx): the admin profile loaded by RequireAdmin
//   - GetRequestID(ctx): the request identifier
package middleware
