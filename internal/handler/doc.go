// Package handler provides the HTTP handlers and router for the True Tone API.
//
// Each handler depends on a small interface declared next to it, so tests
// drive handlers with hand-written mocks. Errors from services are mapped to
// RFC 9457 problem details by MapServiceError.
//
// # Response Format
//
//   - WriteData: {"data": ..., "_links": ...}
//   - WriteCollection: {"data": [...], "meta": ...}; the catalog listing puts
//     its brand, type and price facets in meta
//   - WriteError: application/problem+json
//
// # Routing
//
// NewRouter wires everything on chi. Catalog reads and the signup flow are
// public; submissions need a bearer token; invitation management sits
// behind middleware.RequireAdmin.
package handler
