// Package repository implements the data access layer for the True Tone API.
//
// Each repository wraps a database.Database and maps SurrealDB records to
// model structs:
//
//   - UserRepository: identities (email + bcrypt hash)
//   - TokenRepository: hashed refresh tokens
//   - ProfileRepository: reviewer profiles, role, and affiliation
//   - SaxophoneRepository: catalog master records
//   - ReviewRepository: reviews with versioned rating vectors
//   - InvitationRepository: signup invitations
//
// # Conventions
//
//   - Parameterized queries with $variable syntax
//   - type::record() for "table:id" inputs; invitations use
//     type::thing("invitation", $key) because their keys are UUIDs
//   - time::now() for server timestamps, <datetime>$x for caller-supplied ones
//   - Lookups return (nil, nil) when a record does not exist
//   - Unique index violations surface as database.ErrDuplicate
//
// # Atomic Writes
//
// Repositories that take part in multi-record writes expose AddXxxToBatch
// methods that queue their statement on a database.AtomicBatch.
package repository
