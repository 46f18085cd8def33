// Package database provides SurrealDB connectivity for the True Tone API.
//
// The Database interface abstracts the three query shapes the repositories
// use:
//
//   - Query: every statement's {status, result} wrapper
//   - QueryOne: the first record of the first statement, or ErrNotFound
//   - Execute: mutations with no result
//
// # Atomic Writes
//
// Transactions are batch-based. AtomicBatch accumulates statements and sends
// them wrapped in BEGIN TRANSACTION / COMMIT TRANSACTION, with variables
// namespaced per statement so two queries may both use $email:
//
//	batch := database.NewAtomicBatch()
//	batch.Add(createProfile, profileVars)
//	batch.Add(acceptInvitation, inviteVars)
//	err := batch.Execute(ctx, db) // all or nothing
//
// Reviewer signup is the only multi-record write that needs this.
//
// # Migrations
//
// ApplyMigrations runs every *.surql file of a directory in name order,
// skipping seed files. The migrations package embeds the schema.
//
// # Error Types
//
//   - ErrNotFound: record does not exist
//   - ErrDuplicate: unique index violation
//   - ErrConnection: database connection failed
//   - ErrQuery: statement failed
package database
