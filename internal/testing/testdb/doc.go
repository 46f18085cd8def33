// Package testdb provides test database utilities for the True Tone API.
//
// # Test Database Setup
//
// Create a test database for each test:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    repo := repository.NewInvitationRepository(tdb.DB)
//	}
//
// New skips the test when SurrealDB is unreachable, so unit test runs do not
// need a database. Connection settings come from TEST_DB_HOST, TEST_DB_PORT,
// TEST_DB_USER and TEST_DB_PASSWORD.
//
// # Migrations
//
// The embedded schema is applied on setup, so tests exercise the real
// unique indexes and field assertions.
//
// # Isolation
//
// Each TestDB gets its own namespace, removed when the test finishes:
//
//	func TestA(t *testing.T) {
//	    tdb := testdb.New(t) // namespace: test_1718000000000000000_1
//	}
//
// # Timeout Context
//
//	ctx := tdb.Ctx() // 10 second timeout, cancelled at cleanup
package testdb
