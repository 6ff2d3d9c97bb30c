// Package postgresengine implements the Loan Record Store and the Inventory
// Ledger on PostgreSQL.
//
// The engine enforces the two consistency contracts of the lending ledger at
// the database level:
//
//   - Copy reservation is a conditional decrement (available_copies > 0 in
//     the WHERE clause), so concurrent open-loan attempts against the last
//     copy serialize on the row and exactly one succeeds.
//   - Returning a loan is a compare-and-set on the return date
//     (return_date IS NULL in the WHERE clause), so a double return is
//     detected race-free.
//
// Each lifecycle transition spans two tables (the loan row and the item's
// copy counter) and runs as one database transaction.
//
// The package supports pgxpool.Pool (with an optional read replica),
// database/sql and sqlx connections through internal adapters, and accepts
// the observability collectors declared in the ledger package via functional
// options.
package postgresengine
