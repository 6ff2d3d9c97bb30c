// Package adapters provides database adapter implementations for the PostgreSQL loan store.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
// pgx.Pool, sql.DB, and sqlx.DB. All adapters provide equivalent functionality through
// a common DBAdapter interface, allowing the loan store to work seamlessly with any
// supported database connection type.
//
// Beyond plain query execution the adapters expose a minimal transaction handle,
// because the loan lifecycle transitions write the loan row and the inventory
// counter as one atomic unit.
package adapters
