// Package ledger contains the core domain model of the lending ledger:
// the Loan value type, the penalty policy, the sentinel errors shared by
// all implementations, the fluent LoanFilter builder used to enumerate
// loan records, and the dependency-free observability interfaces
// (Logger, MetricsCollector, TracingCollector, ContextualLogger).
//
// The package is intentionally free of persistence concerns. Storage
// engines such as ledger/postgresengine implement the atomic loan
// lifecycle transitions on top of the types defined here, and the
// lending package orchestrates them into the caller-facing operations.
package ledger
