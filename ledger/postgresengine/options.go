package postgresengine

import (
	"github.com/biblioline/lending-ledger-go/ledger"
)

// Option defines a functional option for configuring a LoanStore.
type Option func(*LoanStore) error

// WithLoanTableName sets the table holding loan records.
func WithLoanTableName(tableName string) Option {
	return func(ls *LoanStore) error {
		if tableName == "" {
			return ledger.ErrEmptyTableNameSupplied
		}

		ls.loanTableName = tableName

		return nil
	}
}

// WithItemTableName sets the table holding the per-item copy counters.
func WithItemTableName(tableName string) Option {
	return func(ls *LoanStore) error {
		if tableName == "" {
			return ledger.ErrEmptyTableNameSupplied
		}

		ls.itemTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the LoanStore.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: lifecycle transitions, durations, state conflicts (production-safe)
// Warn level: non-critical issues like rollback or cleanup failures
// Error level: critical failures that cause operation failures.
func WithLogger(logger ledger.Logger) Option {
	return func(ls *LoanStore) error {
		ls.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the LoanStore.
// The collector will receive operation durations, state-conflict counters
// (item unavailable, lost close races), and database error counters.
func WithMetrics(collector ledger.MetricsCollector) Option {
	return func(ls *LoanStore) error {
		ls.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the LoanStore.
// The collector will receive a span per lifecycle operation and per
// enumeration, carrying operation, status, and error-type attributes.
func WithTracing(collector ledger.TracingCollector) Option {
	return func(ls *LoanStore) error {
		ls.tracingCollector = collector
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the LoanStore.
// The contextual logger receives the same messages as the plain logger but
// with context information, enabling automatic trace/span correlation.
func WithContextualLogger(logger ledger.ContextualLogger) Option {
	return func(ls *LoanStore) error {
		ls.contextualLogger = logger
		return nil
	}
}
