package postgresengine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/biblioline/lending-ledger-go/ledger"
)

const (
	operationOpenLoan    = "open_loan"
	operationCloseLoan   = "close_loan"
	operationGetLoan     = "get_loan"
	operationSelectLoans = "select_loans"

	spanNameOpenLoan  = "loanstore.open_loan"
	spanNameCloseLoan = "loanstore.close_loan"

	spanAttrOperation  = "operation"
	spanAttrErrorType  = "error_type"
	spanAttrDurationMS = "duration_ms"
	spanAttrLoanID     = "loan_id"
	spanAttrItemID     = "item_id"

	statusSuccess = "success"
	statusError   = "error"

	metricOpenLoanDuration    = "lending_open_loan_duration"
	metricCloseLoanDuration   = "lending_close_loan_duration"
	metricSelectLoansDuration = "lending_select_loans_duration"
	metricDatabaseErrors      = "lending_database_errors"
	metricStateConflicts      = "lending_state_conflicts"

	errorTypeDatabase        = "database_error"
	errorTypeBuildQuery      = "build_query_failed"
	errorTypeItemUnavailable = "item_unavailable"
	errorTypeLoanNotFound    = "loan_not_found"
	errorTypeAlreadyReturned = "already_returned"

	conflictTypeItemUnavailable = "item_unavailable"
	conflictTypeLoanNotFound    = "loan_not_found"
	conflictTypeAlreadyReturned = "already_returned"
)

// logQueryWithDuration logs SQL statements with execution time at debug level.
func (ls LoanStore) logQueryWithDuration(
	ctx context.Context,
	sqlQuery string,
	operation string,
	duration time.Duration,
) {
	if ls.logger != nil {
		ls.logger.Debug(logMsgSQLExecuted+operation, logAttrDurationMS, ls.toMilliseconds(duration), logAttrQuery, sqlQuery)
	}

	if ls.contextualLogger != nil {
		ls.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+operation, logAttrDurationMS, ls.toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level.
func (ls LoanStore) logOperation(ctx context.Context, action string, args ...any) {
	if ls.logger != nil {
		ls.logger.Info(logMsgOperation+action, args...)
	}

	if ls.contextualLogger != nil {
		ls.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// logError logs error information at the error level.
func (ls LoanStore) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if ls.logger != nil {
		ls.logger.Error(message, allArgs...)
	}

	if ls.contextualLogger != nil {
		ls.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// logWarn logs non-critical issues at warn level.
func (ls LoanStore) logWarn(ctx context.Context, message string, args ...any) {
	if ls.logger != nil {
		ls.logger.Warn(message, args...)
	}

	if ls.contextualLogger != nil {
		ls.contextualLogger.WarnContext(ctx, message, args...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (ls LoanStore) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// recordDurationMetrics records an operation duration, context-aware when the collector supports it.
func (ls LoanStore) recordDurationMetrics(
	ctx context.Context,
	metricName string,
	duration time.Duration,
	operation string,
	status string,
) {
	if ls.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          status,
	}

	if contextualCollector, ok := ls.metricsCollector.(ledger.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricName, duration, labels)
	} else {
		ls.metricsCollector.RecordDuration(metricName, duration, labels)
	}
}

// recordErrorMetrics counts a database error for the given operation.
func (ls LoanStore) recordErrorMetrics(ctx context.Context, operation string, errorType string) {
	if ls.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          statusError,
		spanAttrErrorType: errorType,
	}

	if contextualCollector, ok := ls.metricsCollector.(ledger.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricDatabaseErrors, labels)
	} else {
		ls.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
	}
}

// recordConflictMetrics counts a state conflict (unavailable item, lost close race, unknown loan).
func (ls LoanStore) recordConflictMetrics(ctx context.Context, operation string, conflictType string) {
	if ls.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"conflict_type":   conflictType,
	}

	if contextualCollector, ok := ls.metricsCollector.(ledger.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricStateConflicts, labels)
	} else {
		ls.metricsCollector.IncrementCounter(metricStateConflicts, labels)
	}
}

// startSpan starts a tracing span if the tracing collector is configured.
func (ls LoanStore) startSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, ledger.SpanContext) {
	if ls.tracingCollector != nil {
		return ls.tracingCollector.StartSpan(ctx, name, attrs)
	}

	return ctx, nil
}

// finishSpanSuccess finishes a span for a successful operation.
func (ls LoanStore) finishSpanSuccess(span ledger.SpanContext, duration time.Duration, attrs map[string]string) {
	if ls.tracingCollector == nil || span == nil {
		return
	}

	span.SetStatus(statusSuccess)
	span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", ls.toMilliseconds(duration)))

	ls.tracingCollector.FinishSpan(span, statusSuccess, attrs)
}

// finishSpanError finishes a span with error details.
func (ls LoanStore) finishSpanError(span ledger.SpanContext, errorType string, duration time.Duration) {
	if ls.tracingCollector == nil || span == nil {
		return
	}

	span.SetStatus(statusError)
	span.AddAttribute(spanAttrErrorType, errorType)

	if duration > 0 {
		span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", ls.toMilliseconds(duration)))
	}

	ls.tracingCollector.FinishSpan(span, statusError, map[string]string{spanAttrErrorType: errorType})
}
