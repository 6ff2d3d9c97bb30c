package postgresengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biblioline/lending-ledger-go/ledger"
	"github.com/biblioline/lending-ledger-go/ledger/postgresengine"
	"github.com/biblioline/lending-ledger-go/testutil/testdoubles"
)

type observabilitySpies struct {
	logger           *testdoubles.LoggerSpy
	contextualLogger *testdoubles.ContextualLoggerSpy
	metrics          *testdoubles.MetricsCollectorSpy
	tracing          *testdoubles.TracingCollectorSpy
}

func newObservedStoreWithMock(t *testing.T) (postgresengine.LoanStore, sqlmock.Sqlmock, observabilitySpies) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	spies := observabilitySpies{
		logger:           testdoubles.NewLoggerSpy(),
		contextualLogger: testdoubles.NewContextualLoggerSpy(),
		metrics:          testdoubles.NewMetricsCollectorSpy(),
		tracing:          testdoubles.NewTracingCollectorSpy(),
	}

	store, err := postgresengine.NewLoanStoreFromSQLDB(db,
		postgresengine.WithLogger(spies.logger),
		postgresengine.WithContextualLogger(spies.contextualLogger),
		postgresengine.WithMetrics(spies.metrics),
		postgresengine.WithTracing(spies.tracing),
	)
	require.NoError(t, err)

	return store, mock, spies
}

func Test_OpenLoan_EmitsSuccessInstrumentation(t *testing.T) {
	store, mock, spies := newObservedStoreWithMock(t)
	loan := ledger.BuildOpenLoan(uuid.New(), uuid.New(), time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))

	mock.ExpectBegin()
	mock.ExpectExec(reserveCopyPattern).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertLoanPattern).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := store.OpenLoan(context.Background(), loan)
	require.NoError(t, err)

	assert.True(t, spies.logger.HasLog("info", "loan store operation: loan opened"))
	assert.True(t, spies.contextualLogger.HasLog("info", "loan store operation: loan opened"))
	assert.Equal(t, 1, spies.metrics.DurationCount("lending_open_loan_duration"))

	spans := spies.tracing.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "loanstore.open_loan", spans[0].Name)
	assert.Equal(t, "success", spans[0].Status)
}

func Test_OpenLoan_EmitsConflictInstrumentationWhenNoCopyIsAvailable(t *testing.T) {
	store, mock, spies := newObservedStoreWithMock(t)
	loan := ledger.BuildOpenLoan(uuid.New(), uuid.New(), time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))

	mock.ExpectBegin()
	mock.ExpectExec(reserveCopyPattern).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := store.OpenLoan(context.Background(), loan)
	require.ErrorIs(t, err, ledger.ErrItemUnavailable)

	assert.True(t, spies.logger.HasLog("info", "loan store operation: copy reservation found no available copy"))
	assert.Equal(t, 1, spies.metrics.CounterValue("lending_state_conflicts"))
	assert.Equal(t, "item_unavailable", spies.metrics.LastLabels("lending_state_conflicts")["conflict_type"])

	spans := spies.tracing.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "error", spans[0].Status)
}

func Test_CloseLoan_EmitsErrorInstrumentationOnDatabaseFailure(t *testing.T) {
	store, mock, spies := newObservedStoreWithMock(t)

	mock.ExpectBegin().WillReturnError(assert.AnError)

	_, err := store.CloseLoan(context.Background(), uuid.New(), time.Now(), 0)
	require.ErrorIs(t, err, ledger.ErrStoreUnavailable)

	assert.GreaterOrEqual(t, spies.metrics.CounterValue("lending_database_errors"), 1)

	spans := spies.tracing.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "loanstore.close_loan", spans[0].Name)
	assert.Equal(t, "error", spans[0].Status)
}
