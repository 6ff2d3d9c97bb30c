package postgresengine_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biblioline/lending-ledger-go/ledger"
	"github.com/biblioline/lending-ledger-go/testutil/postgreswrapper"
)

// These tests run against a live Postgres with the migrations applied.
// Enable them with LENDING_INTEGRATION_TEST=1; select the adapter with
// LENDING_TEST_ENGINE (pgxpool, sqldb, or sqlx).
func requireIntegrationEnv(t *testing.T) postgreswrapper.Wrapper {
	t.Helper()

	if os.Getenv("LENDING_INTEGRATION_TEST") == "" {
		t.Skip("set LENDING_INTEGRATION_TEST=1 to run against a live database")
	}

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	t.Cleanup(func() {
		postgreswrapper.CleanUp(t, wrapper)
		wrapper.Close()
	})

	return wrapper
}

func seedItem(t *testing.T, wrapper postgreswrapper.Wrapper, availableCopies int64) uuid.UUID {
	t.Helper()

	itemID := uuid.New()
	err := wrapper.Exec(context.Background(),
		`INSERT INTO items (id, title, author, category, total_copies, available_copies)
		 VALUES ($1, 'Integration Testing', 'Nobody', 'testing', $2, $2)`,
		itemID, availableCopies)
	require.NoError(t, err)

	return itemID
}

func Test_Integration_OpenAndCloseLoanRoundTrip(t *testing.T) {
	wrapper := requireIntegrationEnv(t)
	store := wrapper.GetLoanStore()
	ctx := context.Background()

	itemID := seedItem(t, wrapper, 1)
	loanDate := time.Now().UTC().Truncate(time.Millisecond)

	loan, err := store.OpenLoan(ctx, ledger.BuildOpenLoan(uuid.New(), itemID, loanDate))
	require.NoError(t, err)

	// the only copy is out now
	_, err = store.OpenLoan(ctx, ledger.BuildOpenLoan(uuid.New(), itemID, loanDate))
	assert.ErrorIs(t, err, ledger.ErrItemUnavailable)

	closedLoan, err := store.CloseLoan(ctx, loan.ID, loan.DueDate.AddDate(0, 0, 2), 2*ledger.PenaltyPerDay)
	require.NoError(t, err)
	assert.Equal(t, 2*ledger.PenaltyPerDay, closedLoan.Penalty)

	_, err = store.CloseLoan(ctx, loan.ID, loan.DueDate.AddDate(0, 0, 3), 0)
	assert.ErrorIs(t, err, ledger.ErrLoanAlreadyReturned)

	// the copy is back on the shelf
	_, err = store.OpenLoan(ctx, ledger.BuildOpenLoan(uuid.New(), itemID, loanDate))
	assert.NoError(t, err)
}

func Test_Integration_SelectLoansFilters(t *testing.T) {
	wrapper := requireIntegrationEnv(t)
	store := wrapper.GetLoanStore()
	ctx := context.Background()

	itemID := seedItem(t, wrapper, 3)
	memberID := uuid.New()
	loanDate := time.Now().UTC().Add(-30 * 24 * time.Hour).Truncate(time.Millisecond)

	overdue, err := store.OpenLoan(ctx, ledger.BuildOpenLoan(memberID, itemID, loanDate))
	require.NoError(t, err)
	_, err = store.OpenLoan(ctx, ledger.BuildOpenLoan(memberID, itemID, time.Now().UTC()))
	require.NoError(t, err)

	overdueLoans, err := store.SelectLoans(ctx, ledger.BuildLoanFilter().
		OnlyOpen().
		DueBefore(time.Now().UTC()).
		Finalize())
	require.NoError(t, err)
	require.Len(t, overdueLoans, 1)
	assert.Equal(t, overdue.ID, overdueLoans[0].ID)

	history, err := store.SelectLoans(ctx, ledger.BuildLoanFilter().
		ForMember(memberID).
		OrderedByLoanDateDesc().
		Finalize())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].LoanDate.After(history[1].LoanDate))
}
