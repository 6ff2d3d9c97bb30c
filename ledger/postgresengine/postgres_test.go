package postgresengine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biblioline/lending-ledger-go/ledger"
	"github.com/biblioline/lending-ledger-go/ledger/postgresengine"
)

const (
	reserveCopyPattern = `UPDATE "items" SET "available_copies"=available_copies - 1`
	releaseCopyPattern = `UPDATE "items" SET "available_copies"=available_copies \+ 1`
	insertLoanPattern  = `INSERT INTO "loans"`
	closeLoanPattern   = `UPDATE "loans" SET`
	selectLoanPattern  = `SELECT "id", "member_id", "item_id", "loan_date", "due_date", "return_date", "penalty" FROM "loans"`
)

func newStoreWithMock(t *testing.T) (postgresengine.LoanStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := postgresengine.NewLoanStoreFromSQLDB(db)
	require.NoError(t, err)

	return store, mock
}

func loanColumns() []string {
	return []string{"id", "member_id", "item_id", "loan_date", "due_date", "return_date", "penalty"}
}

func Test_OpenLoan_CommitsReservationAndInsertTogether(t *testing.T) {
	store, mock := newStoreWithMock(t)
	loan := ledger.BuildOpenLoan(uuid.New(), uuid.New(), time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))

	mock.ExpectBegin()
	mock.ExpectExec(reserveCopyPattern).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertLoanPattern).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	createdLoan, err := store.OpenLoan(context.Background(), loan)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, createdLoan.ID, "the store assigns an id on insert")
	assert.Equal(t, loan.MemberID, createdLoan.MemberID)
	assert.Equal(t, loan.ItemID, createdLoan.ItemID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_OpenLoan_RollsBackWhenNoCopyIsAvailable(t *testing.T) {
	store, mock := newStoreWithMock(t)
	loan := ledger.BuildOpenLoan(uuid.New(), uuid.New(), time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))

	mock.ExpectBegin()
	mock.ExpectExec(reserveCopyPattern).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := store.OpenLoan(context.Background(), loan)

	assert.ErrorIs(t, err, ledger.ErrItemUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet(), "the loan insert must never run")
}

func Test_OpenLoan_RollsBackReservationWhenInsertFails(t *testing.T) {
	store, mock := newStoreWithMock(t)
	loan := ledger.BuildOpenLoan(uuid.New(), uuid.New(), time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))

	mock.ExpectBegin()
	mock.ExpectExec(reserveCopyPattern).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertLoanPattern).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := store.OpenLoan(context.Background(), loan)

	assert.ErrorIs(t, err, ledger.ErrStoreUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_CloseLoan_CommitsUpdateAndReleaseTogether(t *testing.T) {
	store, mock := newStoreWithMock(t)

	loanID := uuid.New()
	memberID := uuid.New()
	itemID := uuid.New()
	loanDate := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	dueDate := loanDate.AddDate(0, 0, 14)
	returnDate := dueDate.AddDate(0, 0, 3)

	mock.ExpectBegin()
	mock.ExpectQuery(closeLoanPattern).
		WillReturnRows(sqlmock.NewRows([]string{"member_id", "item_id", "loan_date", "due_date"}).
			AddRow(memberID.String(), itemID.String(), loanDate, dueDate))
	mock.ExpectExec(releaseCopyPattern).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	closedLoan, err := store.CloseLoan(context.Background(), loanID, returnDate, 300)

	require.NoError(t, err)
	assert.Equal(t, loanID, closedLoan.ID)
	assert.Equal(t, memberID, closedLoan.MemberID)
	assert.Equal(t, itemID, closedLoan.ItemID)
	require.NotNil(t, closedLoan.ReturnDate)
	assert.True(t, returnDate.Equal(*closedLoan.ReturnDate))
	assert.Equal(t, int64(300), closedLoan.Penalty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_CloseLoan_ReportsAlreadyReturnedWhenTheCASAffectsNoRow(t *testing.T) {
	store, mock := newStoreWithMock(t)

	loanID := uuid.New()
	loanDate := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	dueDate := loanDate.AddDate(0, 0, 14)
	returnedAt := dueDate.AddDate(0, 0, 1)

	mock.ExpectBegin()
	mock.ExpectQuery(closeLoanPattern).
		WillReturnRows(sqlmock.NewRows([]string{"member_id", "item_id", "loan_date", "due_date"}))
	mock.ExpectRollback()
	mock.ExpectQuery(selectLoanPattern).
		WillReturnRows(sqlmock.NewRows(loanColumns()).
			AddRow(loanID.String(), uuid.NewString(), uuid.NewString(), loanDate, dueDate, returnedAt, int64(100)))

	_, err := store.CloseLoan(context.Background(), loanID, dueDate, 0)

	assert.ErrorIs(t, err, ledger.ErrLoanAlreadyReturned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_CloseLoan_ReportsLoanNotFoundForAnUnknownID(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(closeLoanPattern).
		WillReturnRows(sqlmock.NewRows([]string{"member_id", "item_id", "loan_date", "due_date"}))
	mock.ExpectRollback()
	mock.ExpectQuery(selectLoanPattern).
		WillReturnRows(sqlmock.NewRows(loanColumns()))

	_, err := store.CloseLoan(context.Background(), uuid.New(), time.Now(), 0)

	assert.ErrorIs(t, err, ledger.ErrLoanNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_GetLoan_ReturnsAStoredLoan(t *testing.T) {
	store, mock := newStoreWithMock(t)

	loanID := uuid.New()
	memberID := uuid.New()
	itemID := uuid.New()
	loanDate := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	dueDate := loanDate.AddDate(0, 0, 14)

	mock.ExpectQuery(selectLoanPattern).
		WillReturnRows(sqlmock.NewRows(loanColumns()).
			AddRow(loanID.String(), memberID.String(), itemID.String(), loanDate, dueDate, nil, int64(0)))

	loan, err := store.GetLoan(context.Background(), loanID)

	require.NoError(t, err)
	assert.Equal(t, loanID, loan.ID)
	assert.Equal(t, memberID, loan.MemberID)
	assert.Equal(t, itemID, loan.ItemID)
	assert.Nil(t, loan.ReturnDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_GetLoan_ReportsLoanNotFound(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectQuery(selectLoanPattern).
		WillReturnRows(sqlmock.NewRows(loanColumns()))

	_, err := store.GetLoan(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ledger.ErrLoanNotFound)
}

func Test_SelectLoans_TranslatesTheOverdueFilter(t *testing.T) {
	store, mock := newStoreWithMock(t)

	asOf := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	filter := ledger.BuildLoanFilter().OnlyOpen().DueBefore(asOf).Finalize()

	mock.ExpectQuery(`FROM "loans" WHERE .*"return_date" IS NULL.* ORDER BY "due_date" ASC`).
		WillReturnRows(sqlmock.NewRows(loanColumns()))

	loans, err := store.SelectLoans(context.Background(), filter)

	require.NoError(t, err)
	assert.Empty(t, loans)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_SelectLoans_TranslatesTheHistoryOrdering(t *testing.T) {
	store, mock := newStoreWithMock(t)

	memberID := uuid.New()
	filter := ledger.BuildLoanFilter().ForMember(memberID).OrderedByLoanDateDesc().Finalize()

	mock.ExpectQuery(`FROM "loans" WHERE .*"member_id".* ORDER BY "loan_date" DESC`).
		WillReturnRows(sqlmock.NewRows(loanColumns()))

	_, err := store.SelectLoans(context.Background(), filter)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_NewLoanStore_RejectsNilConnections(t *testing.T) {
	_, err := postgresengine.NewLoanStoreFromSQLDB(nil)
	assert.ErrorIs(t, err, ledger.ErrNilDatabaseConnection)

	_, err = postgresengine.NewLoanStoreFromPGXPool(nil)
	assert.ErrorIs(t, err, ledger.ErrNilDatabaseConnection)

	_, err = postgresengine.NewLoanStoreFromSQLX(nil)
	assert.ErrorIs(t, err, ledger.ErrNilDatabaseConnection)
}

func Test_NewLoanStore_RejectsEmptyTableNames(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = postgresengine.NewLoanStoreFromSQLDB(db, postgresengine.WithLoanTableName(""))
	assert.ErrorIs(t, err, ledger.ErrEmptyTableNameSupplied)

	_, err = postgresengine.NewLoanStoreFromSQLDB(db, postgresengine.WithItemTableName(""))
	assert.ErrorIs(t, err, ledger.ErrEmptyTableNameSupplied)
}
