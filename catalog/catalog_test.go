package catalog_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biblioline/lending-ledger-go/catalog"
	"github.com/biblioline/lending-ledger-go/ledger"
)

func newStoreWithMock(t *testing.T) (*catalog.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := catalog.NewStore(sqlx.NewDb(db, "sqlmock"))
	require.NoError(t, err)

	return store, mock
}

func itemColumns() []string {
	return []string{"id", "title", "author", "category", "total_copies", "available_copies"}
}

func Test_AddItem_StartsWithAllCopiesAvailable(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectExec(`INSERT INTO items`).WillReturnResult(sqlmock.NewResult(0, 1))

	item, err := store.AddItem(context.Background(), "The Go Programming Language", "Donovan", "programming", 3)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, item.ID)
	assert.Equal(t, int64(3), item.TotalCopies)
	assert.Equal(t, int64(3), item.AvailableCopies)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_GetByID_ReportsItemNotFound(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectQuery(`SELECT .+ FROM items WHERE id`).
		WillReturnRows(sqlmock.NewRows(itemColumns()))

	_, err := store.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ledger.ErrItemNotFound)
}

func Test_GetItem_ProjectsTheLendingView(t *testing.T) {
	store, mock := newStoreWithMock(t)

	itemID := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM items WHERE id`).
		WillReturnRows(sqlmock.NewRows(itemColumns()).
			AddRow(itemID.String(), "Clean Architecture", "Martin", "software", int64(2), int64(1)))

	item, err := store.GetItem(context.Background(), itemID)

	require.NoError(t, err)
	assert.Equal(t, itemID, item.ID)
	assert.Equal(t, int64(1), item.AvailableCopies)
}

func Test_AdjustTotalCopies_RefusesToCutIntoLoanedCopies(t *testing.T) {
	store, mock := newStoreWithMock(t)

	itemID := uuid.New()
	mock.ExpectExec(`UPDATE items`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .+ FROM items WHERE id`).
		WillReturnRows(sqlmock.NewRows(itemColumns()).
			AddRow(itemID.String(), "Clean Architecture", "Martin", "software", int64(2), int64(1)))

	err := store.AdjustTotalCopies(context.Background(), itemID, -2)

	assert.ErrorIs(t, err, catalog.ErrNoCopiesToRemove)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_AdjustTotalCopies_ReportsItemNotFound(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectExec(`UPDATE items`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .+ FROM items WHERE id`).
		WillReturnRows(sqlmock.NewRows(itemColumns()))

	err := store.AdjustTotalCopies(context.Background(), uuid.New(), 1)

	assert.ErrorIs(t, err, ledger.ErrItemNotFound)
}

func Test_SearchByTitle_MatchesFragmentsLiterally(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectQuery(`FROM items WHERE title ILIKE`).
		WithArgs(`%100\% Go%`).
		WillReturnRows(sqlmock.NewRows(itemColumns()))

	items, err := store.SearchByTitle(context.Background(), "100% Go")

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_RemoveItem_ReportsItemNotFound(t *testing.T) {
	store, mock := newStoreWithMock(t)

	mock.ExpectExec(`DELETE FROM items`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.RemoveItem(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ledger.ErrItemNotFound)
}
