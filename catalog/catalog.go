// Package catalog manages the items a library lends out: the catalog entries
// with their copy counts, plus the search queries librarians use. The loan
// engine owns the concurrent copy accounting; this package covers the
// administrative side of the same items table.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/biblioline/lending-ledger-go/ledger"
)

// Item is a catalog entry. AvailableCopies never exceeds TotalCopies and
// never drops below zero; the loans engine enforces the lower bound on its
// conditional writes and AdjustTotalCopies enforces both bounds here.
type Item struct {
	ID              uuid.UUID `db:"id"`
	Title           string    `db:"title"`
	Author          string    `db:"author"`
	Category        string    `db:"category"`
	TotalCopies     int64     `db:"total_copies"`
	AvailableCopies int64     `db:"available_copies"`
}

// ErrNoCopiesToRemove indicates that a copy-count reduction would cut into
// copies that are currently out on loan.
var ErrNoCopiesToRemove = errors.New("cannot remove copies that are currently on loan")

// Store is a Postgres-backed item catalog.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a catalog store on the given database handle.
func NewStore(db *sqlx.DB) (*Store, error) {
	if db == nil {
		return nil, ledger.ErrNilDatabaseConnection
	}

	return &Store{db: db}, nil
}

// AddItem inserts a new catalog entry with all copies available and returns
// it with its assigned id.
func (s *Store) AddItem(ctx context.Context, title, author, category string, totalCopies int64) (Item, error) {
	item := Item{
		ID:              uuid.New(),
		Title:           title,
		Author:          author,
		Category:        category,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
	}

	const query = `INSERT INTO items (id, title, author, category, total_copies, available_copies)
		VALUES (:id, :title, :author, :category, :total_copies, :available_copies)`

	if _, err := s.db.NamedExecContext(ctx, query, item); err != nil {
		return Item{}, errors.Join(ledger.ErrStoreUnavailable, err)
	}

	return item, nil
}

// GetByID returns the catalog entry with the given id.
func (s *Store) GetByID(ctx context.Context, itemID uuid.UUID) (Item, error) {
	const query = `SELECT id, title, author, category, total_copies, available_copies
		FROM items WHERE id = $1`

	var item Item
	err := s.db.GetContext(ctx, &item, query, itemID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Item{}, ledger.ErrItemNotFound
	case err != nil:
		return Item{}, errors.Join(ledger.ErrStoreUnavailable, err)
	}

	return item, nil
}

// GetItem implements lending.ItemCatalog against the full catalog entry.
func (s *Store) GetItem(ctx context.Context, itemID uuid.UUID) (ledger.Item, error) {
	item, err := s.GetByID(ctx, itemID)
	if err != nil {
		return ledger.Item{}, err
	}

	return ledger.Item{ID: item.ID, AvailableCopies: item.AvailableCopies}, nil
}

// UpdateDetails rewrites the descriptive fields of a catalog entry.
// Copy counts are only changed through AdjustTotalCopies.
func (s *Store) UpdateDetails(ctx context.Context, itemID uuid.UUID, title, author, category string) error {
	const query = `UPDATE items SET title = $2, author = $3, category = $4 WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, itemID, title, author, category)
	if err != nil {
		return errors.Join(ledger.ErrStoreUnavailable, err)
	}

	return s.requireOneRow(result)
}

// AdjustTotalCopies changes the copy count of an item by delta, which may be
// negative. Removing copies is bounded by the copies currently on the shelf:
// the conditional update refuses to cut into loaned-out copies.
func (s *Store) AdjustTotalCopies(ctx context.Context, itemID uuid.UUID, delta int64) error {
	const query = `UPDATE items
		SET total_copies = total_copies + $2, available_copies = available_copies + $2
		WHERE id = $1 AND available_copies + $2 >= 0`

	result, err := s.db.ExecContext(ctx, query, itemID, delta)
	if err != nil {
		return errors.Join(ledger.ErrStoreUnavailable, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Join(ledger.ErrStoreUnavailable, err)
	}

	if rowsAffected == 0 {
		if _, getErr := s.GetByID(ctx, itemID); getErr != nil {
			return getErr
		}

		return ErrNoCopiesToRemove
	}

	return nil
}

// RemoveItem deletes a catalog entry. Open loans keep their item id; the
// history stays intact.
func (s *Store) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	const query = `DELETE FROM items WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, itemID)
	if err != nil {
		return errors.Join(ledger.ErrStoreUnavailable, err)
	}

	return s.requireOneRow(result)
}

// ListAll returns the whole catalog ordered by title.
func (s *Store) ListAll(ctx context.Context) ([]Item, error) {
	const query = `SELECT id, title, author, category, total_copies, available_copies
		FROM items ORDER BY title ASC`

	return s.selectItems(ctx, query)
}

// ListAvailable returns the catalog entries with at least one free copy,
// ordered by title.
func (s *Store) ListAvailable(ctx context.Context) ([]Item, error) {
	const query = `SELECT id, title, author, category, total_copies, available_copies
		FROM items WHERE available_copies > 0 ORDER BY title ASC`

	return s.selectItems(ctx, query)
}

// SearchByTitle returns the catalog entries whose title contains the given
// fragment, case-insensitively, ordered by title.
func (s *Store) SearchByTitle(ctx context.Context, fragment string) ([]Item, error) {
	return s.searchByColumn(ctx, "title", fragment)
}

// SearchByAuthor returns the catalog entries whose author contains the given
// fragment, case-insensitively, ordered by title.
func (s *Store) SearchByAuthor(ctx context.Context, fragment string) ([]Item, error) {
	return s.searchByColumn(ctx, "author", fragment)
}

// SearchByCategory returns the catalog entries in the given category,
// case-insensitively, ordered by title.
func (s *Store) SearchByCategory(ctx context.Context, category string) ([]Item, error) {
	const query = `SELECT id, title, author, category, total_copies, available_copies
		FROM items WHERE LOWER(category) = LOWER($1) ORDER BY title ASC`

	return s.selectItems(ctx, query, category)
}

func (s *Store) searchByColumn(ctx context.Context, column string, fragment string) ([]Item, error) {
	query := fmt.Sprintf(`SELECT id, title, author, category, total_copies, available_copies
		FROM items WHERE %s ILIKE $1 ORDER BY title ASC`, column)

	return s.selectItems(ctx, query, "%"+escapeLikePattern(fragment)+"%")
}

func (s *Store) selectItems(ctx context.Context, query string, args ...any) ([]Item, error) {
	items := make([]Item, 0)
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, errors.Join(ledger.ErrStoreUnavailable, err)
	}

	return items, nil
}

func (s *Store) requireOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Join(ledger.ErrStoreUnavailable, err)
	}

	if rowsAffected == 0 {
		return ledger.ErrItemNotFound
	}

	return nil
}

// escapeLikePattern neutralizes LIKE metacharacters in user input so a
// fragment matches literally.
func escapeLikePattern(fragment string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(fragment)
}
