// Package members manages the library's membership register. Members are
// looked up by id during lending and by email or name at the front desk.
package members

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/biblioline/lending-ledger-go/ledger"
)

// Member is a registered library member. Emails are stored lowercased and
// are unique across the register.
type Member struct {
	ID           uuid.UUID `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	RegisteredAt time.Time `db:"registered_at"`
}

// ErrEmailAlreadyRegistered indicates that another member already uses the
// email address.
var ErrEmailAlreadyRegistered = errors.New("a member with this email is already registered")

const uniqueViolationCode = "23505"

// Store is a Postgres-backed membership register.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a member store on the given database handle.
func NewStore(db *sqlx.DB) (*Store, error) {
	if db == nil {
		return nil, ledger.ErrNilDatabaseConnection
	}

	return &Store{db: db}, nil
}

// Register adds a new member and returns it with its assigned id.
func (s *Store) Register(ctx context.Context, name, email string, registeredAt time.Time) (Member, error) {
	member := Member{
		ID:           uuid.New(),
		Name:         name,
		Email:        strings.ToLower(email),
		RegisteredAt: registeredAt,
	}

	const query = `INSERT INTO members (id, name, email, registered_at)
		VALUES (:id, :name, :email, :registered_at)`

	if _, err := s.db.NamedExecContext(ctx, query, member); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
			return Member{}, ErrEmailAlreadyRegistered
		}

		return Member{}, errors.Join(ledger.ErrStoreUnavailable, err)
	}

	return member, nil
}

// GetByID returns the member with the given id.
func (s *Store) GetByID(ctx context.Context, memberID uuid.UUID) (Member, error) {
	const query = `SELECT id, name, email, registered_at FROM members WHERE id = $1`

	var member Member
	err := s.db.GetContext(ctx, &member, query, memberID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Member{}, ledger.ErrMemberNotFound
	case err != nil:
		return Member{}, errors.Join(ledger.ErrStoreUnavailable, err)
	}

	return member, nil
}

// GetMember implements lending.MemberRegistry.
func (s *Store) GetMember(ctx context.Context, memberID uuid.UUID) (ledger.Member, error) {
	member, err := s.GetByID(ctx, memberID)
	if err != nil {
		return ledger.Member{}, err
	}

	return ledger.Member{ID: member.ID}, nil
}

// FindByEmail returns the member registered under the given email address,
// matched case-insensitively.
func (s *Store) FindByEmail(ctx context.Context, email string) (Member, error) {
	const query = `SELECT id, name, email, registered_at FROM members WHERE email = $1`

	var member Member
	err := s.db.GetContext(ctx, &member, query, strings.ToLower(email))

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Member{}, ledger.ErrMemberNotFound
	case err != nil:
		return Member{}, errors.Join(ledger.ErrStoreUnavailable, err)
	}

	return member, nil
}

// SearchByName returns the members whose name contains the given fragment,
// case-insensitively, ordered by name.
func (s *Store) SearchByName(ctx context.Context, fragment string) ([]Member, error) {
	const query = `SELECT id, name, email, registered_at
		FROM members WHERE name ILIKE $1 ORDER BY name ASC`

	return s.selectMembers(ctx, query, "%"+escapeLikePattern(fragment)+"%")
}

// ListAll returns every registered member ordered by name.
func (s *Store) ListAll(ctx context.Context) ([]Member, error) {
	const query = `SELECT id, name, email, registered_at FROM members ORDER BY name ASC`

	return s.selectMembers(ctx, query)
}

// Remove deletes a member from the register. Their loan history stays intact.
func (s *Store) Remove(ctx context.Context, memberID uuid.UUID) error {
	const query = `DELETE FROM members WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, memberID)
	if err != nil {
		return errors.Join(ledger.ErrStoreUnavailable, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Join(ledger.ErrStoreUnavailable, err)
	}

	if rowsAffected == 0 {
		return ledger.ErrMemberNotFound
	}

	return nil
}

func (s *Store) selectMembers(ctx context.Context, query string, args ...any) ([]Member, error) {
	membersFound := make([]Member, 0)
	if err := s.db.SelectContext(ctx, &membersFound, query, args...); err != nil {
		return nil, errors.Join(ledger.ErrStoreUnavailable, err)
	}

	return membersFound, nil
}

func escapeLikePattern(fragment string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(fragment)
}
