// Package postgreswrapper builds loan stores on a live Postgres for
// integration tests. The engine type is selected via the LENDING_TEST_ENGINE
// environment variable (pgxpool, sqldb, or sqlx) so the same test suite can
// run against every database adapter.
package postgreswrapper

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/biblioline/lending-ledger-go/config"
	"github.com/biblioline/lending-ledger-go/ledger/postgresengine"
)

const (
	engineTypeEnvVar = "LENDING_TEST_ENGINE"

	typePGXPool = "pgxpool"
	typeSQLDB   = "sqldb"
	typeSQLX    = "sqlx"
)

// Wrapper abstracts over the database adapter a test runs against.
type Wrapper interface {
	GetLoanStore() postgresengine.LoanStore
	Exec(ctx context.Context, query string, args ...any) error
	Close()
}

type pgxPoolWrapper struct {
	pool  *pgxpool.Pool
	store postgresengine.LoanStore
}

func (w *pgxPoolWrapper) GetLoanStore() postgresengine.LoanStore { return w.store }

func (w *pgxPoolWrapper) Exec(ctx context.Context, query string, args ...any) error {
	_, err := w.pool.Exec(ctx, query, args...)
	return err
}

func (w *pgxPoolWrapper) Close() { w.pool.Close() }

type sqlDBWrapper struct {
	db    *sql.DB
	store postgresengine.LoanStore
}

func (w *sqlDBWrapper) GetLoanStore() postgresengine.LoanStore { return w.store }

func (w *sqlDBWrapper) Exec(ctx context.Context, query string, args ...any) error {
	_, err := w.db.ExecContext(ctx, query, args...)
	return err
}

func (w *sqlDBWrapper) Close() { _ = w.db.Close() }

type sqlxWrapper struct {
	db    *sqlx.DB
	store postgresengine.LoanStore
}

func (w *sqlxWrapper) GetLoanStore() postgresengine.LoanStore { return w.store }

func (w *sqlxWrapper) Exec(ctx context.Context, query string, args ...any) error {
	_, err := w.db.ExecContext(ctx, query, args...)
	return err
}

func (w *sqlxWrapper) Close() { _ = w.db.Close() }

// CreateWrapperWithTestConfig builds a wrapper for the engine type selected
// via LENDING_TEST_ENGINE, defaulting to pgxpool. The database settings come
// from the usual LENDING_POSTGRES_* environment variables.
func CreateWrapperWithTestConfig(t *testing.T) Wrapper {
	t.Helper()

	cfg, err := config.LoadPostgres()
	require.NoError(t, err)

	switch engineType(t) {
	case typeSQLDB:
		db, openErr := cfg.OpenSQLDB()
		require.NoError(t, openErr)

		store, storeErr := postgresengine.NewLoanStoreFromSQLDB(db)
		require.NoError(t, storeErr)

		return &sqlDBWrapper{db: db, store: store}

	case typeSQLX:
		db, openErr := cfg.OpenSQLX()
		require.NoError(t, openErr)

		store, storeErr := postgresengine.NewLoanStoreFromSQLX(db)
		require.NoError(t, storeErr)

		return &sqlxWrapper{db: db, store: store}

	default:
		poolConfig, cfgErr := cfg.PGXPoolConfig()
		require.NoError(t, cfgErr)

		pool, poolErr := pgxpool.NewWithConfig(context.Background(), poolConfig)
		require.NoError(t, poolErr)

		store, storeErr := postgresengine.NewLoanStoreFromPGXPool(pool)
		require.NoError(t, storeErr)

		return &pgxPoolWrapper{pool: pool, store: store}
	}
}

// CleanUp truncates the lending tables between test runs.
func CleanUp(t *testing.T, wrapper Wrapper) {
	t.Helper()

	err := wrapper.Exec(context.Background(), `TRUNCATE TABLE loans, items, members`)
	require.NoError(t, err)
}

func engineType(t *testing.T) string {
	t.Helper()

	switch value := os.Getenv(engineTypeEnvVar); value {
	case typeSQLDB, typeSQLX, typePGXPool:
		return value
	case "":
		return typePGXPool
	default:
		t.Fatalf("unsupported %s value: %s", engineTypeEnvVar, value)
		return ""
	}
}
