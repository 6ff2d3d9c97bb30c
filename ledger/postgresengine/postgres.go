package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/biblioline/lending-ledger-go/ledger"
	"github.com/biblioline/lending-ledger-go/ledger/postgresengine/internal/adapters"
)

const (
	defaultLoanTableName = "loans"
	defaultItemTableName = "items"

	logMsgBuildQueryFailed   = "failed to build sql query"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database execution failed"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgBeginTxFailed      = "failed to begin transaction"
	logMsgCommitTxFailed     = "failed to commit transaction"
	logMsgRollbackTxFailed   = "failed to roll back transaction"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgLoanOpened         = "loan opened"
	logMsgLoanClosed         = "loan closed"
	logMsgQueryCompleted     = "query completed"
	logMsgNoCopyAvailable    = "copy reservation found no available copy"
	logMsgCloseRaceLost      = "close-loan compare-and-set affected no row"
	logMsgSQLExecuted        = "executed sql for: "
	logMsgOperation          = "loan store operation: "

	logAttrError      = "error"
	logAttrQuery      = "query"
	logAttrLoanID     = "loan_id"
	logAttrItemID     = "item_id"
	logAttrMemberID   = "member_id"
	logAttrLoanCount  = "loan_count"
	logAttrPenalty    = "penalty"
	logAttrDurationMS = "duration_ms"

	colLoanID     = "id"
	colMemberID   = "member_id"
	colItemID     = "item_id"
	colLoanDate   = "loan_date"
	colDueDate    = "due_date"
	colReturnDate = "return_date"
	colPenalty    = "penalty"

	colItemPK          = "id"
	colAvailableCopies = "available_copies"

	dialectPostgres = "postgres"
)

type (
	sqlQueryString    = string
	rowsAffectedInt64 = int64
)

// LoanStore is the Postgres-backed Loan Record Store and Inventory Ledger.
//
// Both lifecycle transitions are single database transactions: OpenLoan
// reserves a copy with a conditional decrement and inserts the loan row,
// CloseLoan fixes the return date and penalty with a compare-and-set and
// releases the copy. Either both mutations of a transition persist or
// neither does.
type LoanStore struct {
	db               adapters.DBAdapter
	loanTableName    string
	itemTableName    string
	logger           ledger.Logger
	metricsCollector ledger.MetricsCollector
	tracingCollector ledger.TracingCollector
	contextualLogger ledger.ContextualLogger
}

// NewLoanStoreFromPGXPool creates a new LoanStore using a pgx Pool with optional configuration.
func NewLoanStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (LoanStore, error) {
	if db == nil {
		return LoanStore{}, ledger.ErrNilDatabaseConnection
	}

	return newLoanStore(adapters.NewPGXAdapter(db), options...)
}

// NewLoanStoreFromPGXPoolWithReplica creates a new LoanStore using a primary pgx Pool
// and a replica pool used for eventually consistent reads.
func NewLoanStoreFromPGXPoolWithReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (LoanStore, error) {
	if db == nil || replica == nil {
		return LoanStore{}, ledger.ErrNilDatabaseConnection
	}

	return newLoanStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewLoanStoreFromSQLDB creates a new LoanStore using a sql.DB with optional configuration.
func NewLoanStoreFromSQLDB(db *sql.DB, options ...Option) (LoanStore, error) {
	if db == nil {
		return LoanStore{}, ledger.ErrNilDatabaseConnection
	}

	return newLoanStore(adapters.NewSQLAdapter(db), options...)
}

// NewLoanStoreFromSQLX creates a new LoanStore using a sqlx.DB with optional configuration.
func NewLoanStoreFromSQLX(db *sqlx.DB, options ...Option) (LoanStore, error) {
	if db == nil {
		return LoanStore{}, ledger.ErrNilDatabaseConnection
	}

	return newLoanStore(adapters.NewSQLXAdapter(db), options...)
}

func newLoanStore(db adapters.DBAdapter, options ...Option) (LoanStore, error) {
	ls := LoanStore{
		db:            db,
		loanTableName: defaultLoanTableName,
		itemTableName: defaultItemTableName,
	}

	for _, option := range options {
		if err := option(&ls); err != nil {
			return LoanStore{}, err
		}
	}

	return ls, nil
}

// OpenLoan atomically reserves one copy of the loan's item and inserts the
// loan record. It assigns a fresh id when the supplied loan carries none and
// returns the stored loan.
//
// The copy reservation is a conditional decrement: when no copy is available
// the whole transaction is rolled back and ledger.ErrItemUnavailable is
// returned without any state change. A missing item behaves the same way.
// Infrastructure failures roll back as well and are reported joined with
// ledger.ErrStoreUnavailable.
func (ls LoanStore) OpenLoan(ctx context.Context, loan ledger.Loan) (ledger.Loan, error) {
	var empty ledger.Loan

	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}

	spanCtx, span := ls.startSpan(ctx, spanNameOpenLoan, map[string]string{
		spanAttrOperation: operationOpenLoan,
		spanAttrItemID:    loan.ItemID.String(),
	})
	ctx = spanCtx

	reserveQuery, buildErr := ls.buildReserveCopyQuery(loan.ItemID)
	if buildErr != nil {
		ls.finishSpanError(span, errorTypeBuildQuery, 0)
		return empty, buildErr
	}

	insertQuery, buildErr := ls.buildInsertLoanQuery(loan)
	if buildErr != nil {
		ls.finishSpanError(span, errorTypeBuildQuery, 0)
		return empty, buildErr
	}

	start := time.Now()

	tx, beginErr := ls.beginTx(ctx)
	if beginErr != nil {
		ls.recordErrorMetrics(ctx, operationOpenLoan, errorTypeDatabase)
		ls.finishSpanError(span, errorTypeDatabase, time.Since(start))

		return empty, beginErr
	}

	reserved, execErr := ls.execInTx(ctx, tx, reserveQuery, operationOpenLoan)
	if execErr != nil {
		ls.rollbackTx(ctx, tx)
		ls.recordErrorMetrics(ctx, operationOpenLoan, errorTypeDatabase)
		ls.finishSpanError(span, errorTypeDatabase, time.Since(start))

		return empty, execErr
	}

	if reserved == 0 {
		ls.rollbackTx(ctx, tx)
		ls.logOperation(ctx, logMsgNoCopyAvailable, logAttrItemID, loan.ItemID.String())
		ls.recordConflictMetrics(ctx, operationOpenLoan, conflictTypeItemUnavailable)
		ls.finishSpanError(span, errorTypeItemUnavailable, time.Since(start))

		return empty, ledger.ErrItemUnavailable
	}

	// the rollback undoes the reservation, keeping both mutations one atomic unit
	if _, execErr = ls.execInTx(ctx, tx, insertQuery, operationOpenLoan); execErr != nil {
		ls.rollbackTx(ctx, tx)
		ls.recordErrorMetrics(ctx, operationOpenLoan, errorTypeDatabase)
		ls.finishSpanError(span, errorTypeDatabase, time.Since(start))

		return empty, execErr
	}

	if commitErr := ls.commitTx(ctx, tx); commitErr != nil {
		ls.recordErrorMetrics(ctx, operationOpenLoan, errorTypeDatabase)
		ls.finishSpanError(span, errorTypeDatabase, time.Since(start))

		return empty, commitErr
	}

	duration := time.Since(start)
	ls.logOperation(ctx, logMsgLoanOpened,
		logAttrLoanID, loan.ID.String(),
		logAttrMemberID, loan.MemberID.String(),
		logAttrItemID, loan.ItemID.String(),
		logAttrDurationMS, ls.toMilliseconds(duration))
	ls.recordDurationMetrics(ctx, metricOpenLoanDuration, duration, operationOpenLoan, statusSuccess)
	ls.finishSpanSuccess(span, duration, map[string]string{spanAttrLoanID: loan.ID.String()})

	return loan, nil
}

// CloseLoan atomically fixes the return date and penalty on an open loan and
// releases the reserved copy back to the item's counter.
//
// The loan update is a compare-and-set on the return date (WHERE return_date
// IS NULL), so at most one of any number of concurrent close attempts can
// succeed. A lost race or an unknown id rolls back and is reported as
// ledger.ErrLoanAlreadyReturned respectively ledger.ErrLoanNotFound.
func (ls LoanStore) CloseLoan(
	ctx context.Context,
	loanID uuid.UUID,
	returnDate time.Time,
	penalty int64,
) (ledger.Loan, error) {

	var empty ledger.Loan

	spanCtx, span := ls.startSpan(ctx, spanNameCloseLoan, map[string]string{
		spanAttrOperation: operationCloseLoan,
		spanAttrLoanID:    loanID.String(),
	})
	ctx = spanCtx

	closeQuery, buildErr := ls.buildCloseLoanQuery(loanID, returnDate, penalty)
	if buildErr != nil {
		ls.finishSpanError(span, errorTypeBuildQuery, 0)
		return empty, buildErr
	}

	start := time.Now()

	tx, beginErr := ls.beginTx(ctx)
	if beginErr != nil {
		ls.recordErrorMetrics(ctx, operationCloseLoan, errorTypeDatabase)
		ls.finishSpanError(span, errorTypeDatabase, time.Since(start))

		return empty, beginErr
	}

	closed, closedLoan, casErr := ls.executeCloseCAS(ctx, tx, closeQuery, loanID, returnDate, penalty)
	if casErr != nil {
		ls.rollbackTx(ctx, tx)
		ls.recordErrorMetrics(ctx, operationCloseLoan, errorTypeDatabase)
		ls.finishSpanError(span, errorTypeDatabase, time.Since(start))

		return empty, casErr
	}

	if !closed {
		ls.rollbackTx(ctx, tx)
		return empty, ls.resolveLostCloseRace(ctx, span, loanID, start)
	}

	releaseQuery, buildErr := ls.buildReleaseCopyQuery(closedLoan.ItemID)
	if buildErr != nil {
		ls.rollbackTx(ctx, tx)
		ls.finishSpanError(span, errorTypeBuildQuery, time.Since(start))

		return empty, buildErr
	}

	if _, execErr := ls.execInTx(ctx, tx, releaseQuery, operationCloseLoan); execErr != nil {
		ls.rollbackTx(ctx, tx)
		ls.recordErrorMetrics(ctx, operationCloseLoan, errorTypeDatabase)
		ls.finishSpanError(span, errorTypeDatabase, time.Since(start))

		return empty, execErr
	}

	if commitErr := ls.commitTx(ctx, tx); commitErr != nil {
		ls.recordErrorMetrics(ctx, operationCloseLoan, errorTypeDatabase)
		ls.finishSpanError(span, errorTypeDatabase, time.Since(start))

		return empty, commitErr
	}

	duration := time.Since(start)
	ls.logOperation(ctx, logMsgLoanClosed,
		logAttrLoanID, loanID.String(),
		logAttrItemID, closedLoan.ItemID.String(),
		logAttrPenalty, penalty,
		logAttrDurationMS, ls.toMilliseconds(duration))
	ls.recordDurationMetrics(ctx, metricCloseLoanDuration, duration, operationCloseLoan, statusSuccess)
	ls.finishSpanSuccess(span, duration, map[string]string{spanAttrLoanID: loanID.String()})

	return closedLoan, nil
}

// executeCloseCAS runs the compare-and-set update and, when it wins, scans
// the returned columns into the closed loan value.
func (ls LoanStore) executeCloseCAS(
	ctx context.Context,
	tx adapters.DBTx,
	closeQuery sqlQueryString,
	loanID uuid.UUID,
	returnDate time.Time,
	penalty int64,
) (bool, ledger.Loan, error) {

	var empty ledger.Loan

	queryStart := time.Now()
	rows, queryErr := tx.Query(ctx, closeQuery)
	ls.logQueryWithDuration(ctx, closeQuery, operationCloseLoan, time.Since(queryStart))

	if queryErr != nil {
		ls.logError(ctx, logMsgDBExecFailed, queryErr, logAttrQuery, closeQuery)
		return false, empty, errors.Join(ledger.ErrStoreUnavailable, queryErr)
	}
	defer ls.closeRows(ctx, rows)

	if !rows.Next() {
		return false, empty, nil
	}

	var memberID, itemID uuid.UUID
	var loanDate, dueDate time.Time

	if scanErr := rows.Scan(&memberID, &itemID, &loanDate, &dueDate); scanErr != nil {
		ls.logError(ctx, logMsgScanRowFailed, scanErr)
		return false, empty, errors.Join(ledger.ErrScanningRowFailed, scanErr)
	}

	closedLoan := ledger.Loan{
		ID:         loanID,
		MemberID:   memberID,
		ItemID:     itemID,
		LoanDate:   loanDate,
		DueDate:    dueDate,
		ReturnDate: &returnDate,
		Penalty:    penalty,
	}

	return true, closedLoan, nil
}

// resolveLostCloseRace distinguishes an unknown loan id from a loan that was
// already returned after the compare-and-set affected no row.
func (ls LoanStore) resolveLostCloseRace(
	ctx context.Context,
	span ledger.SpanContext,
	loanID uuid.UUID,
	start time.Time,
) error {

	existing, getErr := ls.GetLoan(ledger.WithStrongConsistency(ctx), loanID)
	if getErr != nil {
		if errors.Is(getErr, ledger.ErrLoanNotFound) {
			ls.recordConflictMetrics(ctx, operationCloseLoan, conflictTypeLoanNotFound)
			ls.finishSpanError(span, errorTypeLoanNotFound, time.Since(start))

			return ledger.ErrLoanNotFound
		}

		ls.recordErrorMetrics(ctx, operationCloseLoan, errorTypeDatabase)
		ls.finishSpanError(span, errorTypeDatabase, time.Since(start))

		return getErr
	}

	if existing.IsClosed() {
		ls.logOperation(ctx, logMsgCloseRaceLost, logAttrLoanID, loanID.String())
		ls.recordConflictMetrics(ctx, operationCloseLoan, conflictTypeAlreadyReturned)
		ls.finishSpanError(span, errorTypeAlreadyReturned, time.Since(start))

		return ledger.ErrLoanAlreadyReturned
	}

	// the loan exists and is open, yet the update hit nothing: a transient
	// anomaly, the caller should retry the whole operation
	ls.recordErrorMetrics(ctx, operationCloseLoan, errorTypeDatabase)
	ls.finishSpanError(span, errorTypeDatabase, time.Since(start))

	return ledger.ErrStoreUnavailable
}

// GetLoan retrieves a single loan by id, returning ledger.ErrLoanNotFound
// when no such loan exists.
func (ls LoanStore) GetLoan(ctx context.Context, loanID uuid.UUID) (ledger.Loan, error) {
	var empty ledger.Loan

	sqlQuery, buildErr := ls.buildGetLoanQuery(loanID)
	if buildErr != nil {
		return empty, buildErr
	}

	loans, err := ls.queryLoans(ctx, sqlQuery, operationGetLoan)
	if err != nil {
		return empty, err
	}

	if len(loans) == 0 {
		return empty, ledger.ErrLoanNotFound
	}

	return loans[0], nil
}

// SelectLoans enumerates loan records matching the filter, in the filter's
// ordering. All read projections (active, overdue, history) are built on it.
func (ls LoanStore) SelectLoans(ctx context.Context, filter ledger.LoanFilter) ([]ledger.Loan, error) {
	sqlQuery, buildErr := ls.buildSelectQuery(filter)
	if buildErr != nil {
		return nil, buildErr
	}

	start := time.Now()

	loans, err := ls.queryLoans(ctx, sqlQuery, operationSelectLoans)
	if err != nil {
		ls.recordErrorMetrics(ctx, operationSelectLoans, errorTypeDatabase)
		return nil, err
	}

	duration := time.Since(start)
	ls.logOperation(ctx, logMsgQueryCompleted,
		logAttrLoanCount, len(loans),
		logAttrDurationMS, ls.toMilliseconds(duration))
	ls.recordDurationMetrics(ctx, metricSelectLoansDuration, duration, operationSelectLoans, statusSuccess)

	return loans, nil
}

// queryLoans executes a select statement and scans all resulting loan rows.
func (ls LoanStore) queryLoans(ctx context.Context, sqlQuery sqlQueryString, operation string) ([]ledger.Loan, error) {
	start := time.Now()
	rows, queryErr := ls.db.Query(ctx, sqlQuery)
	ls.logQueryWithDuration(ctx, sqlQuery, operation, time.Since(start))

	if queryErr != nil {
		ls.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return nil, errors.Join(ledger.ErrStoreUnavailable, queryErr)
	}
	defer ls.closeRows(ctx, rows)

	loans := make([]ledger.Loan, 0)

	for rows.Next() {
		loan, scanErr := ls.scanLoan(rows)
		if scanErr != nil {
			ls.logError(ctx, logMsgScanRowFailed, scanErr)
			return nil, errors.Join(ledger.ErrScanningRowFailed, scanErr)
		}

		loans = append(loans, loan)
	}

	return loans, nil
}

// scanLoan converts one database row into a ledger.Loan.
func (ls LoanStore) scanLoan(rows adapters.DBRows) (ledger.Loan, error) {
	var empty ledger.Loan
	var id, memberID, itemID uuid.UUID
	var loanDate, dueDate time.Time
	var returnDate sql.NullTime
	var penalty int64

	if err := rows.Scan(&id, &memberID, &itemID, &loanDate, &dueDate, &returnDate, &penalty); err != nil {
		return empty, err
	}

	loan := ledger.Loan{
		ID:       id,
		MemberID: memberID,
		ItemID:   itemID,
		LoanDate: loanDate,
		DueDate:  dueDate,
		Penalty:  penalty,
	}

	if returnDate.Valid {
		returnedAt := returnDate.Time
		loan.ReturnDate = &returnedAt
	}

	return loan, nil
}

/***** query building *****/

func (ls LoanStore) buildReserveCopyQuery(itemID uuid.UUID) (sqlQueryString, error) {
	stmt := goqu.Dialect(dialectPostgres).
		Update(ls.itemTableName).
		Set(goqu.Record{colAvailableCopies: goqu.L(colAvailableCopies + " - 1")}).
		Where(
			goqu.C(colItemPK).Eq(itemID.String()),
			goqu.C(colAvailableCopies).Gt(0),
		)

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		ls.logError(context.Background(), logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(ledger.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (ls LoanStore) buildReleaseCopyQuery(itemID uuid.UUID) (sqlQueryString, error) {
	stmt := goqu.Dialect(dialectPostgres).
		Update(ls.itemTableName).
		Set(goqu.Record{colAvailableCopies: goqu.L(colAvailableCopies + " + 1")}).
		Where(goqu.C(colItemPK).Eq(itemID.String()))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		ls.logError(context.Background(), logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(ledger.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (ls LoanStore) buildInsertLoanQuery(loan ledger.Loan) (sqlQueryString, error) {
	stmt := goqu.Dialect(dialectPostgres).
		Insert(ls.loanTableName).
		Cols(colLoanID, colMemberID, colItemID, colLoanDate, colDueDate, colPenalty).
		Vals(goqu.Vals{
			loan.ID.String(),
			loan.MemberID.String(),
			loan.ItemID.String(),
			loan.LoanDate,
			loan.DueDate,
			loan.Penalty,
		})

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		ls.logError(context.Background(), logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(ledger.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (ls LoanStore) buildCloseLoanQuery(
	loanID uuid.UUID,
	returnDate time.Time,
	penalty int64,
) (sqlQueryString, error) {

	stmt := goqu.Dialect(dialectPostgres).
		Update(ls.loanTableName).
		Set(goqu.Record{
			colReturnDate: returnDate,
			colPenalty:    penalty,
		}).
		Where(
			goqu.C(colLoanID).Eq(loanID.String()),
			goqu.C(colReturnDate).IsNull(),
		).
		Returning(colMemberID, colItemID, colLoanDate, colDueDate)

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		ls.logError(context.Background(), logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(ledger.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (ls LoanStore) buildGetLoanQuery(loanID uuid.UUID) (sqlQueryString, error) {
	stmt := ls.selectLoanColumns().
		Where(goqu.C(colLoanID).Eq(loanID.String()))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		ls.logError(context.Background(), logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(ledger.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (ls LoanStore) buildSelectQuery(filter ledger.LoanFilter) (sqlQueryString, error) {
	stmt := ls.selectLoanColumns()
	stmt = ls.addWhereClause(filter, stmt)

	switch filter.Ordering() {
	case ledger.OrderByLoanDateDesc:
		stmt = stmt.Order(goqu.I(colLoanDate).Desc())
	case ledger.OrderByDueDateAsc:
		stmt = stmt.Order(goqu.I(colDueDate).Asc())
	}

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		ls.logError(context.Background(), logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(ledger.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (ls LoanStore) selectLoanColumns() *goqu.SelectDataset {
	return goqu.Dialect(dialectPostgres).
		From(ls.loanTableName).
		Select(colLoanID, colMemberID, colItemID, colLoanDate, colDueDate, colReturnDate, colPenalty)
}

func (ls LoanStore) addWhereClause(filter ledger.LoanFilter, stmt *goqu.SelectDataset) *goqu.SelectDataset {
	expressions := make([]goqu.Expression, 0)

	switch filter.Status() {
	case ledger.OnlyOpenLoans:
		expressions = append(expressions, goqu.C(colReturnDate).IsNull())
	case ledger.OnlyClosedLoans:
		expressions = append(expressions, goqu.C(colReturnDate).IsNotNull())
	case ledger.AnyLoanStatus:
	}

	if memberID, restricted := filter.MemberID(); restricted {
		expressions = append(expressions, goqu.C(colMemberID).Eq(memberID.String()))
	}

	if cutoff, restricted := filter.DueBefore(); restricted {
		expressions = append(expressions, goqu.C(colDueDate).Lt(cutoff))
	}

	if len(expressions) > 0 {
		stmt = stmt.Where(expressions...)
	}

	return stmt
}

/***** transaction plumbing *****/

// beginTx starts a transaction, mapping failures to ErrStoreUnavailable.
func (ls LoanStore) beginTx(ctx context.Context) (adapters.DBTx, error) {
	tx, beginErr := ls.db.Begin(ctx)
	if beginErr != nil {
		ls.logError(ctx, logMsgBeginTxFailed, beginErr)
		return nil, errors.Join(ledger.ErrStoreUnavailable, beginErr)
	}

	return tx, nil
}

// execInTx executes a statement inside the transaction and returns the
// number of affected rows, mapping failures to ErrStoreUnavailable.
func (ls LoanStore) execInTx(
	ctx context.Context,
	tx adapters.DBTx,
	sqlQuery sqlQueryString,
	operation string,
) (rowsAffectedInt64, error) {

	start := time.Now()
	result, execErr := tx.Exec(ctx, sqlQuery)
	ls.logQueryWithDuration(ctx, sqlQuery, operation, time.Since(start))

	if execErr != nil {
		ls.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		return 0, errors.Join(ledger.ErrStoreUnavailable, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		ls.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)
		return 0, errors.Join(ledger.ErrStoreUnavailable, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// commitTx commits the transaction, mapping failures to ErrStoreUnavailable.
func (ls LoanStore) commitTx(ctx context.Context, tx adapters.DBTx) error {
	if commitErr := tx.Commit(ctx); commitErr != nil {
		ls.logError(ctx, logMsgCommitTxFailed, commitErr)
		return errors.Join(ledger.ErrStoreUnavailable, commitErr)
	}

	return nil
}

// rollbackTx rolls the transaction back and logs failures; a failed rollback
// leaves the transaction to the database's idle timeout.
func (ls LoanStore) rollbackTx(ctx context.Context, tx adapters.DBTx) {
	if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
		ls.logWarn(ctx, logMsgRollbackTxFailed, logAttrError, rollbackErr.Error())
	}
}

// closeRows safely closes database rows and logs any errors.
func (ls LoanStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		ls.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}
