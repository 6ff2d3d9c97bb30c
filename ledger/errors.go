package ledger

import (
	"errors"
)

// Validation failures - the caller supplied an identifier that does not resolve.
var ErrMemberNotFound = errors.New("member not found")
var ErrItemNotFound = errors.New("item not found")

// State-conflict failures - retrying with the same arguments will fail again.
var ErrItemUnavailable = errors.New("no copies of the item are available")
var ErrLoanNotFound = errors.New("loan not found")
var ErrLoanAlreadyReturned = errors.New("loan was already returned")

// Infrastructure failures - the whole operation was aborted and left no
// partial state behind; the caller may retry the entire operation.
var ErrStoreUnavailable = errors.New("loan store is unavailable")

var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrEmptyTableNameSupplied = errors.New("empty table name supplied")
var ErrBuildingQueryFailed = errors.New("building sql query failed")
var ErrScanningRowFailed = errors.New("scanning database row failed")
