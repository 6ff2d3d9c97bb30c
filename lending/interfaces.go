package lending

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/biblioline/lending-ledger-go/ledger"
)

// LoanStore is the storage contract the service depends on.
// postgresengine.LoanStore is the production implementation.
type LoanStore interface {
	// OpenLoan atomically reserves one copy of the loan's item and records
	// the loan. It returns ledger.ErrItemUnavailable when no copy is free.
	OpenLoan(ctx context.Context, loan ledger.Loan) (ledger.Loan, error)

	// CloseLoan marks the loan as returned with the given penalty and
	// releases its copy. At most one close succeeds per loan; losers get
	// ledger.ErrLoanAlreadyReturned or ledger.ErrLoanNotFound.
	CloseLoan(ctx context.Context, loanID uuid.UUID, returnDate time.Time, penalty int64) (ledger.Loan, error)

	// GetLoan returns the loan with the given id or ledger.ErrLoanNotFound.
	GetLoan(ctx context.Context, loanID uuid.UUID) (ledger.Loan, error)

	// SelectLoans returns the loans matching the filter, in filter order.
	SelectLoans(ctx context.Context, filter ledger.LoanFilter) ([]ledger.Loan, error)
}

// ItemCatalog resolves catalog items for loan verification.
type ItemCatalog interface {
	// GetItem returns the item with the given id or ledger.ErrItemNotFound.
	GetItem(ctx context.Context, itemID uuid.UUID) (ledger.Item, error)
}

// MemberRegistry resolves members for loan verification.
type MemberRegistry interface {
	// GetMember returns the member with the given id or ledger.ErrMemberNotFound.
	GetMember(ctx context.Context, memberID uuid.UUID) (ledger.Member, error)
}
