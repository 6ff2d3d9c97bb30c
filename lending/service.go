package lending

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/biblioline/lending-ledger-go/ledger"
)

// Service implements the lending use cases. Lifecycle operations run with
// strong consistency so verification and conditional writes see the primary;
// list queries run with eventual consistency and may be served by a replica.
type Service struct {
	loans   LoanStore
	catalog ItemCatalog
	members MemberRegistry
}

// NewService wires a lending service from its three dependencies.
func NewService(loans LoanStore, catalog ItemCatalog, members MemberRegistry) *Service {
	return &Service{
		loans:   loans,
		catalog: catalog,
		members: members,
	}
}

// OpenLoan lends one copy of an item to a member as of the given time.
// The member and item are verified first, so an unknown member is reported
// before an unknown item, and an unknown item before an exhausted one.
// The due date is the loan date plus the lending period.
func (s *Service) OpenLoan(ctx context.Context, memberID uuid.UUID, itemID uuid.UUID, asOf time.Time) (ledger.Loan, error) {
	ctx = ledger.WithStrongConsistency(ctx)

	if _, err := s.members.GetMember(ctx, memberID); err != nil {
		return ledger.Loan{}, err
	}

	if _, err := s.catalog.GetItem(ctx, itemID); err != nil {
		return ledger.Loan{}, err
	}

	return s.loans.OpenLoan(ctx, ledger.BuildOpenLoan(memberID, itemID, asOf))
}

// CloseLoan records the return of a loan as of the given time and assesses
// the late-return penalty against the loan's due date. Closing an already
// returned loan reports ledger.ErrLoanAlreadyReturned and leaves the stored
// penalty untouched.
func (s *Service) CloseLoan(ctx context.Context, loanID uuid.UUID, returnDate time.Time) (ledger.Loan, error) {
	ctx = ledger.WithStrongConsistency(ctx)

	loan, err := s.loans.GetLoan(ctx, loanID)
	if err != nil {
		return ledger.Loan{}, err
	}

	if loan.IsClosed() {
		return ledger.Loan{}, ledger.ErrLoanAlreadyReturned
	}

	penalty := ledger.PenaltyFor(loan.DueDate, returnDate)

	// The store's compare-and-set resolves concurrent closes; a lost race
	// surfaces as ErrLoanAlreadyReturned here too.
	return s.loans.CloseLoan(ctx, loanID, returnDate, penalty)
}

// GetLoan returns a single loan by id.
func (s *Service) GetLoan(ctx context.Context, loanID uuid.UUID) (ledger.Loan, error) {
	return s.loans.GetLoan(ledger.WithStrongConsistency(ctx), loanID)
}

// ListOpen returns all open loans ordered by due date, soonest first.
func (s *Service) ListOpen(ctx context.Context) ([]ledger.Loan, error) {
	filter := ledger.BuildLoanFilter().
		OnlyOpen().
		OrderedByDueDate().
		Finalize()

	return s.loans.SelectLoans(ledger.WithEventualConsistency(ctx), filter)
}

// ListOverdue returns the open loans whose due date lies strictly before
// the given time, ordered by due date, most overdue first.
func (s *Service) ListOverdue(ctx context.Context, asOf time.Time) ([]ledger.Loan, error) {
	filter := ledger.BuildLoanFilter().
		OnlyOpen().
		DueBefore(asOf).
		OrderedByDueDate().
		Finalize()

	return s.loans.SelectLoans(ledger.WithEventualConsistency(ctx), filter)
}

// ListHistory returns every loan ever recorded, newest loan date first.
func (s *Service) ListHistory(ctx context.Context) ([]ledger.Loan, error) {
	filter := ledger.BuildLoanFilter().
		OrderedByLoanDateDesc().
		Finalize()

	return s.loans.SelectLoans(ledger.WithEventualConsistency(ctx), filter)
}

// ListHistoryForMember returns a member's loans, newest loan date first.
func (s *Service) ListHistoryForMember(ctx context.Context, memberID uuid.UUID) ([]ledger.Loan, error) {
	filter := ledger.BuildLoanFilter().
		ForMember(memberID).
		OrderedByLoanDateDesc().
		Finalize()

	return s.loans.SelectLoans(ledger.WithEventualConsistency(ctx), filter)
}

// TotalOutstandingPenalty sums the penalties that all open loans have
// accrued as of the given time. Closed loans keep their assessed penalty
// and are not part of the outstanding total.
func (s *Service) TotalOutstandingPenalty(ctx context.Context, asOf time.Time) (int64, error) {
	openLoans, err := s.ListOpen(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, loan := range openLoans {
		total += loan.PenaltyAsOf(asOf)
	}

	return total, nil
}
