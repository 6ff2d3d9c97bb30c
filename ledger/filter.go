package ledger

import (
	"time"

	"github.com/google/uuid"
)

// LoanStatusFilter narrows a loan enumeration to open loans, closed loans,
// or both.
type LoanStatusFilter int

const (
	AnyLoanStatus LoanStatusFilter = iota
	OnlyOpenLoans
	OnlyClosedLoans
)

// LoanOrdering determines the order in which loan records are returned.
type LoanOrdering int

const (
	// OrderByDueDateAsc sorts soonest-due first; the order used for the
	// open and overdue projections.
	OrderByDueDateAsc LoanOrdering = iota

	// OrderByLoanDateDesc sorts newest first; the order used for history.
	OrderByLoanDateDesc
)

// LoanFilter is a storage-agnostic description of a loan enumeration,
// to be translated into the concrete query language by a store
// implementation (Postgres, in-memory, ...). Build one with BuildLoanFilter.
type LoanFilter struct {
	status       LoanStatusFilter
	memberID     uuid.UUID
	hasMemberID  bool
	dueBefore    time.Time
	hasDueBefore bool
	ordering     LoanOrdering
}

// Status returns the status restriction of the filter.
func (f LoanFilter) Status() LoanStatusFilter {
	return f.status
}

// MemberID returns the member restriction of the filter and whether one is set.
func (f LoanFilter) MemberID() (uuid.UUID, bool) {
	return f.memberID, f.hasMemberID
}

// DueBefore returns the due-date cutoff of the filter and whether one is set.
// When set, only loans with a due date strictly before the cutoff match.
func (f LoanFilter) DueBefore() (time.Time, bool) {
	return f.dueBefore, f.hasDueBefore
}

// Ordering returns the ordering of the filter.
func (f LoanFilter) Ordering() LoanOrdering {
	return f.ordering
}

// Matches reports whether the given loan satisfies the filter restrictions.
// Store implementations that hold loans in memory use it directly; SQL
// engines translate the restrictions into WHERE clauses instead.
func (f LoanFilter) Matches(loan Loan) bool {
	switch f.status {
	case OnlyOpenLoans:
		if loan.IsClosed() {
			return false
		}
	case OnlyClosedLoans:
		if !loan.IsClosed() {
			return false
		}
	case AnyLoanStatus:
	}

	if f.hasMemberID && loan.MemberID != f.memberID {
		return false
	}

	if f.hasDueBefore && !loan.DueDate.Before(f.dueBefore) {
		return false
	}

	return true
}

// LoanFilterBuilder builds a LoanFilter step by step. All methods return the
// builder by value, so partially built filters can be reused safely.
//
// Useful combinations:
//
//   - BuildLoanFilter().Finalize()                                  -> full history
//   - BuildLoanFilter().OnlyOpen().Finalize()                       -> active loans
//   - BuildLoanFilter().OnlyOpen().DueBefore(asOf).Finalize()       -> overdue loans
//   - BuildLoanFilter().ForMember(id).OrderedByLoanDateDesc().Finalize()
type LoanFilterBuilder struct {
	filter LoanFilter
}

// BuildLoanFilter starts a new LoanFilter; it must be completed with Finalize.
// The default filter matches every loan, ordered by due date ascending.
func BuildLoanFilter() LoanFilterBuilder {
	return LoanFilterBuilder{}
}

// OnlyOpen restricts the filter to loans that have not been returned yet.
func (b LoanFilterBuilder) OnlyOpen() LoanFilterBuilder {
	b.filter.status = OnlyOpenLoans
	return b
}

// OnlyClosed restricts the filter to loans that have been returned.
func (b LoanFilterBuilder) OnlyClosed() LoanFilterBuilder {
	b.filter.status = OnlyClosedLoans
	return b
}

// ForMember restricts the filter to loans of the given member.
func (b LoanFilterBuilder) ForMember(memberID uuid.UUID) LoanFilterBuilder {
	b.filter.memberID = memberID
	b.filter.hasMemberID = true

	return b
}

// DueBefore restricts the filter to loans whose due date lies strictly
// before the cutoff.
func (b LoanFilterBuilder) DueBefore(cutoff time.Time) LoanFilterBuilder {
	b.filter.dueBefore = cutoff
	b.filter.hasDueBefore = true

	return b
}

// OrderedByDueDate orders the result by due date ascending (the default).
func (b LoanFilterBuilder) OrderedByDueDate() LoanFilterBuilder {
	b.filter.ordering = OrderByDueDateAsc
	return b
}

// OrderedByLoanDateDesc orders the result by loan date descending.
func (b LoanFilterBuilder) OrderedByLoanDateDesc() LoanFilterBuilder {
	b.filter.ordering = OrderByLoanDateDesc
	return b
}

// Finalize returns the built LoanFilter.
func (b LoanFilterBuilder) Finalize() LoanFilter {
	return b.filter
}
