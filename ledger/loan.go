package ledger

import (
	"time"

	"github.com/google/uuid"
)

// LoanPeriodDays is the fixed lending period: the due date of every loan
// is its loan date plus this many days.
const LoanPeriodDays = 14

// Loan represents one member borrowing one copy of an item.
// A loan is open while ReturnDate is nil and closed permanently once it is set;
// there is no other state and no way back.
type Loan struct {
	ID         uuid.UUID
	MemberID   uuid.UUID
	ItemID     uuid.UUID
	LoanDate   time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Penalty    int64
}

// Item is the narrow view of a catalog item the ledger needs:
// its identity and how many copies are currently available for lending.
type Item struct {
	ID              uuid.UUID
	AvailableCopies int64
}

// Member is the opaque identity a loan is attributed to.
type Member struct {
	ID uuid.UUID
}

// DueDateFor computes the due date for a loan opened at loanDate.
func DueDateFor(loanDate time.Time) time.Time {
	return loanDate.AddDate(0, 0, LoanPeriodDays)
}

// BuildOpenLoan creates a new open Loan value for the given member and item.
// The ID is left as uuid.Nil; the loan store assigns it on insert.
func BuildOpenLoan(memberID uuid.UUID, itemID uuid.UUID, loanDate time.Time) Loan {
	return Loan{
		MemberID: memberID,
		ItemID:   itemID,
		LoanDate: loanDate,
		DueDate:  DueDateFor(loanDate),
	}
}

// IsClosed reports whether the loan has been returned.
func (l Loan) IsClosed() bool {
	return l.ReturnDate != nil
}

// effectiveAt is the moment penalty and overdue checks are evaluated against:
// the return date once the loan is closed, the supplied asOf while it is open.
func (l Loan) effectiveAt(asOf time.Time) time.Time {
	if l.ReturnDate != nil {
		return *l.ReturnDate
	}

	return asOf
}

// IsOverdueAsOf reports whether the loan is overdue when evaluated at asOf.
// A closed loan is overdue iff it was returned strictly after its due date,
// an open loan iff asOf is strictly after its due date.
func (l Loan) IsOverdueAsOf(asOf time.Time) bool {
	return l.effectiveAt(asOf).After(l.DueDate)
}

// PenaltyAsOf returns the penalty for the loan when evaluated at asOf.
// For a closed loan this is the penalty fixed at close time; for an open
// loan it is the penalty that would be assessed if it were returned at asOf.
func (l Loan) PenaltyAsOf(asOf time.Time) int64 {
	if l.IsClosed() {
		return l.Penalty
	}

	return PenaltyFor(l.DueDate, asOf)
}

// OverdueDaysAsOf returns the number of whole days the loan is late at asOf,
// zero when it is not overdue.
func (l Loan) OverdueDaysAsOf(asOf time.Time) int64 {
	return lateDays(l.DueDate, l.effectiveAt(asOf))
}
