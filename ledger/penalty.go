package ledger

import "time"

// PenaltyPerDay is the charge, in currency units, for each day a loan is late.
const PenaltyPerDay = int64(100)

const day = 24 * time.Hour

// PenaltyFor computes the penalty for a loan with the given due date when it
// is (or would be) returned at effectiveAt. It is a pure function: the same
// pair of timestamps always yields the same penalty, whether it is evaluated
// at close time with the actual return date or against a still-open loan.
//
// An on-time return (effectiveAt <= dueDate) costs nothing. A late return
// costs PenaltyPerDay per whole elapsed day; an overage of less than one
// day still counts as one full day.
func PenaltyFor(dueDate time.Time, effectiveAt time.Time) int64 {
	if !effectiveAt.After(dueDate) {
		return 0
	}

	days := lateDays(dueDate, effectiveAt)
	if days == 0 {
		days = 1 // late by less than a day still counts
	}

	return days * PenaltyPerDay
}

// lateDays returns the number of whole days effectiveAt lies after dueDate,
// zero when it does not.
func lateDays(dueDate time.Time, effectiveAt time.Time) int64 {
	if !effectiveAt.After(dueDate) {
		return 0
	}

	return int64(effectiveAt.Sub(dueDate) / day)
}
