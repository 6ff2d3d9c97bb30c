// Package lending implements the loan lifecycle on top of a loan store:
// opening a loan for a verified member and item, closing it with a late-return
// penalty, and the read-side queries over open, overdue, and historical loans.
//
// The package owns the business protocol (verification order, penalty
// assessment, query shapes) and delegates all storage races to the store,
// which guarantees that reserving a copy and recording the loan happen
// atomically and that a loan closes at most once.
package lending
