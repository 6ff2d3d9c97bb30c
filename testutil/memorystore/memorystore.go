// Package memorystore provides in-memory implementations of the lending
// storage contracts for tests. The store mirrors the concurrency semantics of
// the Postgres engine: opening a loan reserves a copy and records the loan as
// one atomic step, and a loan closes at most once.
package memorystore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/biblioline/lending-ledger-go/ledger"
)

// Store implements lending.LoanStore and lending.ItemCatalog.
type Store struct {
	mu    sync.Mutex
	items map[uuid.UUID]ledger.Item
	loans map[uuid.UUID]ledger.Loan

	failNextInsert error
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		items: make(map[uuid.UUID]ledger.Item),
		loans: make(map[uuid.UUID]ledger.Loan),
	}
}

// AddItem seeds an item with the given number of available copies.
func (s *Store) AddItem(itemID uuid.UUID, availableCopies int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[itemID] = ledger.Item{ID: itemID, AvailableCopies: availableCopies}
}

// AvailableCopies reports the current free copies of an item.
func (s *Store) AvailableCopies(itemID uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.items[itemID].AvailableCopies
}

// FailNextInsert makes the next OpenLoan fail after reserving a copy, as a
// storage failure would. The reservation is rolled back, like the Postgres
// engine does inside its transaction.
func (s *Store) FailNextInsert(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failNextInsert = err
}

// GetItem implements lending.ItemCatalog.
func (s *Store) GetItem(_ context.Context, itemID uuid.UUID) (ledger.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[itemID]
	if !exists {
		return ledger.Item{}, ledger.ErrItemNotFound
	}

	return item, nil
}

// OpenLoan implements lending.LoanStore.
func (s *Store) OpenLoan(_ context.Context, loan ledger.Loan) (ledger.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[loan.ItemID]
	if !exists || item.AvailableCopies <= 0 {
		return ledger.Loan{}, ledger.ErrItemUnavailable
	}

	if s.failNextInsert != nil {
		err := s.failNextInsert
		s.failNextInsert = nil

		return ledger.Loan{}, errors.Join(ledger.ErrStoreUnavailable, err)
	}

	item.AvailableCopies--
	s.items[loan.ItemID] = item

	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	s.loans[loan.ID] = loan

	return loan, nil
}

// CloseLoan implements lending.LoanStore.
func (s *Store) CloseLoan(_ context.Context, loanID uuid.UUID, returnDate time.Time, penalty int64) (ledger.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, exists := s.loans[loanID]
	if !exists {
		return ledger.Loan{}, ledger.ErrLoanNotFound
	}

	if loan.IsClosed() {
		return ledger.Loan{}, ledger.ErrLoanAlreadyReturned
	}

	returnedAt := returnDate
	loan.ReturnDate = &returnedAt
	loan.Penalty = penalty
	s.loans[loanID] = loan

	item := s.items[loan.ItemID]
	item.AvailableCopies++
	s.items[loan.ItemID] = item

	return loan, nil
}

// GetLoan implements lending.LoanStore.
func (s *Store) GetLoan(_ context.Context, loanID uuid.UUID) (ledger.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, exists := s.loans[loanID]
	if !exists {
		return ledger.Loan{}, ledger.ErrLoanNotFound
	}

	return loan, nil
}

// SelectLoans implements lending.LoanStore.
func (s *Store) SelectLoans(_ context.Context, filter ledger.LoanFilter) ([]ledger.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matching := make([]ledger.Loan, 0)
	for _, loan := range s.loans {
		if filter.Matches(loan) {
			matching = append(matching, loan)
		}
	}

	switch filter.Ordering() {
	case ledger.OrderByLoanDateDesc:
		sort.Slice(matching, func(i, j int) bool {
			return matching[i].LoanDate.After(matching[j].LoanDate)
		})
	default:
		sort.Slice(matching, func(i, j int) bool {
			return matching[i].DueDate.Before(matching[j].DueDate)
		})
	}

	return matching, nil
}

// Registry implements lending.MemberRegistry.
type Registry struct {
	mu      sync.Mutex
	members map[uuid.UUID]ledger.Member
}

// NewRegistry creates an empty in-memory member registry.
func NewRegistry() *Registry {
	return &Registry{members: make(map[uuid.UUID]ledger.Member)}
}

// AddMember seeds a member.
func (r *Registry) AddMember(memberID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.members[memberID] = ledger.Member{ID: memberID}
}

// GetMember implements lending.MemberRegistry.
func (r *Registry) GetMember(_ context.Context, memberID uuid.UUID) (ledger.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	member, exists := r.members[memberID]
	if !exists {
		return ledger.Member{}, ledger.ErrMemberNotFound
	}

	return member, nil
}
