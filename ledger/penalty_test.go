package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/biblioline/lending-ledger-go/ledger"
)

func Test_PenaltyFor_Deterministic(t *testing.T) {
	dueDate := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name            string
		effectiveAt     time.Time
		expectedPenalty int64
	}{
		{
			name:            "returned exactly on the due date costs nothing",
			effectiveAt:     dueDate,
			expectedPenalty: 0,
		},
		{
			name:            "returned early costs nothing",
			effectiveAt:     dueDate.AddDate(0, 0, -3),
			expectedPenalty: 0,
		},
		{
			name:            "one day late costs one day",
			effectiveAt:     dueDate.AddDate(0, 0, 1),
			expectedPenalty: 100,
		},
		{
			name:            "one day and one minute late still costs one day",
			effectiveAt:     dueDate.AddDate(0, 0, 1).Add(time.Minute),
			expectedPenalty: 100,
		},
		{
			name:            "one minute late counts as a full day",
			effectiveAt:     dueDate.Add(time.Minute),
			expectedPenalty: 100,
		},
		{
			name:            "fifteen days late",
			effectiveAt:     dueDate.AddDate(0, 0, 15),
			expectedPenalty: 1500,
		},
		{
			name:            "just under two days late still costs one day",
			effectiveAt:     dueDate.Add(48*time.Hour - time.Second),
			expectedPenalty: 100,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedPenalty, ledger.PenaltyFor(dueDate, tc.effectiveAt))
		})
	}
}

func Test_PenaltyFor_IsPure(t *testing.T) {
	dueDate := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	effectiveAt := dueDate.AddDate(0, 0, 3).Add(5 * time.Hour)

	first := ledger.PenaltyFor(dueDate, effectiveAt)
	second := ledger.PenaltyFor(dueDate, effectiveAt)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(300), first)
}

func Test_DueDateFor_AddsTheLoanPeriod(t *testing.T) {
	loanDate := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	dueDate := ledger.DueDateFor(loanDate)

	assert.Equal(t, loanDate.AddDate(0, 0, 14), dueDate)
}
