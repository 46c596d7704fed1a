package calculator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	ErrMissingDescription   = errors.New("description is required")
	ErrInvalidAmount        = errors.New("amount must be greater than 0")
	ErrMissingPayer         = errors.New("paid_by is required")
	ErrEmptySplit           = errors.New("at least one participant must share the expense")
	ErrDuplicateParticipant = errors.New("participant appears more than once in split")
	ErrInvalidShare         = errors.New("custom share must be greater than 0")
	ErrSplitSumMismatch     = errors.New("total split amount must equal the expense amount")
	ErrUnknownSplitMode     = errors.New("unknown split mode")
)

// ValidateExpense checks an expense before it is recorded. Balances are
// computed on the assumption that every stored record passed this check.
func ValidateExpense(expense models.Expense) error {
	if strings.TrimSpace(expense.Description) == "" {
		return ErrMissingDescription
	}
	if !expense.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if expense.PaidBy.IsZero() {
		return ErrMissingPayer
	}
	if expense.Split.Len() == 0 {
		return ErrEmptySplit
	}

	seen := make(map[models.ParticipantID]bool, expense.Split.Len())
	for _, id := range expense.Split.ParticipantIDs() {
		if id.IsZero() {
			return ErrEmptySplit
		}
		if seen[id] {
			return fmt.Errorf("%w: %s", ErrDuplicateParticipant, id)
		}
		seen[id] = true
	}

	switch expense.Split.Mode {
	case models.SplitEqual:
		return nil
	case models.SplitCustom:
		sum := decimal.Zero
		for _, share := range expense.Split.Shares {
			if !share.Amount.IsPositive() {
				return fmt.Errorf("%w: %s", ErrInvalidShare, share.MemberID)
			}
			sum = sum.Add(share.Amount)
		}
		if sum.Sub(expense.Amount).Abs().GreaterThan(Epsilon) {
			return fmt.Errorf("%w: shares sum to %s, amount is %s",
				ErrSplitSumMismatch, sum.StringFixed(2), expense.Amount.StringFixed(2))
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSplitMode, expense.Split.Mode)
	}
}
