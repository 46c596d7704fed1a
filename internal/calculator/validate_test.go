package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmynk/splitledger/internal/models"
)

func TestValidateExpense(t *testing.T) {
	valid := models.Expense{
		Description: "Dinner",
		Amount:      dec("100"),
		PaidBy:      alice,
		Split:       models.EqualSplit(alice, bob),
	}
	custom := func(amount string, shares ...models.Share) models.Expense {
		e := valid
		e.Amount = dec(amount)
		e.Split = models.CustomSplit(shares...)
		return e
	}
	with := func(mutate func(*models.Expense)) models.Expense {
		e := valid
		mutate(&e)
		return e
	}

	tests := []struct {
		name    string
		expense models.Expense
		wantErr error
	}{
		{"valid equal split", valid, nil},
		{"valid custom split", custom("100", models.Share{MemberID: alice, Amount: dec("60")}, models.Share{MemberID: bob, Amount: dec("40")}), nil},
		{"custom split within epsilon", custom("100", models.Share{MemberID: alice, Amount: dec("33.33")}, models.Share{MemberID: bob, Amount: dec("66.66")}), nil},
		{"custom split off by more than epsilon", custom("100", models.Share{MemberID: alice, Amount: dec("60")}, models.Share{MemberID: bob, Amount: dec("39.98")}), ErrSplitSumMismatch},
		{"zero share", custom("60", models.Share{MemberID: alice, Amount: dec("60")}, models.Share{MemberID: bob, Amount: dec("0")}), ErrInvalidShare},
		{"missing description", with(func(e *models.Expense) { e.Description = "  " }), ErrMissingDescription},
		{"zero amount", with(func(e *models.Expense) { e.Amount = dec("0") }), ErrInvalidAmount},
		{"negative amount", with(func(e *models.Expense) { e.Amount = dec("-5") }), ErrInvalidAmount},
		{"missing payer", with(func(e *models.Expense) { e.PaidBy = models.ParticipantID{} }), ErrMissingPayer},
		{"empty split", with(func(e *models.Expense) { e.Split = models.EqualSplit() }), ErrEmptySplit},
		{"duplicate participant", with(func(e *models.Expense) { e.Split = models.EqualSplit(alice, alice) }), ErrDuplicateParticipant},
		{"unknown mode", with(func(e *models.Expense) { e.Split.Mode = "weighted" }), ErrUnknownSplitMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExpense(tt.expense)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
