package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
)

func TestShares(t *testing.T) {
	tests := []struct {
		name    string
		expense models.Expense
		want    map[models.ParticipantID]string
	}{
		{
			name:    "equal split of 90 among three",
			expense: equalExpense(1, "90", alice, alice, bob, dave),
			want:    map[models.ParticipantID]string{alice: "30", bob: "30", dave: "30"},
		},
		{
			name:    "equal split with pending email",
			expense: equalExpense(1, "33", alice, alice, carol),
			want:    map[models.ParticipantID]string{alice: "16.5", carol: "16.5"},
		},
		{
			name: "custom split returns stored shares",
			expense: models.Expense{
				Amount: dec("100"),
				PaidBy: dave,
				Split: models.CustomSplit(
					models.Share{MemberID: alice, Amount: dec("60")},
					models.Share{MemberID: bob, Amount: dec("40")},
				),
			},
			want: map[models.ParticipantID]string{alice: "60", bob: "40"},
		},
		{
			name:    "equal split with nobody has no shares",
			expense: equalExpense(1, "10", alice),
			want:    map[models.ParticipantID]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares := Shares(tt.expense)
			require.Len(t, shares, len(tt.want))
			for _, share := range shares {
				want, ok := tt.want[share.MemberID]
				require.True(t, ok, "unexpected share for %s", share.MemberID)
				assert.True(t, share.Amount.Equal(dec(want)), "%s: got %s, want %s", share.MemberID, share.Amount, want)
			}
		})
	}
}

func TestTotalSpent_ExcludesSettlements(t *testing.T) {
	expenses := []models.Expense{
		equalExpense(1, "30", alice, alice, bob),
		equalExpense(2, "12.50", bob, alice, bob),
		models.NewSettlement(bob, alice, dec("10"), time.Now()),
	}

	assert.True(t, TotalSpent(expenses).Equal(dec("42.50")))
}
