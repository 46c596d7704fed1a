package calculator

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	alice = models.MemberID("alice-uid")
	bob   = models.MemberID("bob-uid")
	carol = models.PendingEmail("c@x.com")
	dave  = models.MemberID("dave-uid")
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func equalExpense(ts int64, amount string, payer models.ParticipantID, split ...models.ParticipantID) models.Expense {
	return models.Expense{
		Description: "expense",
		Amount:      dec(amount),
		PaidBy:      payer,
		Split:       models.EqualSplit(split...),
		Timestamp:   ts,
	}
}

func balanceOf(t *testing.T, entries []BalanceEntry, id models.ParticipantID) decimal.Decimal {
	t.Helper()
	for _, e := range entries {
		if e.Participant == id {
			return e.Balance
		}
	}
	t.Fatalf("participant %s missing from balances", id)
	return decimal.Zero
}

func assertSum(t *testing.T, entries []BalanceEntry) {
	t.Helper()
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Balance)
	}
	assert.True(t, IsZero(sum), "balances sum to %s, want 0", sum)
}

var nameResolver = ResolverFunc(func(_ context.Context, id models.ParticipantID) string {
	return "name:" + id.String()
})

func TestComputeBalances(t *testing.T) {
	tests := []struct {
		name     string
		group    *models.Group
		want     map[models.ParticipantID]string
		wantSize int
	}{
		{
			name: "pending member shares an equal split",
			group: &models.Group{
				Members:        []models.ParticipantID{alice, bob},
				PendingMembers: []models.ParticipantID{carol},
				Expenses:       []models.Expense{equalExpense(1, "30", alice, alice, bob, carol)},
			},
			want:     map[models.ParticipantID]string{alice: "20", bob: "-10", carol: "-10"},
			wantSize: 3,
		},
		{
			name: "equal split of 90 among three",
			group: &models.Group{
				Members:  []models.ParticipantID{alice, bob, dave},
				Expenses: []models.Expense{equalExpense(1, "90.00", dave, alice, bob, dave)},
			},
			want:     map[models.ParticipantID]string{alice: "-30", bob: "-30", dave: "60"},
			wantSize: 3,
		},
		{
			name: "custom split",
			group: &models.Group{
				Members: []models.ParticipantID{alice, bob, dave},
				Expenses: []models.Expense{{
					Description: "Rent",
					Amount:      dec("100.00"),
					PaidBy:      dave,
					Split: models.CustomSplit(
						models.Share{MemberID: alice, Amount: dec("60")},
						models.Share{MemberID: bob, Amount: dec("40")},
					),
					Timestamp: 1,
				}},
			},
			want:     map[models.ParticipantID]string{alice: "-60", bob: "-40", dave: "100"},
			wantSize: 3,
		},
		{
			name: "departed member keeps history",
			group: &models.Group{
				Members:  []models.ParticipantID{alice},
				Expenses: []models.Expense{equalExpense(1, "50", bob, alice, bob)},
			},
			want:     map[models.ParticipantID]string{alice: "-25", bob: "25"},
			wantSize: 2,
		},
		{
			name: "members without expenses are listed at zero",
			group: &models.Group{
				Members:        []models.ParticipantID{alice, bob},
				PendingMembers: []models.ParticipantID{carol},
			},
			want:     map[models.ParticipantID]string{alice: "0", bob: "0", carol: "0"},
			wantSize: 3,
		},
		{
			name: "settlement record moves balances towards zero",
			group: &models.Group{
				Members: []models.ParticipantID{alice, bob},
				Expenses: []models.Expense{
					equalExpense(1, "20", alice, alice, bob),
					models.NewSettlement(bob, alice, dec("10"), time.Now()),
				},
			},
			want:     map[models.ParticipantID]string{alice: "0", bob: "0"},
			wantSize: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := ComputeBalances(context.Background(), tt.group, nameResolver)
			require.NoError(t, err)
			require.Len(t, entries, tt.wantSize)

			for id, want := range tt.want {
				got := balanceOf(t, entries, id)
				assert.True(t, got.Equal(dec(want)), "%s: got %s, want %s", id, got, want)
			}
			assertSum(t, entries)

			for i := 1; i < len(entries); i++ {
				assert.False(t, entries[i].Balance.LessThan(entries[i-1].Balance), "entries not sorted ascending")
			}
		})
	}
}

func TestComputeBalances_ScenarioOrderAndNames(t *testing.T) {
	group := &models.Group{
		Members:        []models.ParticipantID{alice, bob},
		PendingMembers: []models.ParticipantID{carol},
		Expenses:       []models.Expense{equalExpense(1, "30", alice, alice, bob, carol)},
	}

	entries, err := ComputeBalances(context.Background(), group, nameResolver)
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, bob, entries[0].Participant)
	assert.Equal(t, carol, entries[1].Participant)
	assert.Equal(t, alice, entries[2].Participant)
	assert.Equal(t, "name:alice-uid", entries[2].DisplayName)
}

func TestComputeBalances_UniverseCompleteness(t *testing.T) {
	ghost := models.MemberID("ghost-uid")
	invitee := models.PendingEmail("gone@x.com")
	group := &models.Group{
		Members: []models.ParticipantID{alice},
		Expenses: []models.Expense{
			equalExpense(1, "10", ghost, alice, invitee),
			{
				Description: "custom",
				Amount:      dec("9"),
				PaidBy:      alice,
				Split:       models.CustomSplit(models.Share{MemberID: dave, Amount: dec("9")}),
				Timestamp:   2,
			},
		},
	}

	entries, err := ComputeBalances(context.Background(), group, nil)
	require.NoError(t, err)

	for _, e := range group.Expenses {
		for _, id := range e.Participants() {
			balanceOf(t, entries, id)
		}
	}
	assertSum(t, entries)
}

func TestComputeBalances_ConservationWithRepeatingShares(t *testing.T) {
	group := &models.Group{
		Members: []models.ParticipantID{alice, bob, dave},
		Expenses: []models.Expense{
			equalExpense(1, "100", alice, alice, bob, dave),
			equalExpense(2, "10", bob, alice, bob, dave),
			equalExpense(3, "0.05", dave, alice, bob, dave),
			equalExpense(4, "7", alice, bob, dave),
		},
	}

	entries, err := ComputeBalances(context.Background(), group, nil)
	require.NoError(t, err)
	assertSum(t, entries)
}

func TestComputeBalances_Idempotent(t *testing.T) {
	group := &models.Group{
		Members:        []models.ParticipantID{alice, bob, dave},
		PendingMembers: []models.ParticipantID{carol},
		Expenses: []models.Expense{
			equalExpense(1, "10", alice, bob, dave),
			equalExpense(2, "10", bob, alice, dave),
			equalExpense(3, "10", dave, alice, bob),
		},
	}

	first, err := ComputeBalances(context.Background(), group, nameResolver)
	require.NoError(t, err)
	second, err := ComputeBalances(context.Background(), group, nameResolver)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCompute_SkipsRecordWithEmptyPayer(t *testing.T) {
	group := &models.Group{
		Members: []models.ParticipantID{alice, bob},
		Expenses: []models.Expense{
			equalExpense(1, "20", alice, alice, bob),
			equalExpense(2, "99", models.ParticipantID{}, alice, bob),
			equalExpense(3, "5", bob),
		},
	}

	report, err := Compute(context.Background(), group, nil)
	require.NoError(t, err)

	assert.Equal(t, []int64{2, 3}, report.Skipped)
	assert.True(t, balanceOf(t, report.Entries, alice).Equal(dec("10")))
	assert.True(t, balanceOf(t, report.Entries, bob).Equal(dec("-10")))
}

func TestCompute_WaitsForEveryResolution(t *testing.T) {
	var calls atomic.Int32
	slow := ResolverFunc(func(_ context.Context, id models.ParticipantID) string {
		calls.Add(1)
		if strings.HasPrefix(id.String(), "bob") {
			time.Sleep(20 * time.Millisecond)
		}
		return strings.ToUpper(id.String())
	})

	group := &models.Group{
		Members:        []models.ParticipantID{alice, bob, dave},
		PendingMembers: []models.ParticipantID{carol},
	}

	entries, err := ComputeBalances(context.Background(), group, slow)
	require.NoError(t, err)

	assert.Equal(t, int32(4), calls.Load())
	for _, e := range entries {
		assert.Equal(t, strings.ToUpper(e.Participant.String()), e.DisplayName)
	}
}

func TestCompute_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	group := &models.Group{Members: []models.ParticipantID{alice, bob}}

	report, err := Compute(ctx, group, nameResolver)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
}

func TestUniverse_Order(t *testing.T) {
	group := &models.Group{
		Members:        []models.ParticipantID{bob, alice},
		PendingMembers: []models.ParticipantID{carol},
		Expenses: []models.Expense{
			equalExpense(1, "1", dave, alice, models.MemberID("eve")),
		},
	}

	assert.Equal(t,
		[]models.ParticipantID{bob, alice, carol, dave, models.MemberID("eve")},
		Universe(group),
	)
}
