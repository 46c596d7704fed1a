package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Shares computes how much each split participant owes for one expense.
// In equal mode the amount is divided evenly across the participant list;
// in custom mode the explicit shares are returned as stored.
// An equal split with no participants has no shares.
func Shares(expense models.Expense) []models.Share {
	if expense.Split.Mode == models.SplitCustom {
		return append([]models.Share(nil), expense.Split.Shares...)
	}

	ids := expense.Split.Participants
	if len(ids) == 0 {
		return nil
	}

	perPerson := expense.Amount.Div(decimal.NewFromInt(int64(len(ids))))
	shares := make([]models.Share, len(ids))
	for i, id := range ids {
		shares[i] = models.Share{MemberID: id, Amount: perPerson}
	}
	return shares
}

// TotalSpent sums the amounts of all expenses that are not settlement records.
func TotalSpent(expenses []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if e.IsSettlement {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total
}
