package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Suggestion is one proposed transfer from a debtor to a creditor.
type Suggestion struct {
	From     models.ParticipantID
	To       models.ParticipantID
	FromName string
	ToName   string
	Amount   decimal.Decimal // Always greater than Epsilon
}

// Text renders the suggestion as "<debtor> should pay <creditor>".
func (s Suggestion) Text() string {
	return fmt.Sprintf("%s should pay %s", s.FromName, s.ToName)
}

// SuggestSettlements proposes transfers that bring every balance to zero.
//
// Greedy algorithm: repeatedly match the most negative balance with the most
// positive one and transfer the smaller of the two magnitudes. Ties go to the
// first entry found. The result is not guaranteed to use the fewest
// transfers.
//
// The input is not modified. Every transfer zeroes at least one entry, so the
// loop is bounded by the number of entries.
func SuggestSettlements(entries []BalanceEntry) []Suggestion {
	work := make([]BalanceEntry, len(entries))
	copy(work, entries)

	var suggestions []Suggestion
	for round := 0; len(work) > 1 && round < len(work); round++ {
		debtor, creditor := extremes(work)

		if IsZero(work[debtor].Balance) && IsZero(work[creditor].Balance) {
			break
		}

		amount := decimal.Min(work[debtor].Balance.Neg(), work[creditor].Balance)
		if amount.LessThanOrEqual(Epsilon) {
			break
		}

		suggestions = append(suggestions, Suggestion{
			From:     work[debtor].Participant,
			To:       work[creditor].Participant,
			FromName: work[debtor].DisplayName,
			ToName:   work[creditor].DisplayName,
			Amount:   amount,
		})

		work[debtor].Balance = work[debtor].Balance.Add(amount)
		work[creditor].Balance = work[creditor].Balance.Sub(amount)
	}

	return suggestions
}

// extremes returns the index of the first minimum and first maximum balance.
func extremes(entries []BalanceEntry) (minIdx, maxIdx int) {
	for i := 1; i < len(entries); i++ {
		if entries[i].Balance.LessThan(entries[minIdx].Balance) {
			minIdx = i
		}
		if entries[i].Balance.GreaterThan(entries[maxIdx].Balance) {
			maxIdx = i
		}
	}
	return minIdx, maxIdx
}
