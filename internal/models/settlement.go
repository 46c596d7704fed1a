package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// NewSettlement builds the synthetic expense that records from paying to.
// The payer is credited and the receiver debited by amount, which moves
// both balances towards zero.
func NewSettlement(from, to ParticipantID, amount decimal.Decimal, at time.Time) Expense {
	return Expense{
		Description:  fmt.Sprintf("Settlement: %s paid %s", from, to),
		Amount:       amount,
		PaidBy:       from,
		Split:        EqualSplit(to),
		Date:         at,
		IsSettlement: true,
	}
}
