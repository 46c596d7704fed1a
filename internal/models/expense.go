package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Expense is one entry in a group's expense history.
type Expense struct {
	// ID is a unique identifier (UUID format).
	ID string

	// Description is the human-readable label, e.g. "Groceries".
	Description string

	// Amount is the total paid, always positive.
	Amount decimal.Decimal

	// PaidBy is the participant who paid the full amount.
	PaidBy ParticipantID

	// Split is how the amount is shared.
	Split Split

	// Date is when the expense happened, as entered by the user.
	Date time.Time

	// Timestamp is the stable key used to edit and delete the record.
	// Unique within a group and preserved across edits.
	Timestamp int64

	// IsSettlement marks a synthetic record of a debt payment. Settlement
	// records count towards balances but not towards total spent.
	IsSettlement bool

	// CreatedAt is when the record was first written.
	CreatedAt time.Time
}

// Participants returns the payer followed by every split participant.
func (e Expense) Participants() []ParticipantID {
	ids := make([]ParticipantID, 0, e.Split.Len()+1)
	ids = append(ids, e.PaidBy)
	return append(ids, e.Split.ParticipantIDs()...)
}

// References reports whether id pays for or shares the expense.
func (e Expense) References(id ParticipantID) bool {
	return ContainsParticipant(e.Participants(), id)
}

// Equal compares two expenses structurally.
func (e Expense) Equal(other Expense) bool {
	return e.ID == other.ID &&
		e.Description == other.Description &&
		e.Amount.Equal(other.Amount) &&
		e.PaidBy == other.PaidBy &&
		e.Split.Equal(other.Split) &&
		e.Date.Equal(other.Date) &&
		e.Timestamp == other.Timestamp &&
		e.IsSettlement == other.IsSettlement &&
		e.CreatedAt.Equal(other.CreatedAt)
}

// ReplaceParticipant returns a copy of e with every reference to from
// rewritten to to.
func (e Expense) ReplaceParticipant(from, to ParticipantID) Expense {
	out := e
	if out.PaidBy == from {
		out.PaidBy = to
	}
	out.Split = e.Split.Replace(from, to)
	return out
}

type expenseJSON struct {
	ID           string          `json:"id"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	PaidBy       ParticipantID   `json:"paidBy"`
	SplitMode    SplitMode       `json:"splitMode,omitempty"`
	SplitBy      json.RawMessage `json:"splitBy"`
	Date         time.Time       `json:"date"`
	Timestamp    int64           `json:"timestamp"`
	IsSettlement bool            `json:"isSettlement,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// MarshalJSON writes the document form of the expense, with the split mode
// stored explicitly next to splitBy.
func (e Expense) MarshalJSON() ([]byte, error) {
	splitBy, err := e.Split.MarshalJSON()
	if err != nil {
		return nil, err
	}
	mode := e.Split.Mode
	if mode == "" {
		mode = SplitEqual
	}
	return json.Marshal(expenseJSON{
		ID:           e.ID,
		Description:  e.Description,
		Amount:       e.Amount,
		PaidBy:       e.PaidBy,
		SplitMode:    mode,
		SplitBy:      splitBy,
		Date:         e.Date,
		Timestamp:    e.Timestamp,
		IsSettlement: e.IsSettlement,
		CreatedAt:    e.CreatedAt,
	})
}

// UnmarshalJSON reads both current documents and legacy ones without
// splitMode.
func (e *Expense) UnmarshalJSON(data []byte) error {
	var raw expenseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	split, err := decodeSplit(raw.SplitMode, raw.SplitBy)
	if err != nil {
		return err
	}
	*e = Expense{
		ID:           raw.ID,
		Description:  raw.Description,
		Amount:       raw.Amount,
		PaidBy:       raw.PaidBy,
		Split:        split,
		Date:         raw.Date,
		Timestamp:    raw.Timestamp,
		IsSettlement: raw.IsSettlement,
		CreatedAt:    raw.CreatedAt,
	}
	return nil
}
