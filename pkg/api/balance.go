package api

import "github.com/shopspring/decimal"

// Balance statuses.
const (
	StatusOwed    = "owed"
	StatusOwes    = "owes"
	StatusSettled = "settled"
)

type BalanceEntry struct {
	ParticipantID string          `json:"participantId"`
	DisplayName   string          `json:"displayName"`
	Balance       decimal.Decimal `json:"balance"`
	// Formatted is "+$20.00", "-$10.00" or "$0 ✓".
	Formatted string `json:"formatted"`
	Status    string `json:"status"`
	Pending   bool   `json:"pending"`
}

type Suggestion struct {
	From      string          `json:"from"`
	FromName  string          `json:"fromName"`
	To        string          `json:"to"`
	ToName    string          `json:"toName"`
	Amount    decimal.Decimal `json:"amount"`
	Formatted string          `json:"formatted"`
	Text      string          `json:"text"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupBalancesResponse struct {
	// Balances are sorted ascending: biggest debtor first.
	Balances            []*BalanceEntry `json:"balances"`
	Suggestions         []*Suggestion   `json:"suggestions"`
	TotalSpent          decimal.Decimal `json:"totalSpent"`
	TotalSpentFormatted string          `json:"totalSpentFormatted"`
	AllSettled          bool            `json:"allSettled"`
	// SkippedExpenses lists timestamps of records left out because they
	// reference an unknown participant.
	SkippedExpenses []int64 `json:"skippedExpenses,omitempty"`
}

type GetSummaryRequest struct{}

type GroupBalance struct {
	GroupID   string          `json:"groupId"`
	GroupName string          `json:"groupName"`
	Balance   decimal.Decimal `json:"balance"`
	Formatted string          `json:"formatted"`
}

type GetSummaryResponse struct {
	Groups       []*GroupBalance `json:"groups"`
	NetBalance   decimal.Decimal `json:"netBalance"`
	NetFormatted string          `json:"netFormatted"`
}
