package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// Split modes accepted in ExpenseInput.SplitMode.
const (
	SplitModeEqual  = "equal"
	SplitModeCustom = "custom"
)

// ShareInput is one explicit share of a custom split.
type ShareInput struct {
	MemberID string          `json:"memberId"`
	Amount   decimal.Decimal `json:"amount"`
}

// ExpenseInput is what a client submits to create or edit an expense.
// SplitBy is read in equal mode, Shares in custom mode.
type ExpenseInput struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaidBy      string          `json:"paidBy"`
	SplitMode   string          `json:"splitMode,omitempty"`
	SplitBy     []string        `json:"splitBy,omitempty"`
	Shares      []ShareInput    `json:"shares,omitempty"`
	Date        time.Time       `json:"date,omitzero"`
}

// Share is one participant's resolved portion of an expense.
type Share struct {
	MemberID    string          `json:"memberId"`
	DisplayName string          `json:"displayName"`
	Amount      decimal.Decimal `json:"amount"`
}

type Expense struct {
	ID           string          `json:"id"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	PaidBy       string          `json:"paidBy"`
	PaidByName   string          `json:"paidByName"`
	SplitMode    string          `json:"splitMode"`
	Shares       []Share         `json:"shares"`
	Date         time.Time       `json:"date"`
	Timestamp    int64           `json:"timestamp"`
	IsSettlement bool            `json:"isSettlement"`
}

type AddExpenseRequest struct {
	GroupID string        `json:"groupId"`
	Expense *ExpenseInput `json:"expense"`
}

type AddExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type UpdateExpenseRequest struct {
	GroupID   string        `json:"groupId"`
	Timestamp int64         `json:"timestamp"`
	Expense   *ExpenseInput `json:"expense"`
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	GroupID   string `json:"groupId"`
	Timestamp int64  `json:"timestamp"`
}

type DeleteExpenseResponse struct{}

type ClearExpensesRequest struct {
	GroupID string `json:"groupId"`
}

type ClearExpensesResponse struct{}

type ListExpensesRequest struct {
	GroupID string `json:"groupId"`
}

type ListExpensesResponse struct {
	// Expenses are newest first.
	Expenses []*Expense `json:"expenses"`
}

type RecordSettlementRequest struct {
	GroupID string          `json:"groupId"`
	From    string          `json:"from"`
	To      string          `json:"to"`
	Amount  decimal.Decimal `json:"amount"`
}

type RecordSettlementResponse struct {
	Expense *Expense `json:"expense"`
}

type ListSettlementsRequest struct {
	GroupID string `json:"groupId"`
}

type ListSettlementsResponse struct {
	Settlements []*Expense `json:"settlements"`
}
