package calculator

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/models"
)

// Epsilon is the monetary tolerance used for every zero and equality check.
var Epsilon = decimal.New(1, -2)

// maxConcurrentResolutions bounds the display-name lookups in flight for one
// computation.
const maxConcurrentResolutions = 8

// Resolver maps a participant identifier to a display name.
// Implementations never fail; unresolvable identifiers get a fallback name.
type Resolver interface {
	DisplayName(ctx context.Context, id models.ParticipantID) string
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(ctx context.Context, id models.ParticipantID) string

// DisplayName calls f.
func (f ResolverFunc) DisplayName(ctx context.Context, id models.ParticipantID) string {
	return f(ctx, id)
}

// BalanceEntry is one participant's net position in a group.
type BalanceEntry struct {
	Participant models.ParticipantID
	DisplayName string
	Balance     decimal.Decimal // Positive = owed money, Negative = owes money
}

// IsSettled reports whether the balance is within Epsilon of zero.
func (b BalanceEntry) IsSettled() bool { return IsZero(b.Balance) }

// IsOwed reports whether the group owes this participant money.
func (b BalanceEntry) IsOwed() bool { return b.Balance.GreaterThan(Epsilon) }

// IsOwing reports whether this participant owes the group money.
func (b BalanceEntry) IsOwing() bool { return b.Balance.LessThan(Epsilon.Neg()) }

// IsZero reports whether |d| <= Epsilon.
func IsZero(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Epsilon)
}

// Report is the full outcome of a balance computation.
type Report struct {
	// Entries are sorted ascending by balance: biggest debtor first,
	// biggest creditor last.
	Entries []BalanceEntry

	// Skipped holds the timestamps of expense records that referenced an
	// identifier outside the participant universe and were left out.
	Skipped []int64
}

// ComputeBalances derives every participant's net balance from a group's
// membership rolls and expense history. See Compute.
func ComputeBalances(ctx context.Context, group *models.Group, resolver Resolver) ([]BalanceEntry, error) {
	report, err := Compute(ctx, group, resolver)
	if err != nil {
		return nil, err
	}
	return report.Entries, nil
}

// Compute derives every participant's net balance from a group's membership
// rolls and expense history.
//
// Algorithm:
//   - Universe: active members, pending emails, and every payer and split
//     participant of every expense, so departed members keep their history
//   - Resolve all display names, waiting for every lookup before aggregating
//   - For each expense: each split participant -share, payer +amount
//   - Sort ascending by balance (stable, so equal input gives equal output)
//
// The only error is ctx being cancelled while names are resolved; in that
// case nothing is returned.
func Compute(ctx context.Context, group *models.Group, resolver Resolver) (*Report, error) {
	universe := Universe(group)

	names, err := resolveNames(ctx, universe, resolver)
	if err != nil {
		return nil, err
	}

	index := make(map[models.ParticipantID]int, len(universe))
	entries := make([]BalanceEntry, len(universe))
	for i, id := range universe {
		index[id] = i
		entries[i] = BalanceEntry{Participant: id, DisplayName: names[i], Balance: decimal.Zero}
	}

	report := &Report{}
	for _, expense := range group.Expenses {
		if !applyExpense(entries, index, expense) {
			report.Skipped = append(report.Skipped, expense.Timestamp)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Balance.LessThan(entries[j].Balance)
	})
	report.Entries = entries

	return report, nil
}

// Universe returns every participant a group's balances must cover, in
// first-seen order: active members, pending emails, then payers and split
// participants in expense order. Empty identifiers are left out.
func Universe(group *models.Group) []models.ParticipantID {
	seen := make(map[models.ParticipantID]bool)
	var universe []models.ParticipantID
	add := func(id models.ParticipantID) {
		if id.IsZero() || seen[id] {
			return
		}
		seen[id] = true
		universe = append(universe, id)
	}

	for _, id := range group.Members {
		add(id)
	}
	for _, id := range group.PendingMembers {
		add(id)
	}
	for _, expense := range group.Expenses {
		add(expense.PaidBy)
		for _, id := range expense.Split.ParticipantIDs() {
			add(id)
		}
	}
	return universe
}

// applyExpense adds one expense to entries. A record whose payer or any split
// participant is missing from the universe, or an equal split with nobody in
// it, is left out entirely so the total stays balanced.
func applyExpense(entries []BalanceEntry, index map[models.ParticipantID]int, expense models.Expense) bool {
	payer, ok := index[expense.PaidBy]
	if !ok {
		return false
	}

	shares := Shares(expense)
	if len(shares) == 0 {
		return false
	}
	positions := make([]int, len(shares))
	for i, share := range shares {
		pos, ok := index[share.MemberID]
		if !ok {
			return false
		}
		positions[i] = pos
	}

	for i, share := range shares {
		entries[positions[i]].Balance = entries[positions[i]].Balance.Sub(share.Amount)
	}
	entries[payer].Balance = entries[payer].Balance.Add(expense.Amount)
	return true
}

// resolveNames looks up every display name concurrently and returns once all
// lookups have finished.
func resolveNames(ctx context.Context, ids []models.ParticipantID, resolver Resolver) ([]string, error) {
	names := make([]string, len(ids))
	if resolver == nil {
		for i, id := range ids {
			names[i] = id.String()
		}
		return names, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentResolutions)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			names[i] = resolver.DisplayName(gctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return names, nil
}
