package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// balanceObserver records balance computations. *metrics.Metrics
// implements it; nil disables recording.
type balanceObserver interface {
	ObserveBalances(skipped, suggestions int)
}

// BalanceService implements the BalanceService RPC interface.
type BalanceService struct {
	store    storage.GroupStore
	resolver calculator.Resolver
	observer balanceObserver
	logger   *slog.Logger
}

// NewBalanceService creates a new BalanceService. observer may be nil.
func NewBalanceService(store storage.GroupStore, resolver calculator.Resolver, observer balanceObserver, logger *slog.Logger) *BalanceService {
	return &BalanceService{store: store, resolver: resolver, observer: observer, logger: logger}
}

// Mount registers the service's procedures on mux.
func (s *BalanceService) Mount(mux *http.ServeMux, opts HandlerOptions) {
	handle(mux, api.BalanceGetGroupBalancesProcedure, s.GetGroupBalances, opts.Authenticated)
	handle(mux, api.BalanceGetSummaryProcedure, s.GetSummary, opts.Authenticated)
}

// BuildGroupBalances computes the full balance view of one group snapshot.
func BuildGroupBalances(ctx context.Context, group *models.Group, resolver calculator.Resolver) (*api.GetGroupBalancesResponse, error) {
	report, err := calculator.Compute(ctx, group, resolver)
	if err != nil {
		return nil, err
	}
	suggestions := calculator.SuggestSettlements(report.Entries)
	total := calculator.TotalSpent(group.Expenses)

	resp := &api.GetGroupBalancesResponse{
		Balances:            make([]*api.BalanceEntry, len(report.Entries)),
		Suggestions:         make([]*api.Suggestion, len(suggestions)),
		TotalSpent:          total,
		TotalSpentFormatted: calculator.FormatAmount(total),
		AllSettled:          calculator.AllSettled(report.Entries),
		SkippedExpenses:     report.Skipped,
	}
	for i, e := range report.Entries {
		resp.Balances[i] = &api.BalanceEntry{
			ParticipantID: e.Participant.String(),
			DisplayName:   e.DisplayName,
			Balance:       e.Balance,
			Formatted:     calculator.FormatBalance(e.Balance),
			Status:        balanceStatus(e),
			Pending:       e.Participant.IsPending(),
		}
	}
	for i, sug := range suggestions {
		resp.Suggestions[i] = &api.Suggestion{
			From:      sug.From.String(),
			FromName:  sug.FromName,
			To:        sug.To.String(),
			ToName:    sug.ToName,
			Amount:    sug.Amount,
			Formatted: calculator.FormatAmount(sug.Amount),
			Text:      sug.Text(),
		}
	}
	return resp, nil
}

func balanceStatus(e calculator.BalanceEntry) string {
	switch {
	case e.IsOwed():
		return api.StatusOwed
	case e.IsOwing():
		return api.StatusOwes
	default:
		return api.StatusSettled
	}
}

// GetGroupBalances returns every participant's balance in a group together
// with suggested settlements.
func (s *BalanceService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("GetGroupBalances request received", "group_id", req.Msg.GroupID)

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID, session.UserID)
	if err != nil {
		return nil, err
	}

	resp, err := BuildGroupBalances(ctx, group, s.resolver)
	if err != nil {
		err = toConnectError(err)
		logFailure(s.logger, "GetGroupBalances failed", err, "group_id", group.ID)
		return nil, err
	}
	if s.observer != nil {
		s.observer.ObserveBalances(len(resp.SkippedExpenses), len(resp.Suggestions))
	}
	if len(resp.SkippedExpenses) > 0 {
		s.logger.Warn("Skipped expenses with unknown participants",
			"group_id", group.ID,
			"timestamps", resp.SkippedExpenses,
		)
	}

	s.logger.Info("GetGroupBalances successful",
		"group_id", group.ID,
		"expenses_count", len(group.Expenses),
		"participants_count", len(resp.Balances),
		"suggestions_count", len(resp.Suggestions),
		"skipped_count", len(resp.SkippedExpenses),
	)
	return connect.NewResponse(resp), nil
}

// GetSummary returns the caller's balance in each of their groups and the
// net across all of them.
func (s *BalanceService) GetSummary(ctx context.Context, req *connect.Request[api.GetSummaryRequest]) (*connect.Response[api.GetSummaryResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("GetSummary request received", "user_id", session.UserID)

	groups, err := s.store.ListGroupsByMember(ctx, session.UserID)
	if err != nil {
		s.logger.Error("GetSummary failed", "error", err)
		return nil, toConnectError(err)
	}

	me := models.MemberID(session.UserID)
	net := decimal.Zero
	out := make([]*api.GroupBalance, 0, len(groups))
	for _, group := range groups {
		// Only the caller's own entry is reported, so names are not needed.
		entries, err := calculator.ComputeBalances(ctx, group, nil)
		if err != nil {
			return nil, toConnectError(err)
		}
		balance := decimal.Zero
		for _, e := range entries {
			if e.Participant == me {
				balance = e.Balance
				break
			}
		}
		net = net.Add(balance)
		out = append(out, &api.GroupBalance{
			GroupID:   group.ID,
			GroupName: group.Name,
			Balance:   balance,
			Formatted: calculator.FormatBalance(balance),
		})
	}

	return connect.NewResponse(&api.GetSummaryResponse{
		Groups:       out,
		NetBalance:   net,
		NetFormatted: calculator.FormatBalance(net),
	}), nil
}
