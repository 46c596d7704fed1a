package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

var (
	errExpenseMissing     = errors.New("expense required")
	errUnknownParticipant = errors.New("participant is not a member of this group")
	errSelfSettlement     = errors.New("a settlement needs two different participants")
)

// ExpenseService implements the ExpenseService RPC interface.
type ExpenseService struct {
	store    storage.GroupStore
	resolver calculator.Resolver
	logger   *slog.Logger
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store storage.GroupStore, resolver calculator.Resolver, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{store: store, resolver: resolver, logger: logger}
}

// Mount registers the service's procedures on mux.
func (s *ExpenseService) Mount(mux *http.ServeMux, opts HandlerOptions) {
	handle(mux, api.ExpenseAddProcedure, s.AddExpense, opts.Authenticated)
	handle(mux, api.ExpenseUpdateProcedure, s.UpdateExpense, opts.Authenticated)
	handle(mux, api.ExpenseDeleteProcedure, s.DeleteExpense, opts.Authenticated)
	handle(mux, api.ExpenseClearProcedure, s.ClearExpenses, opts.Authenticated)
	handle(mux, api.ExpenseListProcedure, s.ListExpenses, opts.Authenticated)
	handle(mux, api.ExpenseRecordSettlementProcedure, s.RecordSettlement, opts.Authenticated)
	handle(mux, api.ExpenseListSettlementsProcedure, s.ListSettlements, opts.Authenticated)
}

// expenseFromInput converts and validates a submitted expense.
func expenseFromInput(in *api.ExpenseInput) (models.Expense, error) {
	if in == nil {
		return models.Expense{}, errExpenseMissing
	}

	expense := models.Expense{
		Description: in.Description,
		Amount:      in.Amount,
		PaidBy:      models.ParseParticipantID(in.PaidBy),
		Date:        in.Date,
	}
	switch in.SplitMode {
	case "", api.SplitModeEqual:
		expense.Split = models.EqualSplit(models.ParseParticipantIDs(in.SplitBy)...)
	case api.SplitModeCustom:
		shares := make([]models.Share, len(in.Shares))
		for i, share := range in.Shares {
			shares[i] = models.Share{MemberID: models.ParseParticipantID(share.MemberID), Amount: share.Amount}
		}
		expense.Split = models.CustomSplit(shares...)
	default:
		return models.Expense{}, fmt.Errorf("%w: %q", calculator.ErrUnknownSplitMode, in.SplitMode)
	}

	if err := calculator.ValidateExpense(expense); err != nil {
		return models.Expense{}, err
	}
	return expense, nil
}

// checkParticipants ensures every payer and split participant is an active
// member or pending invitee. An edit may also keep anyone the replaced
// record referenced, so history with departed members stays editable.
func checkParticipants(group *models.Group, expense models.Expense, replaced *models.Expense) error {
	for _, id := range expense.Participants() {
		if group.IsMember(id) || group.IsPending(id) {
			continue
		}
		if replaced != nil && replaced.References(id) {
			continue
		}
		return fmt.Errorf("%w: %s", errUnknownParticipant, id)
	}
	return nil
}

func (s *ExpenseService) respondExpense(ctx context.Context, group *models.Group, expense models.Expense) (*api.Expense, error) {
	names, err := nameTable(ctx, group, s.resolver)
	if err != nil {
		return nil, toConnectError(err)
	}
	return toAPIExpense(expense, names), nil
}

// AddExpense records a new expense.
func (s *ExpenseService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("AddExpense request received", "group_id", req.Msg.GroupID)

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID, session.UserID)
	if err != nil {
		return nil, err
	}
	expense, err := expenseFromInput(req.Msg.Expense)
	if err != nil {
		s.logger.Warn("AddExpense validation failed", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err := checkParticipants(group, expense, nil); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	updated, err := s.store.AddExpense(ctx, group.ID, &expense)
	if err != nil {
		err = toConnectError(err)
		logFailure(s.logger, "AddExpense failed", err, "group_id", group.ID)
		return nil, err
	}

	s.logger.Info("Expense added",
		"group_id", group.ID,
		"timestamp", expense.Timestamp,
		"amount", expense.Amount.String(),
		"split_mode", expense.Split.Mode,
	)
	out, err := s.respondExpense(ctx, updated, expense)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.AddExpenseResponse{Expense: out}), nil
}

// UpdateExpense replaces the expense identified by timestamp. The timestamp
// and settlement flag of the original are kept.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("UpdateExpense request received", "group_id", req.Msg.GroupID, "timestamp", req.Msg.Timestamp)

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID, session.UserID)
	if err != nil {
		return nil, err
	}
	idx := group.FindExpense(req.Msg.Timestamp)
	if idx < 0 {
		return nil, connect.NewError(connect.CodeNotFound,
			fmt.Errorf("%w: timestamp %d", storage.ErrExpenseNotFound, req.Msg.Timestamp))
	}
	original := group.Expenses[idx]

	expense, err := expenseFromInput(req.Msg.Expense)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err := checkParticipants(group, expense, &original); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	expense.IsSettlement = original.IsSettlement

	updated, err := s.store.ReplaceExpense(ctx, group.ID, req.Msg.Timestamp, &expense)
	if err != nil {
		err = toConnectError(err)
		logFailure(s.logger, "UpdateExpense failed", err, "group_id", group.ID)
		return nil, err
	}

	out, err := s.respondExpense(ctx, updated, expense)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: out}), nil
}

// DeleteExpense removes the expense whose timestamp matches exactly.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("DeleteExpense request received", "group_id", req.Msg.GroupID, "timestamp", req.Msg.Timestamp)

	if _, err := loadGroup(ctx, s.store, req.Msg.GroupID, session.UserID); err != nil {
		return nil, err
	}
	if _, err := s.store.RemoveExpense(ctx, req.Msg.GroupID, req.Msg.Timestamp); err != nil {
		err = toConnectError(err)
		logFailure(s.logger, "DeleteExpense failed", err, "group_id", req.Msg.GroupID)
		return nil, err
	}

	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// ClearExpenses wipes a group's history. Only the owner may do this.
func (s *ExpenseService) ClearExpenses(ctx context.Context, req *connect.Request[api.ClearExpensesRequest]) (*connect.Response[api.ClearExpensesResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ClearExpenses request received", "group_id", req.Msg.GroupID)

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !group.IsOwner(session.UserID) {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotGroupOwner)
	}

	if _, err := s.store.ClearExpenses(ctx, group.ID); err != nil {
		err = toConnectError(err)
		logFailure(s.logger, "ClearExpenses failed", err, "group_id", group.ID)
		return nil, err
	}

	s.logger.Info("Expenses cleared", "group_id", group.ID, "count", len(group.Expenses))
	return connect.NewResponse(&api.ClearExpensesResponse{}), nil
}

// ListExpenses returns the group's history, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ListExpenses request received", "group_id", req.Msg.GroupID)

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID, session.UserID)
	if err != nil {
		return nil, err
	}
	names, err := nameTable(ctx, group, s.resolver)
	if err != nil {
		return nil, toConnectError(err)
	}

	expenses := make([]*api.Expense, len(group.Expenses))
	for i, e := range group.Expenses {
		expenses[i] = toAPIExpense(e, names)
	}
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].Timestamp > expenses[j].Timestamp
	})

	return connect.NewResponse(&api.ListExpensesResponse{Expenses: expenses}), nil
}

// RecordSettlement records that From paid To, as a synthetic expense that
// moves both balances towards zero.
func (s *ExpenseService) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("RecordSettlement request received",
		"group_id", req.Msg.GroupID,
		"from", req.Msg.From,
		"to", req.Msg.To,
		"amount", req.Msg.Amount.String(),
	)

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID, session.UserID)
	if err != nil {
		return nil, err
	}

	from := models.ParseParticipantID(req.Msg.From)
	to := models.ParseParticipantID(req.Msg.To)
	switch {
	case from.IsZero() || to.IsZero():
		return nil, connect.NewError(connect.CodeInvalidArgument, calculator.ErrMissingPayer)
	case from == to:
		return nil, connect.NewError(connect.CodeInvalidArgument, errSelfSettlement)
	case !req.Msg.Amount.IsPositive():
		return nil, connect.NewError(connect.CodeInvalidArgument, calculator.ErrInvalidAmount)
	}

	settlement := models.NewSettlement(from, to, req.Msg.Amount, time.Now())
	universe := calculator.Universe(group)
	if !models.ContainsParticipant(universe, from) || !models.ContainsParticipant(universe, to) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errUnknownParticipant)
	}

	updated, err := s.store.AddExpense(ctx, group.ID, &settlement)
	if err != nil {
		err = toConnectError(err)
		logFailure(s.logger, "RecordSettlement failed", err, "group_id", group.ID)
		return nil, err
	}

	out, err := s.respondExpense(ctx, updated, settlement)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.RecordSettlementResponse{Expense: out}), nil
}

// ListSettlements returns the group's settlement records, newest first.
func (s *ExpenseService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID, session.UserID)
	if err != nil {
		return nil, err
	}
	settlements, err := s.store.ListSettlements(ctx, group.ID)
	if err != nil {
		err = toConnectError(err)
		logFailure(s.logger, "ListSettlements failed", err, "group_id", group.ID)
		return nil, err
	}
	names, err := nameTable(ctx, group, s.resolver)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]*api.Expense, len(settlements))
	for i, e := range settlements {
		out[i] = toAPIExpense(e, names)
	}
	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}
