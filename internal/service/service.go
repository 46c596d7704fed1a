// Package service implements the Connect RPC services of splitledger.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

var (
	errNotGroupMember = errors.New("not a member of this group")
	errNotGroupOwner  = errors.New("only the group owner can do this")
	errGroupIDMissing = errors.New("group_id required")
)

// HandlerOptions are applied when a service registers its procedures.
// Anonymous options go on procedures callable without a session (Register,
// Login), Authenticated options on everything else and must include an
// auth interceptor.
type HandlerOptions struct {
	Anonymous     []connect.HandlerOption
	Authenticated []connect.HandlerOption
}

func handle[Req, Res any](
	mux *http.ServeMux,
	procedure string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts []connect.HandlerOption,
) {
	opts = append([]connect.HandlerOption{connect.WithCodec(api.Codec())}, opts...)
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

// requireSession returns the caller's session or an Unauthenticated error.
func requireSession(ctx context.Context) (middleware.Session, error) {
	session, ok := middleware.SessionFromContext(ctx)
	if !ok {
		return middleware.Session{}, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return session, nil
}

// toConnectError maps store and engine errors onto Connect codes.
func toConnectError(err error) error {
	var connectErr *connect.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &connectErr):
		return err
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrExpenseNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, storage.ErrAlreadyMember), errors.Is(err, storage.ErrAlreadyExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// loadGroup fetches a group and checks the caller is an active member.
func loadGroup(ctx context.Context, store storage.GroupStore, groupID, userID string) (*models.Group, error) {
	if groupID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errGroupIDMissing)
	}
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !group.IsMember(models.MemberID(userID)) {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotGroupMember)
	}
	return group, nil
}

// nameTable resolves the display name of every participant of group in one
// fan-out.
func nameTable(ctx context.Context, group *models.Group, resolver calculator.Resolver) (map[models.ParticipantID]string, error) {
	entries, err := calculator.ComputeBalances(ctx, group, resolver)
	if err != nil {
		return nil, err
	}
	names := make(map[models.ParticipantID]string, len(entries))
	for _, e := range entries {
		names[e.Participant] = e.DisplayName
	}
	return names, nil
}

func lookupName(names map[models.ParticipantID]string, id models.ParticipantID) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id.String()
}

func toAPIGroup(group *models.Group) *api.Group {
	return &api.Group{
		ID:             group.ID,
		Name:           group.Name,
		Members:        models.ParticipantStrings(group.Members),
		PendingMembers: models.ParticipantStrings(group.PendingMembers),
		CreatedBy:      group.CreatedBy,
		CreatedAt:      group.CreatedAt,
		ExpenseCount:   len(group.Expenses),
		TotalSpent:     calculator.TotalSpent(group.Expenses),
	}
}

func toAPIUser(user *models.User) *api.User {
	return &api.User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
	}
}

func toAPIExpense(e models.Expense, names map[models.ParticipantID]string) *api.Expense {
	shares := calculator.Shares(e)
	out := &api.Expense{
		ID:           e.ID,
		Description:  e.Description,
		Amount:       e.Amount,
		PaidBy:       e.PaidBy.String(),
		PaidByName:   lookupName(names, e.PaidBy),
		SplitMode:    string(e.Split.Mode),
		Shares:       make([]api.Share, len(shares)),
		Date:         e.Date,
		Timestamp:    e.Timestamp,
		IsSettlement: e.IsSettlement,
	}
	if out.SplitMode == "" {
		out.SplitMode = string(models.SplitEqual)
	}
	for i, share := range shares {
		out.Shares[i] = api.Share{
			MemberID:    share.MemberID.String(),
			DisplayName: lookupName(names, share.MemberID),
			Amount:      share.Amount,
		}
	}
	return out
}

func logFailure(logger *slog.Logger, msg string, err error, attrs ...any) {
	if connect.CodeOf(err) == connect.CodeInternal || connect.CodeOf(err) == connect.CodeUnknown {
		logger.Error(msg, append(attrs, "error", err)...)
		return
	}
	logger.Warn(msg, append(attrs, "error", err)...)
}
