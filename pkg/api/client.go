package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// WithBearerToken returns a client option that sends token in the
// Authorization header of every request.
func WithBearerToken(token string) connect.ClientOption {
	return connect.WithInterceptors(connect.UnaryInterceptorFunc(
		func(next connect.UnaryFunc) connect.UnaryFunc {
			return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
				if token != "" {
					req.Header().Set("Authorization", "Bearer "+token)
				}
				return next(ctx, req)
			}
		},
	))
}

func newClient[Req, Res any](httpClient connect.HTTPClient, baseURL, procedure string, opts []connect.ClientOption) *connect.Client[Req, Res] {
	opts = append([]connect.ClientOption{connect.WithCodec(Codec())}, opts...)
	return connect.NewClient[Req, Res](httpClient, strings.TrimRight(baseURL, "/")+procedure, opts...)
}

func call[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], req *Req) (*Res, error) {
	resp, err := c.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// AuthClient calls AuthService.
type AuthClient struct {
	register       *connect.Client[RegisterRequest, RegisterResponse]
	login          *connect.Client[LoginRequest, LoginResponse]
	logout         *connect.Client[LogoutRequest, LogoutResponse]
	getCurrentUser *connect.Client[GetCurrentUserRequest, GetCurrentUserResponse]
	updateProfile  *connect.Client[UpdateProfileRequest, UpdateProfileResponse]
	changePassword *connect.Client[ChangePasswordRequest, ChangePasswordResponse]
}

// NewAuthClient creates an AuthService client. httpClient defaults to
// http.DefaultClient when nil.
func NewAuthClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &AuthClient{
		register:       newClient[RegisterRequest, RegisterResponse](httpClient, baseURL, AuthRegisterProcedure, opts),
		login:          newClient[LoginRequest, LoginResponse](httpClient, baseURL, AuthLoginProcedure, opts),
		logout:         newClient[LogoutRequest, LogoutResponse](httpClient, baseURL, AuthLogoutProcedure, opts),
		getCurrentUser: newClient[GetCurrentUserRequest, GetCurrentUserResponse](httpClient, baseURL, AuthGetCurrentUserProcedure, opts),
		updateProfile:  newClient[UpdateProfileRequest, UpdateProfileResponse](httpClient, baseURL, AuthUpdateProfileProcedure, opts),
		changePassword: newClient[ChangePasswordRequest, ChangePasswordResponse](httpClient, baseURL, AuthChangePasswordProcedure, opts),
	}
}

func (c *AuthClient) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	return call(ctx, c.register, req)
}

func (c *AuthClient) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	return call(ctx, c.login, req)
}

func (c *AuthClient) Logout(ctx context.Context, req *LogoutRequest) (*LogoutResponse, error) {
	return call(ctx, c.logout, req)
}

func (c *AuthClient) ChangePassword(ctx context.Context, req *ChangePasswordRequest) (*ChangePasswordResponse, error) {
	return call(ctx, c.changePassword, req)
}

func (c *AuthClient) GetCurrentUser(ctx context.Context, req *GetCurrentUserRequest) (*GetCurrentUserResponse, error) {
	return call(ctx, c.getCurrentUser, req)
}

func (c *AuthClient) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*UpdateProfileResponse, error) {
	return call(ctx, c.updateProfile, req)
}

// GroupClient calls GroupService.
type GroupClient struct {
	create              *connect.Client[CreateGroupRequest, CreateGroupResponse]
	get                 *connect.Client[GetGroupRequest, GetGroupResponse]
	list                *connect.Client[ListGroupsRequest, ListGroupsResponse]
	rename              *connect.Client[RenameGroupRequest, RenameGroupResponse]
	delete              *connect.Client[DeleteGroupRequest, DeleteGroupResponse]
	addMember           *connect.Client[AddMemberRequest, AddMemberResponse]
	removeMember        *connect.Client[RemoveMemberRequest, RemoveMemberResponse]
	removePendingMember *connect.Client[RemovePendingMemberRequest, RemovePendingMemberResponse]
	listMembers         *connect.Client[ListMembersRequest, ListMembersResponse]
}

// NewGroupClient creates a GroupService client.
func NewGroupClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GroupClient{
		create:              newClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL, GroupCreateProcedure, opts),
		get:                 newClient[GetGroupRequest, GetGroupResponse](httpClient, baseURL, GroupGetProcedure, opts),
		list:                newClient[ListGroupsRequest, ListGroupsResponse](httpClient, baseURL, GroupListProcedure, opts),
		rename:              newClient[RenameGroupRequest, RenameGroupResponse](httpClient, baseURL, GroupRenameProcedure, opts),
		delete:              newClient[DeleteGroupRequest, DeleteGroupResponse](httpClient, baseURL, GroupDeleteProcedure, opts),
		addMember:           newClient[AddMemberRequest, AddMemberResponse](httpClient, baseURL, GroupAddMemberProcedure, opts),
		removeMember:        newClient[RemoveMemberRequest, RemoveMemberResponse](httpClient, baseURL, GroupRemoveMemberProcedure, opts),
		removePendingMember: newClient[RemovePendingMemberRequest, RemovePendingMemberResponse](httpClient, baseURL, GroupRemovePendingMemberProcedure, opts),
		listMembers:         newClient[ListMembersRequest, ListMembersResponse](httpClient, baseURL, GroupListMembersProcedure, opts),
	}
}

func (c *GroupClient) CreateGroup(ctx context.Context, req *CreateGroupRequest) (*CreateGroupResponse, error) {
	return call(ctx, c.create, req)
}

func (c *GroupClient) GetGroup(ctx context.Context, req *GetGroupRequest) (*GetGroupResponse, error) {
	return call(ctx, c.get, req)
}

func (c *GroupClient) ListGroups(ctx context.Context, req *ListGroupsRequest) (*ListGroupsResponse, error) {
	return call(ctx, c.list, req)
}

func (c *GroupClient) RenameGroup(ctx context.Context, req *RenameGroupRequest) (*RenameGroupResponse, error) {
	return call(ctx, c.rename, req)
}

func (c *GroupClient) DeleteGroup(ctx context.Context, req *DeleteGroupRequest) (*DeleteGroupResponse, error) {
	return call(ctx, c.delete, req)
}

func (c *GroupClient) AddMember(ctx context.Context, req *AddMemberRequest) (*AddMemberResponse, error) {
	return call(ctx, c.addMember, req)
}

func (c *GroupClient) RemoveMember(ctx context.Context, req *RemoveMemberRequest) (*RemoveMemberResponse, error) {
	return call(ctx, c.removeMember, req)
}

func (c *GroupClient) RemovePendingMember(ctx context.Context, req *RemovePendingMemberRequest) (*RemovePendingMemberResponse, error) {
	return call(ctx, c.removePendingMember, req)
}

func (c *GroupClient) ListMembers(ctx context.Context, req *ListMembersRequest) (*ListMembersResponse, error) {
	return call(ctx, c.listMembers, req)
}

// ExpenseClient calls ExpenseService.
type ExpenseClient struct {
	add              *connect.Client[AddExpenseRequest, AddExpenseResponse]
	update           *connect.Client[UpdateExpenseRequest, UpdateExpenseResponse]
	delete           *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	clear            *connect.Client[ClearExpensesRequest, ClearExpensesResponse]
	list             *connect.Client[ListExpensesRequest, ListExpensesResponse]
	recordSettlement *connect.Client[RecordSettlementRequest, RecordSettlementResponse]
	listSettlements  *connect.Client[ListSettlementsRequest, ListSettlementsResponse]
}

// NewExpenseClient creates an ExpenseService client.
func NewExpenseClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ExpenseClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ExpenseClient{
		add:              newClient[AddExpenseRequest, AddExpenseResponse](httpClient, baseURL, ExpenseAddProcedure, opts),
		update:           newClient[UpdateExpenseRequest, UpdateExpenseResponse](httpClient, baseURL, ExpenseUpdateProcedure, opts),
		delete:           newClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL, ExpenseDeleteProcedure, opts),
		clear:            newClient[ClearExpensesRequest, ClearExpensesResponse](httpClient, baseURL, ExpenseClearProcedure, opts),
		list:             newClient[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL, ExpenseListProcedure, opts),
		recordSettlement: newClient[RecordSettlementRequest, RecordSettlementResponse](httpClient, baseURL, ExpenseRecordSettlementProcedure, opts),
		listSettlements:  newClient[ListSettlementsRequest, ListSettlementsResponse](httpClient, baseURL, ExpenseListSettlementsProcedure, opts),
	}
}

func (c *ExpenseClient) AddExpense(ctx context.Context, req *AddExpenseRequest) (*AddExpenseResponse, error) {
	return call(ctx, c.add, req)
}

func (c *ExpenseClient) UpdateExpense(ctx context.Context, req *UpdateExpenseRequest) (*UpdateExpenseResponse, error) {
	return call(ctx, c.update, req)
}

func (c *ExpenseClient) DeleteExpense(ctx context.Context, req *DeleteExpenseRequest) (*DeleteExpenseResponse, error) {
	return call(ctx, c.delete, req)
}

func (c *ExpenseClient) ClearExpenses(ctx context.Context, req *ClearExpensesRequest) (*ClearExpensesResponse, error) {
	return call(ctx, c.clear, req)
}

func (c *ExpenseClient) ListExpenses(ctx context.Context, req *ListExpensesRequest) (*ListExpensesResponse, error) {
	return call(ctx, c.list, req)
}

func (c *ExpenseClient) RecordSettlement(ctx context.Context, req *RecordSettlementRequest) (*RecordSettlementResponse, error) {
	return call(ctx, c.recordSettlement, req)
}

func (c *ExpenseClient) ListSettlements(ctx context.Context, req *ListSettlementsRequest) (*ListSettlementsResponse, error) {
	return call(ctx, c.listSettlements, req)
}

// BalanceClient calls BalanceService.
type BalanceClient struct {
	getGroupBalances *connect.Client[GetGroupBalancesRequest, GetGroupBalancesResponse]
	getSummary       *connect.Client[GetSummaryRequest, GetSummaryResponse]
}

// NewBalanceClient creates a BalanceService client.
func NewBalanceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BalanceClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &BalanceClient{
		getGroupBalances: newClient[GetGroupBalancesRequest, GetGroupBalancesResponse](httpClient, baseURL, BalanceGetGroupBalancesProcedure, opts),
		getSummary:       newClient[GetSummaryRequest, GetSummaryResponse](httpClient, baseURL, BalanceGetSummaryProcedure, opts),
	}
}

func (c *BalanceClient) GetGroupBalances(ctx context.Context, req *GetGroupBalancesRequest) (*GetGroupBalancesResponse, error) {
	return call(ctx, c.getGroupBalances, req)
}

func (c *BalanceClient) GetSummary(ctx context.Context, req *GetSummaryRequest) (*GetSummaryResponse, error) {
	return call(ctx, c.getSummary, req)
}
