package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

var (
	errGroupNameMissing = errors.New("group name required")
	errOwnerCannotLeave = errors.New("the group owner cannot be removed")
)

// GroupService implements the GroupService RPC interface.
type GroupService struct {
	store    storage.Store
	resolver calculator.Resolver
	logger   *slog.Logger
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, resolver calculator.Resolver, logger *slog.Logger) *GroupService {
	return &GroupService{store: store, resolver: resolver, logger: logger}
}

// Mount registers the service's procedures on mux.
func (s *GroupService) Mount(mux *http.ServeMux, opts HandlerOptions) {
	handle(mux, api.GroupCreateProcedure, s.CreateGroup, opts.Authenticated)
	handle(mux, api.GroupGetProcedure, s.GetGroup, opts.Authenticated)
	handle(mux, api.GroupListProcedure, s.ListGroups, opts.Authenticated)
	handle(mux, api.GroupRenameProcedure, s.RenameGroup, opts.Authenticated)
	handle(mux, api.GroupDeleteProcedure, s.DeleteGroup, opts.Authenticated)
	handle(mux, api.GroupAddMemberProcedure, s.AddMember, opts.Authenticated)
	handle(mux, api.GroupRemoveMemberProcedure, s.RemoveMember, opts.Authenticated)
	handle(mux, api.GroupRemovePendingMemberProcedure, s.RemovePendingMember, opts.Authenticated)
	handle(mux, api.GroupListMembersProcedure, s.ListMembers, opts.Authenticated)
}

// invitee is an email resolved to either a registered member or a pending
// placeholder.
type invitee struct {
	id      models.ParticipantID
	email   string
	pending bool
}

func (s *GroupService) resolveInvitee(ctx context.Context, rawEmail string) (invitee, error) {
	email, err := auth.NormalizeEmail(rawEmail)
	if err != nil {
		return invitee{}, connect.NewError(connect.CodeInvalidArgument, err)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return invitee{id: models.MemberID(user.ID), email: email}, nil
	case errors.Is(err, storage.ErrNotFound):
		return invitee{id: models.PendingEmail(email), email: email, pending: true}, nil
	default:
		return invitee{}, toConnectError(err)
	}
}

// CreateGroup creates a group owned by the caller.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"invitees_count", len(req.Msg.MemberEmails),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errGroupNameMissing)
	}

	group := &models.Group{
		Name:      name,
		CreatedBy: session.UserID,
		Members:   []models.ParticipantID{models.MemberID(session.UserID)},
	}
	for _, email := range req.Msg.MemberEmails {
		inv, err := s.resolveInvitee(ctx, email)
		if err != nil {
			return nil, err
		}
		switch {
		case inv.pending && !group.IsPending(inv.id):
			group.PendingMembers = append(group.PendingMembers, inv.id)
		case !inv.pending && !group.IsMember(inv.id):
			group.Members = append(group.Members, inv.id)
		}
	}

	if err := s.store.CreateGroup(ctx, group); err != nil {
		s.logger.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Group created", "group_id", group.ID, "created_by", group.CreatedBy)
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// GetGroup retrieves a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID, session.UserID)
	if err != nil {
		logFailure(s.logger, "GetGroup failed", err, "group_id", req.Msg.GroupID)
		return nil, err
	}

	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group)}), nil
}

// ListGroups returns every group the caller is an active member of.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ListGroups request received", "user_id", session.UserID)

	groups, err := s.store.ListGroupsByMember(ctx, session.UserID)
	if err != nil {
		s.logger.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Group, len(groups))
	for i, group := range groups {
		out[i] = toAPIGroup(group)
	}

	s.logger.Info("ListGroups successful", "count", len(out))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// RenameGroup changes a group's name. Any member may rename.
func (s *GroupService) RenameGroup(ctx context.Context, req *connect.Request[api.RenameGroupRequest]) (*connect.Response[api.RenameGroupResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("RenameGroup request received", "group_id", req.Msg.GroupID, "name", req.Msg.Name)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errGroupNameMissing)
	}
	if _, err := loadGroup(ctx, s.store, req.Msg.GroupID, session.UserID); err != nil {
		return nil, err
	}

	group, err := s.store.RenameGroup(ctx, req.Msg.GroupID, name)
	if err != nil {
		err = toConnectError(err)
		logFailure(s.logger, "RenameGroup failed", err, "group_id", req.Msg.GroupID)
		return nil, err
	}

	return connect.NewResponse(&api.RenameGroupResponse{Group: toAPIGroup(group)}), nil
}

// DeleteGroup removes a group. Only its owner may delete it.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !group.IsOwner(session.UserID) {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotGroupOwner)
	}

	if err := s.store.DeleteGroup(ctx, group.ID); err != nil {
		err = toConnectError(err)
		logFailure(s.logger, "DeleteGroup failed", err, "group_id", group.ID)
		return nil, err
	}

	s.logger.Info("Group deleted", "group_id", group.ID)
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// AddMember adds a registered user by email, or invites the email when no
// account exists yet.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("AddMember request received", "group_id", req.Msg.GroupID, "email", req.Msg.Email)

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID, session.UserID)
	if err != nil {
		return nil, err
	}
	inv, err := s.resolveInvitee(ctx, req.Msg.Email)
	if err != nil {
		return nil, err
	}

	role := api.RoleMember
	switch {
	case inv.pending:
		role = api.RolePending
		_, err = s.store.AddPendingMembers(ctx, group.ID, inv.id.String())
	case group.IsPending(models.PendingEmail(inv.email)):
		// The account was registered but this group's invitation was never
		// claimed. Migrating turns the invitation and its history into the
		// membership instead of adding a second participant.
		err = s.claimInvitation(ctx, group.ID, inv)
	default:
		_, err = s.store.AddMembers(ctx, group.ID, inv.id.String())
	}
	if err != nil {
		err = toConnectError(err)
		logFailure(s.logger, "AddMember failed", err, "group_id", req.Msg.GroupID)
		return nil, err
	}

	s.logger.Info("Member added", "group_id", req.Msg.GroupID, "member", inv.id.String(), "pending", inv.pending)
	return connect.NewResponse(&api.AddMemberResponse{
		Member: &api.Member{
			ID:          inv.id.String(),
			DisplayName: s.resolver.DisplayName(ctx, inv.id),
			Role:        role,
		},
		Pending: inv.pending,
	}), nil
}

// claimInvitation migrates a leftover pending invitation to inv. A
// concurrent claim can win the race, in which case the member is added
// directly.
func (s *GroupService) claimInvitation(ctx context.Context, groupID string, inv invitee) error {
	changed, err := s.store.MigratePendingMember(ctx, groupID, inv.email, inv.id.String())
	if err != nil {
		return err
	}
	s.logger.Info("Claimed pending invitation",
		"group_id", groupID,
		"email", inv.email,
		"member_id", inv.id.String(),
		"changed", changed,
	)
	if changed {
		return nil
	}
	_, err = s.store.AddMembers(ctx, groupID, inv.id.String())
	return err
}

// RemoveMember removes an active member. The owner may remove anyone but
// themselves; other members may only remove themselves.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("RemoveMember request received", "group_id", req.Msg.GroupID, "member_id", req.Msg.MemberID)

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID, session.UserID)
	if err != nil {
		return nil, err
	}
	switch {
	case group.IsOwner(req.Msg.MemberID):
		return nil, connect.NewError(connect.CodeFailedPrecondition, errOwnerCannotLeave)
	case !group.IsOwner(session.UserID) && req.Msg.MemberID != session.UserID:
		return nil, connect.NewError(connect.CodePermissionDenied, errNotGroupOwner)
	}

	if _, err := s.store.RemoveMember(ctx, group.ID, req.Msg.MemberID); err != nil {
		err = toConnectError(err)
		logFailure(s.logger, "RemoveMember failed", err, "group_id", group.ID)
		return nil, err
	}

	s.logger.Info("Member removed", "group_id", group.ID, "member_id", req.Msg.MemberID)
	return connect.NewResponse(&api.RemoveMemberResponse{}), nil
}

// RemovePendingMember withdraws an invitation.
func (s *GroupService) RemovePendingMember(ctx context.Context, req *connect.Request[api.RemovePendingMemberRequest]) (*connect.Response[api.RemovePendingMemberResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("RemovePendingMember request received", "group_id", req.Msg.GroupID, "email", req.Msg.Email)

	if _, err := loadGroup(ctx, s.store, req.Msg.GroupID, session.UserID); err != nil {
		return nil, err
	}
	email, err := auth.NormalizeEmail(req.Msg.Email)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if _, err := s.store.RemovePendingMember(ctx, req.Msg.GroupID, email); err != nil {
		err = toConnectError(err)
		logFailure(s.logger, "RemovePendingMember failed", err, "group_id", req.Msg.GroupID)
		return nil, err
	}

	return connect.NewResponse(&api.RemovePendingMemberResponse{}), nil
}

// ListMembers returns active members followed by pending invitees, with
// resolved names and roles.
func (s *GroupService) ListMembers(ctx context.Context, req *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ListMembers request received", "group_id", req.Msg.GroupID)

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID, session.UserID)
	if err != nil {
		return nil, err
	}

	names, err := nameTable(ctx, &models.Group{Members: group.Members, PendingMembers: group.PendingMembers}, s.resolver)
	if err != nil {
		return nil, toConnectError(err)
	}

	members := make([]*api.Member, 0, len(group.Members)+len(group.PendingMembers))
	for _, id := range group.Members {
		role := api.RoleMember
		if group.IsOwner(id.String()) {
			role = api.RoleAdmin
		}
		members = append(members, &api.Member{ID: id.String(), DisplayName: lookupName(names, id), Role: role})
	}
	for _, id := range group.PendingMembers {
		members = append(members, &api.Member{ID: id.String(), DisplayName: lookupName(names, id), Role: api.RolePending})
	}

	return connect.NewResponse(&api.ListMembersResponse{Members: members}), nil
}
