package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

var (
	errPasswordFieldsMissing = errors.New("current, new and confirmation passwords are required")
	errPasswordMismatch      = errors.New("new passwords do not match")
)

// profileCache is the part of the identity resolver that must hear about
// profile changes.
type profileCache interface {
	Forget(ctx context.Context, memberID string)
}

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         storage.UserStore
	groups        storage.GroupStore
	profiles      profileCache
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service. profiles may be nil.
func NewAuthService(
	authenticator auth.Authenticator,
	jwtManager *auth.JWTManager,
	store storage.Store,
	profiles profileCache,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         store,
		groups:        store,
		profiles:      profiles,
		logger:        logger,
	}
}

// Mount registers the service's procedures on mux.
func (s *AuthService) Mount(mux *http.ServeMux, opts HandlerOptions) {
	handle(mux, api.AuthRegisterProcedure, s.Register, opts.Anonymous)
	handle(mux, api.AuthLoginProcedure, s.Login, opts.Anonymous)
	handle(mux, api.AuthLogoutProcedure, s.Logout, opts.Authenticated)
	handle(mux, api.AuthGetCurrentUserProcedure, s.GetCurrentUser, opts.Authenticated)
	handle(mux, api.AuthUpdateProfileProcedure, s.UpdateProfile, opts.Authenticated)
	handle(mux, api.AuthChangePasswordProcedure, s.ChangePassword, opts.Authenticated)
}

// Register creates a new user account, then claims every pending
// invitation addressed to its email.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	if strings.TrimSpace(req.Msg.Email) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidEmail)
	}

	user, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Msg.Email, "error", err)
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidEmail):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		default:
			return nil, connect.NewError(connect.CodeInternal, err)
		}
	}

	migrated := s.claimInvitations(ctx, user.Email, user.ID)

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email, "migrated_groups", migrated)
	return connect.NewResponse(&api.RegisterResponse{
		User:           toAPIUser(user),
		Token:          token,
		MigratedGroups: migrated,
	}), nil
}

// claimInvitations rewrites email to memberID in every group that invited
// it. A group that fails is logged and left pending; the account exists
// either way.
func (s *AuthService) claimInvitations(ctx context.Context, email, memberID string) int {
	groups, err := s.groups.ListGroupsByPendingEmail(ctx, email)
	if err != nil {
		s.logger.Error("Failed to list pending invitations", "email", email, "error", err)
		return 0
	}

	migrated := 0
	for _, group := range groups {
		changed, err := s.groups.MigratePendingMember(ctx, group.ID, email, memberID)
		if err != nil {
			s.logger.Error("Failed to migrate pending member",
				"group_id", group.ID,
				"email", email,
				"member_id", memberID,
				"error", err,
			)
			continue
		}
		if changed {
			migrated++
		}
	}
	return migrated
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Error("Login failed", "email", req.Msg.Email, "error", err)
			return nil, connect.NewError(connect.CodeInternal, err)
		}
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID)
	return connect.NewResponse(&api.LoginResponse{User: toAPIUser(user), Token: token}), nil
}

// Logout ends the session. Tokens are stateless, so the client discards it.
func (s *AuthService) Logout(ctx context.Context, req *connect.Request[api.LogoutRequest]) (*connect.Response[api.LogoutResponse], error) {
	s.logger.Info("Logout request", "user_id", middleware.GetUserID(ctx))
	return connect.NewResponse(&api.LogoutResponse{}), nil
}

// GetCurrentUser returns the caller's account.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		err = toConnectError(err)
		logFailure(s.logger, "GetCurrentUser failed", err, "user_id", session.UserID)
		return nil, err
	}
	return connect.NewResponse(&api.GetCurrentUserResponse{User: toAPIUser(user)}), nil
}

// UpdateProfile changes the caller's display name and returns a token
// carrying it.
func (s *AuthService) UpdateProfile(ctx context.Context, req *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.UpdateProfileResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("UpdateProfile request", "user_id", session.UserID)

	user, err := s.users.UpdateDisplayName(ctx, session.UserID, strings.TrimSpace(req.Msg.DisplayName))
	if err != nil {
		err = toConnectError(err)
		logFailure(s.logger, "UpdateProfile failed", err, "user_id", session.UserID)
		return nil, err
	}
	if s.profiles != nil {
		s.profiles.Forget(ctx, user.ID)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&api.UpdateProfileResponse{User: toAPIUser(user), Token: token}), nil
}

// ChangePassword replaces the caller's password after re-checking the
// current one. Existing tokens stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, req *connect.Request[api.ChangePasswordRequest]) (*connect.Response[api.ChangePasswordResponse], error) {
	session, err := requireSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ChangePassword request", "user_id", session.UserID)

	msg := req.Msg
	switch {
	case msg.CurrentPassword == "" || msg.NewPassword == "" || msg.ConfirmPassword == "":
		return nil, connect.NewError(connect.CodeInvalidArgument, errPasswordFieldsMissing)
	case msg.NewPassword != msg.ConfirmPassword:
		return nil, connect.NewError(connect.CodeInvalidArgument, errPasswordMismatch)
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		err = toConnectError(err)
		logFailure(s.logger, "ChangePassword failed", err, "user_id", session.UserID)
		return nil, err
	}

	if _, err := s.authenticator.ChangeCredential(ctx, user.Email, msg.CurrentPassword, msg.NewPassword); err != nil {
		s.logger.Warn("ChangePassword failed", "user_id", session.UserID, "error", err)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
		case errors.Is(err, auth.ErrWeakPassword):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		default:
			return nil, connect.NewError(connect.CodeInternal, err)
		}
	}

	s.logger.Info("Password changed", "user_id", session.UserID)
	return connect.NewResponse(&api.ChangePasswordResponse{}), nil
}
