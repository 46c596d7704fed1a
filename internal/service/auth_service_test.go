package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/pkg/api"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	alice := ts.register(t, " Alice@Example.com ", "Alice")
	assert.Equal(t, "alice@example.com", alice.user.Email)
	assert.Equal(t, "Alice", alice.user.DisplayName)
	assert.NotEmpty(t, alice.token)

	login, err := ts.auth.Login(ctx, &api.LoginRequest{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, alice.user.ID, login.User.ID)

	me, err := alice.auth.GetCurrentUser(ctx, &api.GetCurrentUserRequest{})
	require.NoError(t, err)
	assert.Equal(t, alice.user.ID, me.User.ID)

	_, err = alice.auth.Logout(ctx, &api.LogoutRequest{})
	require.NoError(t, err)
}

func TestAuthService_RegisterErrors(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	ts.register(t, "alice@example.com", "Alice")

	tests := []struct {
		name string
		req  *api.RegisterRequest
		want connect.Code
	}{
		{"duplicate email", &api.RegisterRequest{Email: "ALICE@example.com", Password: "password123"}, connect.CodeAlreadyExists},
		{"short password", &api.RegisterRequest{Email: "bob@example.com", Password: "short"}, connect.CodeInvalidArgument},
		{"missing email", &api.RegisterRequest{Password: "password123"}, connect.CodeInvalidArgument},
		{"malformed email", &api.RegisterRequest{Email: "not-an-email", Password: "password123"}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.auth.Register(ctx, tt.req)
			requireCode(t, tt.want, err)
		})
	}
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, "alice@example.com", "Alice")

	_, err := ts.auth.Login(context.Background(), &api.LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	requireCode(t, connect.CodeUnauthenticated, err)

	_, err = ts.auth.Login(context.Background(), &api.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	requireCode(t, connect.CodeUnauthenticated, err)
}

func TestAuthService_RequiresToken(t *testing.T) {
	ts := setupTestServer(t)

	_, err := ts.auth.GetCurrentUser(context.Background(), &api.GetCurrentUserRequest{})
	requireCode(t, connect.CodeUnauthenticated, err)

	bogus := ts.clientsFor("not-a-jwt")
	_, err = bogus.groups.ListGroups(context.Background(), &api.ListGroupsRequest{})
	requireCode(t, connect.CodeUnauthenticated, err)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	alice := ts.register(t, "alice@example.com", "")
	group := alice.createGroup(t, "Trip")

	members, err := alice.groups.ListMembers(ctx, &api.ListMembersRequest{GroupID: group.ID})
	require.NoError(t, err)
	assert.Equal(t, "alice", members.Members[0].DisplayName)

	resp, err := alice.auth.UpdateProfile(ctx, &api.UpdateProfileRequest{DisplayName: "  Alice A.  "})
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", resp.User.DisplayName)
	require.NotEmpty(t, resp.Token)

	renamed := ts.clientsFor(resp.Token)
	members, err = renamed.groups.ListMembers(ctx, &api.ListMembersRequest{GroupID: group.ID})
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", members.Members[0].DisplayName)
}

func TestAuthService_ChangePassword(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	alice := ts.register(t, "alice@example.com", "Alice")

	tests := []struct {
		name string
		req  *api.ChangePasswordRequest
		want connect.Code
	}{
		{"wrong current password", &api.ChangePasswordRequest{CurrentPassword: "not-my-password", NewPassword: "new-password", ConfirmPassword: "new-password"}, connect.CodeUnauthenticated},
		{"confirmation mismatch", &api.ChangePasswordRequest{CurrentPassword: "password123", NewPassword: "new-password", ConfirmPassword: "new-passw0rd"}, connect.CodeInvalidArgument},
		{"too short", &api.ChangePasswordRequest{CurrentPassword: "password123", NewPassword: "short", ConfirmPassword: "short"}, connect.CodeInvalidArgument},
		{"missing field", &api.ChangePasswordRequest{NewPassword: "new-password", ConfirmPassword: "new-password"}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := alice.auth.ChangePassword(ctx, tt.req)
			requireCode(t, tt.want, err)
		})
	}

	// Failed attempts leave the old password in place.
	_, err := ts.auth.Login(ctx, &api.LoginRequest{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = alice.auth.ChangePassword(ctx, &api.ChangePasswordRequest{
		CurrentPassword: "password123",
		NewPassword:     "new-password",
		ConfirmPassword: "new-password",
	})
	require.NoError(t, err)

	_, err = ts.auth.Login(ctx, &api.LoginRequest{Email: "alice@example.com", Password: "password123"})
	requireCode(t, connect.CodeUnauthenticated, err)

	login, err := ts.auth.Login(ctx, &api.LoginRequest{Email: "alice@example.com", Password: "new-password"})
	require.NoError(t, err)
	assert.Equal(t, alice.user.ID, login.User.ID)

	_, err = ts.auth.ChangePassword(ctx, &api.ChangePasswordRequest{CurrentPassword: "x", NewPassword: "y", ConfirmPassword: "y"})
	requireCode(t, connect.CodeUnauthenticated, err)
}
