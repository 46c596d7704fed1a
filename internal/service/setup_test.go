package service

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/api"
)

type testServer struct {
	url     string
	store   *sqlite.SQLiteStore
	metrics *metrics.Metrics
	auth    *api.AuthClient
}

// session is a registered user with clients that send their token.
type session struct {
	user     *api.User
	token    string
	auth     *api.AuthClient
	groups   *api.GroupClient
	expenses *api.ExpenseClient
	balances *api.BalanceClient
}

// setupTestServer starts every service over a temp SQLite database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to create store")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	handler := NewHandler(Deps{
		Store:         store,
		Authenticator: auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost),
		JWTManager:    auth.NewJWTManager("test-secret", time.Hour),
		Metrics:       m,
		Logger:        logger,
	})

	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testServer{
		url:     server.URL,
		store:   store,
		metrics: m,
		auth:    api.NewAuthClient(server.Client(), server.URL),
	}
}

func (ts *testServer) clientsFor(token string) session {
	opt := api.WithBearerToken(token)
	return session{
		token:    token,
		auth:     api.NewAuthClient(nil, ts.url, opt),
		groups:   api.NewGroupClient(nil, ts.url, opt),
		expenses: api.NewExpenseClient(nil, ts.url, opt),
		balances: api.NewBalanceClient(nil, ts.url, opt),
	}
}

func (ts *testServer) register(t *testing.T, email, displayName string) session {
	t.Helper()

	resp, err := ts.auth.Register(context.Background(), &api.RegisterRequest{
		Email:       email,
		DisplayName: displayName,
		Password:    "password123",
	})
	require.NoError(t, err, "register %s", email)

	s := ts.clientsFor(resp.Token)
	s.user = resp.User
	return s
}

func (s session) createGroup(t *testing.T, name string, invitees ...string) *api.Group {
	t.Helper()

	resp, err := s.groups.CreateGroup(context.Background(), &api.CreateGroupRequest{Name: name, MemberEmails: invitees})
	require.NoError(t, err)
	return resp.Group
}

func (s session) addEqualExpense(t *testing.T, groupID, amount, paidBy string, splitBy ...string) *api.Expense {
	t.Helper()

	resp, err := s.expenses.AddExpense(context.Background(), &api.AddExpenseRequest{
		GroupID: groupID,
		Expense: &api.ExpenseInput{
			Description: "Dinner",
			Amount:      decimal.RequireFromString(amount),
			PaidBy:      paidBy,
			SplitBy:     splitBy,
		},
	})
	require.NoError(t, err)
	return resp.Expense
}

func requireCode(t *testing.T, want connect.Code, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, connect.CodeOf(err), "unexpected error: %v", err)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
