package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

// seedLedger writes a group where Alice paid 30 split three ways with Bob
// and an invited email.
func seedLedger(t *testing.T) (dbPath, groupID string) {
	t.Helper()
	ctx := context.Background()
	dbPath = filepath.Join(t.TempDir(), "ledger.db")

	store, err := sqlite.New(dbPath)
	require.NoError(t, err)
	defer store.Close()

	alice := models.NewUser("alice@example.com", "Alice", "hash")
	bob := models.NewUser("bob@example.com", "Bob", "hash")
	require.NoError(t, store.CreateUser(ctx, alice))
	require.NoError(t, store.CreateUser(ctx, bob))

	group := &models.Group{
		Name:           "Trip",
		CreatedBy:      alice.ID,
		Members:        []models.ParticipantID{models.MemberID(alice.ID), models.MemberID(bob.ID)},
		PendingMembers: []models.ParticipantID{models.PendingEmail("c@x.com")},
	}
	require.NoError(t, store.CreateGroup(ctx, group))

	expense := models.Expense{
		Description: "Dinner",
		Amount:      decimal.NewFromInt(30),
		PaidBy:      models.MemberID(alice.ID),
		Split:       models.EqualSplit(models.MemberID(alice.ID), models.MemberID(bob.ID), models.PendingEmail("c@x.com")),
	}
	_, err = store.AddExpense(ctx, group.ID, &expense)
	require.NoError(t, err)

	return dbPath, group.ID
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	missing := filepath.Join(t.TempDir(), "missing.env")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--env-file", missing, "--log-level", "error"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBalancesCommand(t *testing.T) {
	dbPath, groupID := seedLedger(t)

	out, err := runCLI(t, "balances", groupID, "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Trip")
	assert.Contains(t, out, "$30.00 total")
	assert.Contains(t, out, "+$20.00")
	assert.Contains(t, out, "c@x.com")
	assert.Contains(t, out, "(invited)")
	assert.Contains(t, out, "Bob should pay Alice $10.00")
	assert.Contains(t, out, "c@x.com should pay Alice $10.00")
}

func TestBalancesCommand_JSON(t *testing.T) {
	dbPath, groupID := seedLedger(t)

	out, err := runCLI(t, "balances", groupID, "--db", dbPath, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"totalSpentFormatted": "$30.00"`)
	assert.Contains(t, out, `"allSettled": false`)
}

func TestBalancesCommand_UnknownGroup(t *testing.T) {
	dbPath, _ := seedLedger(t)

	_, err := runCLI(t, "balances", "does-not-exist", "--db", dbPath)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "splitledger dev")
}

func TestServeRequiresSecret(t *testing.T) {
	t.Setenv("SPLITLEDGER_AUTH_JWT_SECRET", "")
	_, err := runCLI(t, "serve", "--db", filepath.Join(t.TempDir(), "x.db"))
	assert.Error(t, err)
}

func TestCORSMiddleware(t *testing.T) {
	called := false
	handler := corsMiddleware("https://app.example.com", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/splitledger.v1.GroupService/ListGroups", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/splitledger.v1.GroupService/ListGroups", nil))
	assert.True(t, called)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	handler := loggingMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/healthz"`)
}
