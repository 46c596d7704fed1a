package identity

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var _ calculator.Resolver = (*Resolver)(nil)

type fakeUsers struct {
	users map[string]*models.User
	calls atomic.Int32
	err   error
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", storage.ErrNotFound, id)
	}
	return user, nil
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*models.User{
		"alice-uid-0001": {ID: "alice-uid-0001", Email: "alice@example.com", DisplayName: "Alice"},
		"bob-uid-000002": {ID: "bob-uid-000002", Email: "bob@example.com"},
		"nameless-00003": {ID: "nameless-00003"},
	}}
}

func TestResolver_DisplayName(t *testing.T) {
	resolver := NewResolver(newFakeUsers())
	session := middleware.WithSession(context.Background(), middleware.Session{
		UserID: "me-uid-1234567", Email: "me@example.com",
	})

	tests := []struct {
		name string
		ctx  context.Context
		id   models.ParticipantID
		want string
	}{
		{"empty", context.Background(), models.ParticipantID{}, UnknownUser},
		{"pending email verbatim", context.Background(), models.PendingEmail("c@x.com"), "c@x.com"},
		{"display name", context.Background(), models.MemberID("alice-uid-0001"), "Alice"},
		{"email local-part", context.Background(), models.MemberID("bob-uid-000002"), "bob"},
		{"no name or email", context.Background(), models.MemberID("nameless-00003"), "nameless..."},
		{"unknown member", context.Background(), models.MemberID("ghost-uid-99"), "ghost-ui..."},
		{"short unknown member", context.Background(), models.MemberID("abc"), "abc..."},
		{"session user without display name", session, models.MemberID("me-uid-1234567"), "me"},
		{"other user with session", session, models.MemberID("alice-uid-0001"), "Alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolver.DisplayName(tt.ctx, tt.id))
		})
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc", "abc..."},
		{"12345678", "12345678..."},
		{"0f8fad5b-d9cb-469f-a165-70867728950e", "0f8fad5b..."},
		{"ñandú-über-straße", "ñandú-üb..."},
		{"日本語のユーザー識別子", "日本語のユーザー..."},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ShortID(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestResolver_SessionSkipsLookup(t *testing.T) {
	users := newFakeUsers()
	resolver := NewResolver(users)
	ctx := middleware.WithSession(context.Background(), middleware.Session{
		UserID: "alice-uid-0001", Email: "alice@example.com", DisplayName: "Me",
	})

	assert.Equal(t, "Me", resolver.DisplayName(ctx, models.MemberID("alice-uid-0001")))
	assert.Zero(t, users.calls.Load())
}

func TestResolver_LookupFailureFallsBack(t *testing.T) {
	users := newFakeUsers()
	users.err = errors.New("database is locked")
	resolver := NewResolver(users)

	assert.Equal(t, "alice-ui...", resolver.DisplayName(context.Background(), models.MemberID("alice-uid-0001")))
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, time.Minute), mr
}

func TestRedisCache(t *testing.T) {
	cache, mr := newRedisCache(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "alice", Profile{DisplayName: "Alice", Email: "alice@example.com"}))
	assert.True(t, mr.Exists(profileKeyPrefix+"alice"))

	profile, ok, err := cache.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Alice", profile.DisplayName)

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire after the TTL")

	require.NoError(t, cache.Set(ctx, "alice", Profile{DisplayName: "Alice"}))
	require.NoError(t, cache.Invalidate(ctx, "alice"))
	_, ok, err = cache.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolver_WithCache(t *testing.T) {
	cache, _ := newRedisCache(t)
	users := newFakeUsers()
	resolver := NewResolver(users, WithCache(cache))
	ctx := context.Background()
	alice := models.MemberID("alice-uid-0001")

	assert.Equal(t, "Alice", resolver.DisplayName(ctx, alice))
	assert.Equal(t, "Alice", resolver.DisplayName(ctx, alice))
	assert.Equal(t, int32(1), users.calls.Load(), "second lookup should hit the cache")

	users.users["alice-uid-0001"].DisplayName = "Alicia"
	resolver.Forget(ctx, alice.String())
	assert.Equal(t, "Alicia", resolver.DisplayName(ctx, alice))

	t.Run("cache outage degrades to direct lookup", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		t.Cleanup(func() { _ = client.Close() })
		mr.SetError("LOADING server is loading")

		broken := NewResolver(newFakeUsers(), WithCache(NewRedisCache(client, time.Minute)))
		assert.Equal(t, "bob", broken.DisplayName(ctx, models.MemberID("bob-uid-000002")))
	})
}
