// Package identity turns participant identifiers into display names.
package identity

import (
	"context"
	"log/slog"

	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
)

// UnknownUser is the name of the empty identifier.
const UnknownUser = "Unknown User"

// shortIDLength is how many characters of an unresolvable member ID are shown.
const shortIDLength = 8

// UserLookup fetches a user record by member ID.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Resolver maps participant identifiers to display names. It never fails:
// anything it cannot resolve gets a shortened identifier.
type Resolver struct {
	users  UserLookup
	cache  ProfileCache
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache fronts profile lookups with cache.
func WithCache(cache ProfileCache) Option {
	return func(r *Resolver) { r.cache = cache }
}

// WithLogger sets the logger used for lookup failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver creates a resolver reading profiles from users.
func NewResolver(users UserLookup, opts ...Option) *Resolver {
	r := &Resolver{users: users, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DisplayName resolves id:
//   - empty: UnknownUser
//   - pending email: the email itself
//   - the session user in ctx: their display name or email local-part
//   - a registered member: their display name or email local-part
//   - anything else: the first 8 characters of the ID followed by "..."
func (r *Resolver) DisplayName(ctx context.Context, id models.ParticipantID) string {
	if id.IsZero() {
		return UnknownUser
	}
	if id.IsPending() {
		return id.String()
	}

	raw := id.String()
	if session, ok := middleware.SessionFromContext(ctx); ok && session.UserID == raw {
		if name := (Profile{DisplayName: session.DisplayName, Email: session.Email}).Name(); name != "" {
			return name
		}
	}

	profile, ok := r.profile(ctx, raw)
	if ok {
		if name := profile.Name(); name != "" {
			return name
		}
	}
	return ShortID(raw)
}

func (r *Resolver) profile(ctx context.Context, memberID string) (Profile, bool) {
	if r.cache != nil {
		profile, ok, err := r.cache.Get(ctx, memberID)
		if err != nil {
			r.logger.Warn("Profile cache read failed", "member_id", memberID, "error", err)
		} else if ok {
			return profile, true
		}
	}

	if r.users == nil {
		return Profile{}, false
	}
	user, err := r.users.GetUserByID(ctx, memberID)
	if err != nil || user == nil {
		if err != nil {
			r.logger.Debug("Profile lookup failed", "member_id", memberID, "error", err)
		}
		return Profile{}, false
	}

	profile := Profile{DisplayName: user.DisplayName, Email: user.Email}
	if r.cache != nil {
		if err := r.cache.Set(ctx, memberID, profile); err != nil {
			r.logger.Warn("Profile cache write failed", "member_id", memberID, "error", err)
		}
	}
	return profile, true
}

// Forget drops any cached profile for memberID. Call it after the profile
// changes.
func (r *Resolver) Forget(ctx context.Context, memberID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, memberID); err != nil {
		r.logger.Warn("Profile cache invalidation failed", "member_id", memberID, "error", err)
	}
}

// ShortID abbreviates an identifier that could not be resolved. It counts
// runes, so the result is valid UTF-8 whenever id is.
func ShortID(id string) string {
	if runes := []rune(id); len(runes) > shortIDLength {
		id = string(runes[:shortIDLength])
	}
	return id + "..."
}
