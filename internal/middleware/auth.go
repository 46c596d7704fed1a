package middleware

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// sessionKey is the context key for the authenticated Session.
const sessionKey contextKey = "session"

// Session is the authenticated caller of a request.
type Session struct {
	UserID      string
	Email       string
	DisplayName string
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the session set by RequireAuth or OptionalAuth.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok && s.UserID != ""
}

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	s, _ := SessionFromContext(ctx)
	return s.UserID
}

// GetEmail extracts the user email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	s, _ := SessionFromContext(ctx)
	return s.Email
}

func sessionFromClaims(claims *auth.Claims) Session {
	return Session{UserID: claims.UserID, Email: claims.Email, DisplayName: claims.DisplayName}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func bearerToken(header http.Header) (string, error) {
	authHeader := header.Get("Authorization")
	if authHeader == "" {
		return "", auth.ErrMissingToken
	}
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", auth.ErrInvalidToken
	}
	return token, nil
}

// RequireAuth returns an interceptor that validates the Bearer token and
// puts the caller's Session in the request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			token, err := bearerToken(req.Header())
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			claims, err := jwtManager.Validate(token)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithSession(ctx, sessionFromClaims(claims)), req)
		}
	}
}

// OptionalAuth returns an interceptor that sets the Session when a valid
// token is present and lets the request through either way.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token, err := bearerToken(req.Header()); err == nil {
				if claims, err := jwtManager.Validate(token); err == nil {
					ctx = WithSession(ctx, sessionFromClaims(claims))
				}
			}
			return next(ctx, req)
		}
	}
}
