package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/identity"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage"
)

// Deps are the collaborators of every service.
type Deps struct {
	Store         storage.Store
	Authenticator auth.Authenticator
	JWTManager    *auth.JWTManager
	Resolver      *identity.Resolver
	Metrics       *metrics.Metrics // optional
	Logger        *slog.Logger
}

type pinger interface {
	Ping(ctx context.Context) error
}

// NewHandler mounts all four services plus /healthz, and /metrics when
// Metrics is set.
func NewHandler(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Resolver == nil {
		d.Resolver = identity.NewResolver(d.Store, identity.WithLogger(d.Logger))
	}

	var anonymous, authenticated []connect.Interceptor
	if d.Metrics != nil {
		anonymous = append(anonymous, d.Metrics.Interceptor())
		authenticated = append(authenticated, d.Metrics.Interceptor())
	}
	anonymous = append(anonymous, middleware.OptionalAuth(d.JWTManager), middleware.LoggingInterceptor(d.Logger))
	authenticated = append(authenticated, middleware.RequireAuth(d.JWTManager), middleware.LoggingInterceptor(d.Logger))

	opts := HandlerOptions{
		Anonymous:     []connect.HandlerOption{connect.WithInterceptors(anonymous...)},
		Authenticated: []connect.HandlerOption{connect.WithInterceptors(authenticated...)},
	}

	mux := http.NewServeMux()
	NewAuthService(d.Authenticator, d.JWTManager, d.Store, d.Resolver, d.Logger).Mount(mux, opts)
	NewGroupService(d.Store, d.Resolver, d.Logger).Mount(mux, opts)
	NewExpenseService(d.Store, d.Resolver, d.Logger).Mount(mux, opts)

	balances := NewBalanceService(d.Store, d.Resolver, nil, d.Logger)
	if d.Metrics != nil {
		balances.observer = d.Metrics
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}
	balances.Mount(mux, opts)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if p, ok := d.Store.(pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				d.Logger.Error("Health check failed", "error", err)
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}
