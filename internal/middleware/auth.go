package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/metrics"
	"github.com/taskvault/taskvault/internal/model"
	"github.com/taskvault/taskvault/internal/repository"
)

// UserResolver resolves token claims against the credential store.
type UserResolver interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// AuthCache caches resolved identities keyed by a hash of the bearer token.
type AuthCache interface {
	GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error)
	SetAuthContext(ctx context.Context, cacheKey string, authCtx *model.AuthContext) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger  *slog.Logger
	Tokens  *auth.TokenService
	Users   UserResolver
	Cache   AuthCache
	Metrics metrics.Recorder
}

// Auth returns a middleware that authenticates requests.
// It extracts the bearer token from the Authorization header, verifies
// signature and expiry, and resolves the user_id claim against the
// credential store. A token whose user has vanished or been deactivated
// is rejected here, before any handler runs.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				logAuthFailure(cfg.Logger, r, "missing_token")
				writeAuthError(w)
				return
			}

			// Signature and expiry are always checked, even on a cache hit.
			claims, err := cfg.Tokens.Verify(token)
			if err != nil {
				logAuthFailure(cfg.Logger, r, authFailureReason(err))
				writeAuthError(w)
				return
			}

			// Check cache to skip the store lookup for hot tokens.
			cacheKey := auth.QuickHash(token)
			if cfg.Cache != nil {
				if cached, _ := cfg.Cache.GetAuthContext(r.Context(), cacheKey); cached != nil {
					cfg.Metrics.IncAuthCacheHit()
					serveAuthenticated(w, r, next, cached)
					return
				}
				cfg.Metrics.IncAuthCacheMiss()
			}

			user, err := cfg.Users.GetUserByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					// Valid token for a vanished user: fail closed.
					logAuthFailure(cfg.Logger, r, "unknown_user")
				} else {
					cfg.Logger.Error("database error during auth",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				writeAuthError(w)
				return
			}

			if !user.IsActive {
				logAuthFailure(cfg.Logger, r, "inactive_user")
				writeAuthError(w)
				return
			}

			authCtx := &model.AuthContext{
				UserID:   user.ID,
				Username: user.Username,
				Role:     user.Role,
			}

			if cfg.Cache != nil {
				_ = cfg.Cache.SetAuthContext(r.Context(), cacheKey, authCtx)
			}

			serveAuthenticated(w, r, next, authCtx)
		})
	}
}

func serveAuthenticated(w http.ResponseWriter, r *http.Request, next http.Handler, authCtx *model.AuthContext) {
	ctx := auth.ContextWithAuth(r.Context(), authCtx)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// extractBearerToken extracts the token from "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, auth.ErrMalformedClaims):
		return "malformed_claims"
	default:
		return "invalid_signature"
	}
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid or missing credentials","code":"UNAUTHORIZED"}`))
}
