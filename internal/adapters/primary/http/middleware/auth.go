package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/lorrc/conversation-service/internal/auth"
	"github.com/lorrc/conversation-service/internal/core/domain"
	"github.com/lorrc/conversation-service/internal/infrastructure/logging"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserClaimsKey is the key used to store token claims in the request context.
	UserClaimsKey contextKey = "userClaims"
	// ActorKey is the key used to store the resolved participant.
	ActorKey contextKey = "actor"

	// InternalTokenHeader carries the shared secret of internal collaborators.
	InternalTokenHeader = "X-Internal-Token"
)

// JWTMiddleware validates the JWT token from the Authorization header and
// resolves the actor it was issued to.
func JWTMiddleware(tm *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Authorization header format must be Bearer {token}", http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(parts[1])
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			actor, err := claims.Actor()
			if err != nil {
				http.Error(w, "Token does not identify a participant", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			ctx = WithActor(ctx, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithActor stores the participant on the context, including the logging attributes.
func WithActor(ctx context.Context, actor domain.Participant) context.Context {
	ctx = context.WithValue(ctx, ActorKey, actor)
	return logging.WithActor(ctx, string(actor.Kind), actor.ID.String())
}

// GetClaims retrieves the validated token claims from the context.
func GetClaims(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*auth.Claims)
	return claims, ok
}

// GetActor retrieves the authenticated participant from the context.
func GetActor(ctx context.Context) (domain.Participant, bool) {
	actor, ok := ctx.Value(ActorKey).(domain.Participant)
	return actor, ok
}

// InternalTokenMiddleware admits requests that present the shared internal token.
// An empty token disables the route entirely.
func InternalTokenMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(InternalTokenHeader)
			if token == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				http.Error(w, "Invalid internal token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
