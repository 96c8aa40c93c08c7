package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenValidator verifies a bearer token and returns the operator claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*OperatorClaims, error)
}

// OperatorClaims identifies the clinical operator acting on a request. The
// subject becomes the approver identity recorded on match transitions.
type OperatorClaims struct {
	OperatorID string
	Role       string
}

type contextKeyOperatorID struct{}

// ContextKeyOperatorID is exported for use in handler tests.
var ContextKeyOperatorID = contextKeyOperatorID{}

// GetOperatorID retrieves the authenticated operator ID from the context.
func GetOperatorID(ctx context.Context) string {
	id, ok := ctx.Value(ContextKeyOperatorID).(string)
	if !ok {
		return ""
	}
	return id
}

// RequireOperator rejects requests without a valid operator bearer token and
// stores the operator identity in the request context.
func RequireOperator(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "operator token rejected", "error", err.Error())
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyOperatorID, claims.OperatorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
