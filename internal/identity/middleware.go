package identity

import (
	"context"
	"net/http"
	"strings"

	"exam-quiz-service/internal/domain"
)

type ctxKey int

const userKey ctxKey = 1

// Middleware attaches the current user when the request carries a valid token, either as a
// bearer header or as the token query parameter (browsers cannot set headers on websockets).
// Invalid or missing tokens leave the request anonymous.
func Middleware(issuer *Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearer(r)
			if raw != "" {
				if claims, err := issuer.Parse(raw); err == nil {
					r = r.WithContext(WithUser(r.Context(), claims.User()))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser stores user on ctx.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// CurrentUser returns the signed-in user or nil for guests.
func CurrentUser(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey).(*domain.User)
	return user
}

func bearer(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}
