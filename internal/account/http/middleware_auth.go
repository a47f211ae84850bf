package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/loopline/accountd/internal/account/domain"
	"github.com/loopline/accountd/internal/account/service"
	"github.com/loopline/accountd/pkg/httpx"
	"github.com/loopline/accountd/pkg/slogx"
)

type userCtxKey struct{}

// userFromContext returns the authenticated user placed by requireAuth.
func userFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(domain.User)
	return u, ok
}

// requireAuth resolves the bearer token to a live user and injects it into
// the request context. The user ID also goes into the httpx context so the
// per-user rate limiter can key on it.
func requireAuth(users *service.UserService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w)
				return
			}

			user, err := users.UserByAccessToken(ctx, raw)
			if err != nil {
				slogx.FromContext(ctx).Debug("bearer token rejected", "err", err)
				writeUnauthorized(w)
				return
			}

			ctx = context.WithValue(ctx, userCtxKey{}, user)
			ctx = httpx.ContextWithUserID(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
