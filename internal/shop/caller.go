package shop

import (
	"context"
	"net/http"
	"strings"

	"WatchShop/pkg/kit"
)

// Identity headers are set by the gateway after it verifies the caller's
// token; the shop trusts them and never reads identity from anywhere else.
const (
	HeaderUserID   = kit.HeaderUserID
	HeaderUserRole = "X-User-Role"

	RoleAdmin = "admin"
)

type ctxKey string

const callerKey ctxKey = "caller"

type Caller struct {
	ID   string
	Role string
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey).(Caller)
	return c, ok
}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

func RequireUserHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if id == "" {
			kit.WriteError(w, r, http.StatusUnauthorized, "missing caller identity", nil)
			return
		}

		c := Caller{ID: id, Role: strings.TrimSpace(r.Header.Get(HeaderUserRole))}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), c)))
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := CallerFromContext(r.Context())
		if !ok {
			kit.WriteError(w, r, http.StatusUnauthorized, "no caller", nil)
			return
		}
		if !c.IsAdmin() {
			kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
