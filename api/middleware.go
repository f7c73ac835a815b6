/*
middleware.go - Principal resolution

PURPOSE:
  Extracts the authenticated caller from the request and threads it
  through the context as an explicit core.Principal. Authentication
  itself (sessions, tokens) happens upstream; this service trusts the
  gateway-resolved X-User-ID header and performs authorization against
  the directory.

SEE ALSO:
  - handlers.go: principalFrom(r) on every authenticated route
*/
package api

import (
	"context"
	"net/http"

	"github.com/warp/leave-tracker/core"
)

// PrincipalHeader is the gateway-resolved caller identity header.
const PrincipalHeader = "X-User-ID"

type ctxKey int

const principalKey ctxKey = iota

// Principal stores the caller identity from PrincipalHeader in the
// request context when present.
func Principal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(PrincipalHeader); id != "" {
			ctx := context.WithValue(r.Context(), principalKey, core.Principal(id))
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePrincipal rejects requests that carry no caller identity.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := principalFrom(r); !ok {
			writeError(w, http.StatusUnauthorized, "missing caller identity", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func principalFrom(r *http.Request) (core.Principal, bool) {
	p, ok := r.Context().Value(principalKey).(core.Principal)
	return p, ok
}
