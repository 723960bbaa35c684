package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/FatihaELHABTI/go-shop/internal/domain"
)

// RequireAuth rejects requests without a valid bearer token and stores the
// verified identity plus the raw token on the request context.
func RequireAuth(verifier *Verifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		ident, err := verifier.Verify(raw)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "invalid bearer token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident, raw)))
	})
}

// RequireRoles enforces endpoint role policy. Deny-by-default: a caller
// without any of the listed roles gets 403 before the handler runs.
func RequireRoles(next http.HandlerFunc, roles ...domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := IdentityFrom(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "missing identity")
			return
		}
		if !ident.HasAnyRole(roles...) {
			writeAuthError(w, http.StatusForbidden, "forbidden", "insufficient role")
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}

func writeAuthError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}
