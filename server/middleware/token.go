package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/kbukum/audioscribe/errors"
)

// TokenConfig configures the static bearer token check.
type TokenConfig struct {
	// Token is the expected bearer token. Empty disables the check.
	Token string
	// SkipPaths are URL path prefixes that bypass the check.
	SkipPaths []string
}

// Token returns middleware that requires "Authorization: Bearer <token>" on
// every request outside SkipPaths. SSE clients that cannot set headers may
// pass the token as the access_token query parameter.
func Token(cfg TokenConfig) Middleware {
	return func(next http.Handler) http.Handler {
		if cfg.Token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.SkipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				presented = r.URL.Query().Get("access_token")
			}
			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(cfg.Token)) != 1 {
				writeError(w, errors.New(errors.ErrCodeUnauthorized, "A valid bearer token is required", http.StatusUnauthorized))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
