package middleware

import (
	"net/http"

	"github.com/kbukum/audioscribe/util"
)

const defaultMaxBodySize = 512 * 1024 * 1024

// BodySizeLimit returns middleware that restricts the request body to the given
// size string (e.g. "512MB"). Uploads of source media go through it.
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > size {
				writeError(w, payloadTooLarge(size))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}
