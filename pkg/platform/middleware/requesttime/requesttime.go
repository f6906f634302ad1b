// Package requesttime captures one "now" per request, so the Expires header
// and the page footer of a response agree.
package requesttime

import (
	"net/http"
	"time"

	"github.com/mormegil-cz/nklink/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
