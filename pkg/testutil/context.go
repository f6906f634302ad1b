package testutil

import (
	"net/http"
	"time"

	"github.com/mormegil-cz/nklink/pkg/requestcontext"
)

// WithRequestTime fixes the request-scoped time, as the requesttime
// middleware would.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithRequestID sets the request ID, as the request ID middleware would.
func WithRequestID(req *http.Request, id string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), id))
}
