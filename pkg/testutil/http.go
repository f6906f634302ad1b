// Package testutil provides common test utilities for handler and integration tests.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

// NewRequest creates a simple HTTP request without a body.
func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// AssertStatus asserts the response status code matches expected.
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code")
}

// AssertStatusOK asserts the response status is 200 OK.
func AssertStatusOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	AssertStatus(t, rr, http.StatusOK)
}

// AssertCacheable asserts the content identity and Expires headers of a
// response with a body.
func AssertCacheable(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	for _, h := range []string{"Content-Type", "Content-Length", "Content-MD5", "Expires"} {
		assert.NotEmpty(t, rr.Header().Get(h), "missing %s header", h)
	}
}

// SPARQLServer is a fake SPARQL endpoint answering every query with a fixed
// body and status.
type SPARQLServer struct {
	*httptest.Server
	calls atomic.Int32
}

// NewSPARQLServer starts a fake endpoint. It is closed when the test ends.
func NewSPARQLServer(t *testing.T, status int, body string) *SPARQLServer {
	t.Helper()
	s := &SPARQLServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		w.Header().Set("Content-Type", "application/sparql-results+json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(s.Close)
	return s
}

// Calls returns the number of requests received.
func (s *SPARQLServer) Calls() int {
	return int(s.calls.Load())
}
