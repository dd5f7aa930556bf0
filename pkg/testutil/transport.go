// Package testutil provides helpers shared by package tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
)

// HandlerTransport is an http.RoundTripper answering every request with an
// in-process handler, so tests can probe arbitrary domains offline
type HandlerTransport struct {
	Handler http.Handler

	mu       sync.Mutex
	requests []string
}

// NewHandlerTransport creates a transport backed by handler
func NewHandlerTransport(handler http.Handler) *HandlerTransport {
	return &HandlerTransport{Handler: handler}
}

// RoundTrip implements http.RoundTripper
func (t *HandlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.requests = append(t.requests, req.Method+" "+req.URL.String()+" "+Host(req))
	t.mu.Unlock()

	served := req.Clone(req.Context())
	served.Host = Host(req)

	recorder := httptest.NewRecorder()
	t.Handler.ServeHTTP(recorder, served)

	resp := recorder.Result()
	resp.Request = req
	return resp, nil
}

// Requests returns "METHOD URL HOST" for every request seen so far
func (t *HandlerTransport) Requests() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.requests...)
}

// Host returns the Host header a request is sent with
func Host(req *http.Request) string {
	if req.Host != "" {
		return req.Host
	}
	return req.URL.Host
}
