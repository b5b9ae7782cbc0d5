// Package asanatest provides an in-process fake of the Asana REST API
// for tests.
package asanatest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const apiPrefix = "/api/1.0/"

// Request is a request received by the fake server.
type Request struct {
	Path          string
	Accept        string
	Authorization string
}

// Server serves canned bodies keyed by path and query, relative to the
// API root. Unknown paths get a 404 with an Asana-style error envelope.
type Server struct {
	srv *httptest.Server

	mu        sync.Mutex
	responses map[string]string
	requests  []Request
}

// NewServer starts a fake server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{responses: make(map[string]string)}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.srv.Close)
	return s
}

// BaseURL returns the API root to pass to asana.NewClient.
func (s *Server) BaseURL() string {
	return s.srv.URL + apiPrefix
}

// Close shuts the server down early, making later requests fail at the
// transport level.
func (s *Server) Close() {
	s.srv.Close()
}

// Raw registers a literal response body for path.
func (s *Server) Raw(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[path] = body
}

// Data registers a {"data": v} envelope for path.
func (s *Server) Data(path string, v any) {
	b, err := json.Marshal(map[string]any{"data": v})
	if err != nil {
		panic(err)
	}
	s.Raw(path, string(b))
}

// Requests returns the requests received so far, in order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Paths returns the paths requested so far, in order.
func (s *Server) Paths() []string {
	var out []string
	for _, r := range s.Requests() {
		out = append(out, r.Path)
	}
	return out
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, apiPrefix)
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Path:          key,
		Accept:        r.Header.Get("Accept"),
		Authorization: r.Header.Get("Authorization"),
	})
	body, ok := s.responses[key]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"message":"Not Found"}]}`))
		return
	}
	_, _ = w.Write([]byte(body))
}
