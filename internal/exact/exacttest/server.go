// Package exacttest provides an in-process fake of the ERP REST API for tests.
package exacttest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/exactsync/internal/config"
)

// Call is one request received by the fake.
type Call struct {
	Method   string
	Resource string
	ID       string
	Filter   string
	Select   string
	Expand   string
	Auth     string
	Body     []byte
}

// Decode unmarshals the request body into v.
func (c Call) Decode(v any) error {
	return json.Unmarshal(c.Body, v)
}

// Handler answers a call with a status and a JSON-encodable body. A nil body sends no content.
type Handler func(call Call) (int, any)

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	calls    []Call
	handlers map[string]Handler
}

// New starts a fake that answers unknown GETs with an empty collection and
// unknown writes with 500.
func New(t testing.TB) *Server {
	s := &Server{handlers: make(map[string]Handler)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) Handle(method, resource string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method+" "+resource] = h
}

// Calls returns the calls for method and resource in arrival order.
func (s *Server) Calls(method, resource string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Call{}
	for _, c := range s.calls {
		if c.Method == method && c.Resource == resource {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) Count(method, resource string) int {
	return len(s.Calls(method, resource))
}

func (s *Server) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	call := Call{
		Method: r.Method,
		Filter: r.URL.Query().Get("$filter"),
		Select: r.URL.Query().Get("$select"),
		Expand: r.URL.Query().Get("$expand"),
		Auth:   r.Header.Get("Authorization"),
	}
	call.Body, _ = io.ReadAll(r.Body)
	call.Resource, call.ID = splitPath(r.URL.Path)

	s.mu.Lock()
	s.calls = append(s.calls, call)
	h, ok := s.handlers[call.Method+" "+call.Resource]
	s.mu.Unlock()

	status, body := http.StatusInternalServerError, any(nil)
	switch {
	case ok:
		status, body = h(call)
	case call.Method == http.MethodGet:
		status, body = http.StatusOK, Results()
	}

	if body == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// splitPath turns /api/v1/{division}/{module}/{Resource}(guid'id') into
// ("module/Resource", "id").
func splitPath(path string) (string, string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 5 {
		return strings.Join(parts, "/"), ""
	}
	module, resource := parts[3], strings.Join(parts[4:], "/")
	id := ""
	if idx := strings.Index(resource, "("); idx >= 0 {
		id = strings.TrimSuffix(strings.TrimPrefix(resource[idx+1:], "guid'"), "')")
		resource = resource[:idx]
	}
	return module + "/" + resource, id
}

// Results wraps records in the collection envelope.
func Results(records ...any) map[string]any {
	if records == nil {
		records = []any{}
	}
	return map[string]any{"d": map[string]any{"results": records}}
}

// Record wraps a single record in the write envelope.
func Record(record any) map[string]any {
	return map[string]any{"d": record}
}

// IDs answers a $select=ID lookup.
func IDs(ids ...string) map[string]any {
	records := make([]any, 0, len(ids))
	for _, id := range ids {
		records = append(records, map[string]string{"ID": id})
	}
	return Results(records...)
}

// Error answers with the ERP error shape.
func Error(message string) map[string]any {
	return map[string]any{"error": map[string]any{"code": "", "message": map[string]string{"lang": "", "value": message}}}
}

// Config points an ExactConfig at the fake.
func (s *Server) Config() config.Config {
	return config.Config{
		Exact: config.ExactConfig{
			BaseURL:                s.URL,
			Division:               "123456",
			ClientID:               "client-id",
			ClientSecret:           "client-secret",
			RedirectURI:            "https://shop.example/exact/callback",
			RequestTimeout:         5 * time.Second,
			HomeCountry:            "DE",
			SecondHomeCountry:      "CH",
			PriceListName:          "VK Preisliste Shop",
			ProspectStatus:         "P",
			StrictPaymentCondition: true,
			BreakerMaxFailures:     50,
			BreakerOpenTimeout:     time.Second,
			RefreshLockTTL:         time.Second,
		},
	}
}

// StaticTokens is a TokenSource that always yields the same token.
type StaticTokens string

func (t StaticTokens) EnsureValidToken(ctx context.Context, userID string) (string, error) {
	return string(t), nil
}
