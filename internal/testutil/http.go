package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/stratashelter/internal/app/system/auth"
)

// WithUser adds a signed-in user to the request context for testing protected
// handlers. This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, username string) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{Username: username, SessionID: "test-session"})
}

// NewJSONRequest creates a request whose body is body encoded as JSON. A
// string body is sent as-is.
func NewJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		if err := json.NewEncoder(&buf).Encode(v); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates a JSON request with username signed in.
func NewAuthenticatedRequest(t *testing.T, method, target string, body any, username string) *http.Request {
	t.Helper()
	return WithUser(NewJSONRequest(t, method, target, body), username)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if body := r.Body.String(); !strings.Contains(body, expected) {
		t.Errorf("response body %q does not contain %q", body, expected)
	}
}

// DecodeJSON decodes the response body into v and fails the test on error.
func (r *ResponseRecorder) DecodeJSON(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", r.Body.String(), err)
	}
}
