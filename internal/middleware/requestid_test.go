package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDPropagatesHeader(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/report", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "abc-123" {
		t.Fatalf("expected propagated id, got %q", seen)
	}
	if rec.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("expected echoed header, got %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestRequestIDReplacesInvalidHeader(t *testing.T) {
	for _, in := range []string{"", "has space", strings.Repeat("x", 200)} {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if in != "" {
			req.Header.Set("X-Request-ID", in)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)
		if _, err := uuid.Parse(seen); err != nil {
			t.Fatalf("input %q: expected generated uuid, got %q", in, seen)
		}
	}
}
