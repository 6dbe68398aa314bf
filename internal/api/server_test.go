package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireAuthValidToken(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	handler := requireAuth("secret-key", next)
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called, "next handler was not called")
}

func TestRequireAuthRejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong token", "Bearer wrong-key"},
		{"malformed header", "Basic secret-key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("next handler should not be called")
			})

			handler := requireAuth("secret-key", next)
			req := httptest.NewRequest(http.MethodPost, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestServerRoutes(t *testing.T) {
	h, snaps := newTestHandler()
	srv := NewServer("0", h, "secret-key")

	tests := []struct {
		name   string
		method string
		target string
		auth   string
		want   int
	}{
		{"nav", http.MethodGet, "/api/v1/nav?date=2024-03-31", "", http.StatusOK},
		{"ownership", http.MethodGet, "/api/v1/ownership", "", http.StatusOK},
		{"realized pnl", http.MethodGet, "/api/v1/pnl/realized", "", http.StatusOK},
		{"asset history bad id", http.MethodGet, "/api/v1/assets/nope/history", "", http.StatusBadRequest},
		{"latest", http.MethodGet, "/api/v1/snapshots/latest", "", http.StatusOK},
		{"by id", http.MethodGet, "/api/v1/snapshots/" + snaps.snap.ID.String(), "", http.StatusOK},
		{"xlsx", http.MethodGet, "/api/v1/snapshots/" + snaps.snap.ID.String() + "/xlsx", "", http.StatusOK},
		{"list", http.MethodGet, "/api/v1/snapshots", "", http.StatusOK},
		{"list bad limit", http.MethodGet, "/api/v1/snapshots?limit=0", "", http.StatusBadRequest},
		{"create without key", http.MethodPost, "/api/v1/snapshots", "", http.StatusUnauthorized},
		{"create with key", http.MethodPost, "/api/v1/snapshots", "Bearer secret-key", http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(`{"date":"2024-03-31"}`))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()

			srv.Handler.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code, "body %s", w.Body.String())
		})
	}
}
