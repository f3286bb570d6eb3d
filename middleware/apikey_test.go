package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIKeyMiddleware(t *testing.T) {
	public := []string{"/health", "/providers", "/static/*"}

	tests := []struct {
		name         string
		apiKey       string
		required     bool
		path         string
		header       string
		expectedCode int
		expectedMode string
	}{
		{"Not required", "secret", false, "/parse", "", http.StatusOK, ""},
		{"Required but unconfigured", "", true, "/parse", "", http.StatusOK, ""},
		{"Valid key", "secret", true, "/parse", "secret", http.StatusOK, AuthModeAuthenticated},
		{"Missing key", "secret", true, "/parse", "", http.StatusUnauthorized, ""},
		{"Wrong key", "secret", true, "/parse", "nope", http.StatusUnauthorized, ""},
		{"Public exact path", "secret", true, "/health", "", http.StatusOK, AuthModePublic},
		{"Public prefix path", "secret", true, "/static/app.js", "", http.StatusOK, AuthModePublic},
		{"Public path wrong key", "secret", true, "/providers", "nope", http.StatusOK, AuthModeInvalid},
		{"Valid key on public path", "secret", true, "/health", "secret", http.StatusOK, AuthModeAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMode string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMode = AuthMode(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			handler := APIKeyMiddleware(tt.apiKey, tt.required, public)(next)
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("X-API-Key", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.expectedCode {
				t.Errorf("Expected status %d, got %d", tt.expectedCode, rec.Code)
			}
			if gotMode != tt.expectedMode {
				t.Errorf("Expected auth mode %q, got %q", tt.expectedMode, gotMode)
			}
			if rec.Code == http.StatusUnauthorized && rec.Header().Get("Content-Type") != "application/json" {
				t.Error("Expected JSON error body")
			}
		})
	}
}

func TestHasValidAPIKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if HasValidAPIKey(req, "") {
		t.Error("Expected empty configured key never to match")
	}
	req.Header.Set("X-API-Key", "k")
	if !HasValidAPIKey(req, "k") {
		t.Error("Expected matching key to be valid")
	}
	if HasValidAPIKey(req, "other") {
		t.Error("Expected different key to be invalid")
	}
}
