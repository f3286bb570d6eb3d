package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lrckit-api/middleware"
)

func TestAPIResponse_SetCacheStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		expected string
	}{
		{"HIT status", "HIT", "HIT"},
		{"MISS status", "MISS", "MISS"},
		{"NEGATIVE_HIT status", "NEGATIVE_HIT", "NEGATIVE_HIT"},
		{"STALE status", "STALE", "STALE"},
		{"unset", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", "/test", nil)

			Respond(w, r).SetCacheStatus(tt.status).JSON(map[string]string{"test": "data"})

			if got := w.Header().Get("X-Cache-Status"); got != tt.expected {
				t.Errorf("X-Cache-Status = %q, want %q", got, tt.expected)
			}
		})
	}
}

// respondBehindAuth runs Respond inside APIKeyMiddleware so the auth mode
// comes from a real request
func respondBehindAuth(path, providedKey string) *httptest.ResponseRecorder {
	handler := middleware.APIKeyMiddleware("secret-key", true, []string{"/getLyrics", "/mock/*"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Respond(w, r).SetCacheStatus("HIT").JSON(map[string]string{"test": "data"})
		}),
	)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", path, nil)
	if providedKey != "" {
		r.Header.Set("X-API-Key", providedKey)
	}
	handler.ServeHTTP(w, r)
	return w
}

func TestAPIResponse_AuthModeFromMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		key      string
		expected string
	}{
		{"authenticated", "/stats", "secret-key", middleware.AuthModeAuthenticated},
		{"public path without key", "/getLyrics", "", middleware.AuthModePublic},
		{"public prefix with bad key", "/mock/getLyrics", "nope", middleware.AuthModeInvalid},
		{"authenticated on public path", "/getLyrics", "secret-key", middleware.AuthModeAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := respondBehindAuth(tt.path, tt.key)
			if got := w.Header().Get("X-Auth-Mode"); got != tt.expected {
				t.Errorf("X-Auth-Mode = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAPIResponse_NoAuthContext(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)

	Respond(w, r).JSON(map[string]string{})

	if got := w.Header().Get("X-Auth-Mode"); got != "" {
		t.Errorf("X-Auth-Mode = %q, want empty without auth middleware", got)
	}
}

func TestAPIResponse_RateLimitTypeFromContext(t *testing.T) {
	tests := []struct {
		name     string
		rateType string
		expected string
	}{
		{"normal rate limit", "normal", "normal"},
		{"cached rate limit", "cached", "cached"},
		{"bypass rate limit", "bypass", "bypass"},
		{"no rate limit type", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", "/test", nil)
			if tt.rateType != "" {
				r = r.WithContext(context.WithValue(r.Context(), rateLimitTypeKey, tt.rateType))
			}

			Respond(w, r).SetCacheStatus("HIT").JSON(map[string]string{"test": "data"})

			if got := w.Header().Get("X-RateLimit-Type"); got != tt.expected {
				t.Errorf("X-RateLimit-Type = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAPIResponse_SetProvider(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)

	Respond(w, r).SetProvider("lrclib").SetCacheStatus("HIT").JSON(map[string]string{"test": "data"})

	if got := w.Header().Get("X-Provider"); got != "lrclib" {
		t.Errorf("X-Provider = %q, want %q", got, "lrclib")
	}
}

func TestAPIResponse_ContentType(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)

	Respond(w, r).JSON(map[string]string{"test": "data"})

	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want %q", got, "application/json")
	}
}

func TestAPIResponse_Text(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/parse?format=lrc", nil)

	Respond(w, r).SetCacheStatus("MISS").Text("[00:01.00]line\n")

	if got := w.Header().Get("Content-Type"); got != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type = %q, want text/plain", got)
	}
	if got := w.Header().Get("X-Cache-Status"); got != "MISS" {
		t.Errorf("X-Cache-Status = %q, want MISS", got)
	}
	if w.Body.String() != "[00:01.00]line\n" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestAPIResponse_Error(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)

	Respond(w, r).SetCacheStatus("MISS").Error(http.StatusNotFound, map[string]string{"error": "not found"})

	if w.Code != http.StatusNotFound {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusNotFound)
	}
	if got := w.Header().Get("X-Cache-Status"); got != "MISS" {
		t.Errorf("X-Cache-Status = %q, want %q", got, "MISS")
	}

	var resp map[string]string
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["error"] != "not found" {
		t.Errorf("error = %q, want %q", resp["error"], "not found")
	}
}

func TestAPIResponse_JSONBody(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)

	data := map[string]interface{}{
		"provider": "kugou",
		"score":    0.95,
	}
	Respond(w, r).SetCacheStatus("MISS").JSON(data)

	var resp map[string]interface{}
	json.NewDecoder(w.Body).Decode(&resp)

	if resp["provider"] != "kugou" {
		t.Errorf("provider = %v, want kugou", resp["provider"])
	}
	if resp["score"] != 0.95 {
		t.Errorf("score = %v, want %v", resp["score"], 0.95)
	}
}

func TestAPIResponse_ErrorWithHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)
	r = r.WithContext(context.WithValue(r.Context(), rateLimitTypeKey, "normal"))

	Respond(w, r).
		SetProvider("kugou").
		SetCacheStatus("MISS").
		Error(http.StatusInternalServerError, map[string]string{"error": "server error"})

	if got := w.Header().Get("X-RateLimit-Type"); got != "normal" {
		t.Errorf("X-RateLimit-Type = %q, want %q", got, "normal")
	}
	if got := w.Header().Get("X-Provider"); got != "kugou" {
		t.Errorf("X-Provider = %q, want %q", got, "kugou")
	}
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
