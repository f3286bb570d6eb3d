package middleware

import (
	"context"
	"net/http"
	"strings"

	"lrckit-api/logcolors"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const authModeKey contextKey = "authMode"

// Auth modes reported through AuthMode
const (
	AuthModeAuthenticated = "authenticated"
	AuthModeInvalid       = "invalid"
	AuthModePublic        = "public"
)

// AuthMode returns the auth mode stored by APIKeyMiddleware, or "" when the
// middleware did not run or auth is disabled.
func AuthMode(ctx context.Context) string {
	mode, _ := ctx.Value(authModeKey).(string)
	return mode
}

// HasValidAPIKey reports whether r carries the configured API key
func HasValidAPIKey(r *http.Request, apiKey string) bool {
	return apiKey != "" && r.Header.Get("X-API-Key") == apiKey
}

// APIKeyMiddleware requires the X-API-Key header when required is true.
// Paths in publicPaths pass without a key; an entry ending in * matches by
// prefix. A required but unconfigured key lets every request through with a
// warning.
func APIKeyMiddleware(apiKey string, required bool, publicPaths []string) func(http.Handler) http.Handler {
	exact := make(map[string]bool)
	var prefixes []string
	for _, p := range publicPaths {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			prefixes = append(prefixes, prefix)
			continue
		}
		exact[p] = true
	}

	isPublic := func(path string) bool {
		if exact[path] {
			return true
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !required {
				next.ServeHTTP(w, r)
				return
			}
			if apiKey == "" {
				log.Warnf("%s API key required but not configured, allowing request", logcolors.LogAPIKey)
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-API-Key")
			switch {
			case provided == apiKey:
				next.ServeHTTP(w, withAuthMode(r, AuthModeAuthenticated))
			case isPublic(r.URL.Path):
				mode := AuthModePublic
				if provided != "" {
					mode = AuthModeInvalid
				}
				next.ServeHTTP(w, withAuthMode(r, mode))
			case provided == "":
				log.Warnf("%s Missing API key from %s for %s", logcolors.LogAPIKey, ClientIP(r), r.URL.Path)
				writeAuthError(w, `{"error":"API key required","message":"Provide a valid API key via X-API-Key header"}`)
			default:
				log.Warnf("%s Invalid API key from %s for %s", logcolors.LogAPIKey, ClientIP(r), r.URL.Path)
				writeAuthError(w, `{"error":"Invalid API key","message":"The provided API key is not valid"}`)
			}
		})
	}
}

func withAuthMode(r *http.Request, mode string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), authModeKey, mode))
}

func writeAuthError(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(body))
}
