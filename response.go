package main

import (
	"encoding/json"
	"net/http"

	"lrckit-api/middleware"
)

// APIResponse handles consistent header setting and JSON responses.
// It sets X-Auth-Mode, X-Cache-Status, X-Provider and X-RateLimit-Type
// from the request context.
type APIResponse struct {
	w           http.ResponseWriter
	r           *http.Request
	cacheStatus string
	provider    string
}

// Respond creates a response helper from request context
func Respond(w http.ResponseWriter, r *http.Request) *APIResponse {
	return &APIResponse{w: w, r: r}
}

// SetCacheStatus sets the X-Cache-Status header value
func (a *APIResponse) SetCacheStatus(status string) *APIResponse {
	a.cacheStatus = status
	return a
}

// SetProvider sets the X-Provider header value
func (a *APIResponse) SetProvider(provider string) *APIResponse {
	a.provider = provider
	return a
}

func (a *APIResponse) writeHeaders(contentType string) {
	a.w.Header().Set("Content-Type", contentType)

	if a.cacheStatus != "" {
		a.w.Header().Set("X-Cache-Status", a.cacheStatus)
	}
	if a.provider != "" {
		a.w.Header().Set("X-Provider", a.provider)
	}
	if mode := middleware.AuthMode(a.r.Context()); mode != "" {
		a.w.Header().Set("X-Auth-Mode", mode)
	}
	if rateLimitType, ok := a.r.Context().Value(rateLimitTypeKey).(string); ok && rateLimitType != "" {
		a.w.Header().Set("X-RateLimit-Type", rateLimitType)
	}
}

// JSON writes headers and encodes data as JSON (200 OK)
func (a *APIResponse) JSON(data interface{}) error {
	a.writeHeaders("application/json")
	return json.NewEncoder(a.w).Encode(data)
}

// Error writes headers, sets status code, and encodes error response
func (a *APIResponse) Error(statusCode int, data interface{}) error {
	a.writeHeaders("application/json")
	a.w.WriteHeader(statusCode)
	return json.NewEncoder(a.w).Encode(data)
}

// Text writes a plain text body (200 OK)
func (a *APIResponse) Text(body string) error {
	a.writeHeaders("text/plain; charset=utf-8")
	_, err := a.w.Write([]byte(body))
	return err
}
