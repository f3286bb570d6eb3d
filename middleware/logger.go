package middleware

import (
	"fmt"
	"net/http"
	"time"

	"lrckit-api/logcolors"

	log "github.com/sirupsen/logrus"
)

const yellow = "\033[33m"

// ResponseRecorder captures the status code and body size written by a handler
type ResponseRecorder struct {
	http.ResponseWriter
	StatusCode int
	BodySize   int
}

func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w, StatusCode: http.StatusOK}
}

func (r *ResponseRecorder) WriteHeader(code int) {
	r.StatusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *ResponseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.BodySize += n
	return n, err
}

func getStatusColor(code int) string {
	switch {
	case code >= 500:
		return logcolors.Red
	case code >= 400:
		return yellow
	case code >= 300:
		return logcolors.Cyan
	case code >= 200:
		return logcolors.Green
	default:
		return logcolors.Reset
	}
}

// LoggingMiddleware logs method, path, status, size and latency of every request
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := NewResponseRecorder(w)

		next.ServeHTTP(rec, r)

		status := fmt.Sprintf("%s%d%s", getStatusColor(rec.StatusCode), rec.StatusCode, logcolors.Reset)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.StatusCode,
			"bytes":    rec.BodySize,
			"duration": time.Since(start).String(),
			"ip":       ClientIP(r),
		}).Infof("%s %s %s %s", logcolors.LogRequest, r.Method, r.URL.Path, status)
	})
}
