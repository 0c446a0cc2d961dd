package middleware

import (
	"context"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestIDFrom returns the id the access log assigned to the request, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestID keeps a caller-supplied id when it is a UUID and mints one
// otherwise, so arbitrary header text never reaches the log.
func requestID(r *http.Request) string {
	if id, err := uuid.Parse(r.Header.Get(RequestIDHeader)); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// responseWriter captures what the access log needs about a response.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
	viewerID     int64
}

// SetViewer records the authenticated user for the access log. The
// authentication middleware runs inside the logger and reports through it.
func (rw *responseWriter) SetViewer(id int64) {
	rw.viewerID = id
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingConfig holds configuration for the logging middleware
type LoggingConfig struct {
	SkipPaths       []string
	LogHealthChecks bool
	// Output receives one line per request. Defaults to the standard logger.
	Output *log.Logger
}

// DefaultLoggingConfig returns a sensible default configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:       []string{"/metrics"},
		LogHealthChecks: true,
	}
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// Logger returns access log middleware writing the W3C Extended Log Format:
//
//	date time c-ip cs-username cs-method cs-uri-stem cs-uri-query sc-status
//	sc-bytes time-taken sc(Content-Encoding) cs(User-Agent) cs(Referer)
//	x-request-id
//
// cs-username is the authenticated user id. Every request gets an
// X-Request-ID, echoed on the response and available via RequestIDFrom,
// including requests that are not logged.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	out := config.Output
	if out == nil {
		out = log.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := requestID(r)
			w.Header().Set(RequestIDHeader, id)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			//nolint:gosec // G706: every request-controlled field passes through sanitizeLogField
			out.Println(accessLine(time.Now().UTC(), r, wrapped, time.Since(start), id))
		})
	}
}

func accessLine(now time.Time, r *http.Request, rw *responseWriter, took time.Duration, id string) string {
	username := "-"
	if rw.viewerID != 0 {
		username = strconv.FormatInt(rw.viewerID, 10)
	}

	fields := []string{
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		orDash(sanitizeLogField(getClientIP(r))),
		username,
		sanitizeLogField(r.Method),
		orDash(sanitizeLogField(r.URL.Path)),
		orDash(sanitizeLogField(r.URL.RawQuery)),
		strconv.Itoa(rw.statusCode),
		strconv.FormatInt(rw.bytesWritten, 10),
		strconv.FormatInt(took.Milliseconds(), 10),
		orDash(rw.Header().Get("Content-Encoding")),
		orDash(escapeW3CField(sanitizeLogField(r.Header.Get("User-Agent")))),
		orDash(escapeW3CField(sanitizeLogField(r.Header.Get("Referer")))),
		id,
	}
	return strings.Join(fields, " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// sanitizeLogField removes control characters that could be used for log
// injection. Newlines become spaces; tabs are kept.
func sanitizeLogField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r < 0x20 && r != '\t', r == 0x7f:
			// includes NUL and the ESC that starts ANSI sequences
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func shouldSkip(path string, config LoggingConfig) bool {
	for _, skipPath := range config.SkipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return !config.LogHealthChecks && healthCheckPaths[path]
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection's address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// escapeW3CField quotes values containing whitespace or quotes, doubling any
// embedded quotes.
func escapeW3CField(s string) string {
	if strings.ContainsAny(s, " \t\"") {
		return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
	}
	return s
}
