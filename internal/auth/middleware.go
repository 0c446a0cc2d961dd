package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"nyapix/internal/logging"
	"nyapix/internal/metrics"
)

// viewerRecorder is implemented by response writers that log the viewer,
// such as the access log middleware.
type viewerRecorder interface {
	SetViewer(id int64)
}

// Authenticate attaches the viewer named by a bearer token to each request.
// Requests without an Authorization header continue anonymously; requests
// with an invalid token are rejected.
func Authenticate(issuer *Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				writeError(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := issuer.Parse(strings.TrimSpace(token))
			if err != nil {
				logging.Debug("Rejected token: %v", err)
				metrics.AuthAttemptsTotal.WithLabelValues("invalid_token").Inc()
				writeError(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			if rec, ok := w.(viewerRecorder); ok {
				rec.SetViewer(claims.UserID)
			}
			ctx := WithViewer(r.Context(), Viewer{ID: claims.UserID, Role: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ViewerFrom(r.Context()).Anonymous() {
			writeError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests from anyone but an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := ViewerFrom(r.Context())
		if v.Anonymous() {
			writeError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !v.IsAdmin() {
			writeError(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}
