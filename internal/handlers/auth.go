package handlers

import (
	"errors"
	"net/http"

	"nyapix/internal/auth"
	"nyapix/internal/database"
	"nyapix/internal/logging"
	"nyapix/internal/metrics"
	"nyapix/internal/models"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

// AuthResponse represents the response from the login endpoint
type AuthResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int          `json:"expires_in"` // Seconds until the token expires
	User      *models.User `json:"user"`
}

// Login authenticates a user and issues a bearer token
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.db.ValidatePassword(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, database.ErrInvalidCredentials) {
			logging.Warn("Failed login attempt for %q", req.Username)
			metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		}
		writeError(w, r, err)
		return
	}

	token, err := h.issuer.Issue(user.ID, user.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	logging.Info("User %q logged in, token expires in %v", user.Username, h.issuer.TTL())

	w.Header().Set("Cache-Control", "no-store")
	writeJSONStatus(w, http.StatusOK, AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(h.issuer.TTL().Seconds()),
		User:      user,
	})
}

// Me returns the account behind the bearer token
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	viewer := auth.ViewerFrom(r.Context())

	user, err := h.db.GetUser(r.Context(), viewer.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, user)
}
