package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"lms-quiz-service/internal/domain"
)

// SessionResolver turns a bearer token into the caller's session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (domain.Session, error)
}

// TokenRefresher exchanges a refresh token for a new access token.
type TokenRefresher interface {
	Refresh(refreshToken string) (string, error)
}

// bearerToken reads the Authorization header, falling back to the token query parameter
// because browsers cannot set headers on websocket upgrades.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("token")
}

func authenticate(r *http.Request, sessions SessionResolver) (domain.Session, error) {
	token := bearerToken(r)
	if token == "" {
		return domain.Session{}, domain.ErrUnauthorized
	}
	return sessions.Resolve(r.Context(), token)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrAttemptNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuiz):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
		message = "internal error"
	}
	writeJSON(w, status, errorPayload{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// RefreshHandler serves POST /token/refresh.
func RefreshHandler(tokens TokenRefresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
			writeJSON(w, http.StatusBadRequest, errorPayload{Message: "missing refresh token"})
			return
		}
		access, err := tokens.Refresh(req.Refresh)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorPayload{Message: "invalid refresh token"})
			return
		}
		writeJSON(w, http.StatusOK, refreshResponse{Access: access})
	}
}
