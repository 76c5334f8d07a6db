package http

import (
	"net/http"

	"lms-quiz-service/internal/app"
)

// NewRouter mounts every endpoint of the service. tokens may be nil when refresh is unsupported.
func NewRouter(service *app.AttemptService, sessions SessionResolver, tokens TokenRefresher) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	attempts := NewWSHandler(service, sessions)
	mux.HandleFunc("/ws", attempts.ServeWS)

	progress := NewProgressHandler(service, sessions)
	mux.HandleFunc("/ws/progress", progress.ServeWS)
	mux.HandleFunc("/progress/export", progress.ServeExport)

	if tokens != nil {
		mux.HandleFunc("/token/refresh", RefreshHandler(tokens))
	}
	return mux
}
