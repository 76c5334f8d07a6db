package http

import (
	"fmt"
	"log"
	"net/http"

	"lms-quiz-service/internal/app"
	"lms-quiz-service/internal/domain"
	"lms-quiz-service/internal/report"

	"github.com/gorilla/websocket"
)

// ProgressHandler serves the teacher's class-progress stream and spreadsheet export.
type ProgressHandler struct {
	service  *app.AttemptService
	sessions SessionResolver
	upgrader websocket.Upgrader
}

func NewProgressHandler(service *app.AttemptService, sessions SessionResolver) *ProgressHandler {
	return &ProgressHandler{
		service:  service,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *ProgressHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return "", false
	}
	session, err := authenticate(r, h.sessions)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	if !session.CanViewProgress() {
		http.Error(w, domain.ErrForbidden.Error(), http.StatusForbidden)
		return "", false
	}
	return quizID, true
}

// ServeWS streams class-progress snapshots until the client disconnects.
func (h *ProgressHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	updates, cancel, err := h.service.Subscribe(r.Context(), quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// The stream is one-way; reading only notices when the client goes away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case progress, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[domain.ClassProgress]{Type: "progress", Payload: progress}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}
}

// ServeExport writes the current class progress as an xlsx workbook.
func (h *ProgressHandler) ServeExport(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	progress, err := h.service.Progress(r.Context(), quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", quizID+"-progress.xlsx"))
	if err := report.WriteProgressXLSX(w, progress); err != nil {
		log.Printf("export progress for %s: %v", quizID, err)
	}
}
