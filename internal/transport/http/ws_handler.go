package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"lms-quiz-service/internal/app"
	"lms-quiz-service/internal/domain"

	"github.com/gorilla/websocket"
)

// WSHandler serves the learner's quiz-taking socket.
type WSHandler struct {
	service  *app.AttemptService
	sessions SessionResolver
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AttemptService, sessions SessionResolver) *WSHandler {
	return &WSHandler{
		service:  service,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type historyPayload struct {
	Attempts []domain.AttemptRecord `json:"attempts"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the attempt use cases.
// Messages are handled one at a time, so each operation finishes before the next is read.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	session, err := authenticate(r, h.sessions)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	initial, err := h.service.Preview(ctx, quizID, session)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.Leave(context.Background(), quizID, session)

	if err := conn.WriteJSON(outboundMessage[app.View]{Type: "state", Payload: initial}); err != nil {
		log.Printf("ws write error: %v", err)
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		reply := h.handle(ctx, quizID, session, inbound)
		if err := conn.WriteJSON(reply); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}

func (h *WSHandler) handle(ctx context.Context, quizID string, session domain.Session, inbound inboundMessage) any {
	var (
		view app.View
		err  error
	)
	switch inbound.Type {
	case "start":
		view, err = h.service.Start(ctx, quizID, session)
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid select payload"}}
		}
		view, err = h.service.Select(ctx, quizID, session, payload.QuestionID, payload.OptionID)
	case "next":
		view, err = h.service.Next(ctx, quizID, session)
	case "previous":
		view, err = h.service.Previous(ctx, quizID, session)
	case "retry":
		view, err = h.service.Retry(ctx, quizID, session)
	case "state":
		view, err = h.service.Preview(ctx, quizID, session)
	case "history":
		records, err := h.service.History(ctx, quizID, session)
		if err != nil {
			return errorMessage(err)
		}
		return outboundMessage[historyPayload]{Type: "history", Payload: historyPayload{Attempts: records}}
	case "submit":
		outcome, err := h.service.Submit(ctx, quizID, session)
		if err != nil {
			return errorMessage(err)
		}
		return outboundMessage[app.SubmitOutcome]{Type: "result", Payload: outcome}
	default:
		return outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
	}
	if err != nil {
		return errorMessage(err)
	}
	return outboundMessage[app.View]{Type: "state", Payload: view}
}

func errorMessage(err error) outboundMessage[errorPayload] {
	message := err.Error()
	if statusFor(err) == http.StatusInternalServerError {
		log.Printf("attempt operation failed: %v", err)
		message = "internal error"
	}
	return outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: message}}
}
