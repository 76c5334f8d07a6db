package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lms-quiz-service/internal/app"
	"lms-quiz-service/internal/auth"
	"lms-quiz-service/internal/domain"
	"lms-quiz-service/internal/infra/memory"

	"github.com/gorilla/websocket"
)

func TestWebSocketAttemptFlow(t *testing.T) {
	server := newTestServer(t, nil)

	conn := dial(t, server, "/ws?quizId=quiz-1&token=u1")
	defer conn.Close()

	typ, payload := readNext(conn, t)
	if typ != "state" || payload["state"] != "not_started" {
		t.Fatalf("expected not_started state, got %s %v", typ, payload)
	}

	send(t, conn, "start", nil)
	typ, payload = readNext(conn, t)
	if typ != "state" || payload["state"] != "in_progress" {
		t.Fatalf("expected in_progress state, got %s %v", typ, payload)
	}

	send(t, conn, "select", map[string]any{"questionId": "q1", "optionId": "A"})
	typ, _ = readNext(conn, t)
	if typ != "state" {
		t.Fatalf("expected state after select, got %s", typ)
	}

	send(t, conn, "submit", nil)
	typ, payload = readNext(conn, t)
	if typ != "result" {
		t.Fatalf("expected result, got %s %v", typ, payload)
	}
	result, _ := payload["result"].(map[string]any)
	if result["score"] != 50.0 || result["passed"] != true {
		t.Fatalf("expected score 50 and pass, got %v", result)
	}
	if payload["recorded"] != true || payload["attemptNumber"] != 1.0 {
		t.Fatalf("expected first recorded attempt, got %v", payload)
	}

	send(t, conn, "history", nil)
	typ, payload = readNext(conn, t)
	attempts, _ := payload["attempts"].([]any)
	if typ != "history" || len(attempts) != 1 {
		t.Fatalf("expected one recorded attempt in history, got %s %v", typ, payload)
	}

	send(t, conn, "retry", nil)
	typ, payload = readNext(conn, t)
	if typ != "state" || payload["state"] != "not_started" {
		t.Fatalf("expected not_started after retry, got %s %v", typ, payload)
	}
}

func TestWebSocketReportsErrors(t *testing.T) {
	server := newTestServer(t, nil)

	conn := dial(t, server, "/ws?quizId=quiz-1&token=u1")
	defer conn.Close()
	readNext(conn, t)

	send(t, conn, "dance", nil)
	typ, payload := readNext(conn, t)
	if typ != "error" || payload["message"] != "unsupported message type" {
		t.Fatalf("expected unsupported type error, got %s %v", typ, payload)
	}

	send(t, conn, "next", nil)
	typ, _ = readNext(conn, t)
	if typ != "error" {
		t.Fatalf("expected error before start, got %s", typ)
	}
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	server := newTestServer(t, nil)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "/ws?quizId=quiz-1"), nil)
	if err == nil {
		t.Fatalf("expected dial to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", resp)
	}
}

func TestProgressStreamIsTeacherOnly(t *testing.T) {
	server := newTestServer(t, nil)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "/ws/progress?quizId=quiz-1&token=u1"), nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected learner to be forbidden, got err=%v resp=%v", err, resp)
	}

	teacher := dial(t, server, "/ws/progress?quizId=quiz-1&token=t1:teacher")
	defer teacher.Close()

	typ, payload := readNext(teacher, t)
	if typ != "progress" || len(payload["entries"].([]any)) != 0 {
		t.Fatalf("expected empty initial progress, got %s %v", typ, payload)
	}

	learner := dial(t, server, "/ws?quizId=quiz-1&token=u1")
	defer learner.Close()
	readNext(learner, t)
	send(t, learner, "start", nil)
	readNext(learner, t)
	send(t, learner, "submit", nil)
	readNext(learner, t)

	typ, payload = readNext(teacher, t)
	if typ != "progress" {
		t.Fatalf("expected progress update, got %s", typ)
	}
	entries := payload["entries"].([]any)
	if len(entries) != 1 || entries[0].(map[string]any)["userId"] != "u1" {
		t.Fatalf("expected one entry for u1, got %v", entries)
	}
}

func TestProgressExport(t *testing.T) {
	server := newTestServer(t, nil)

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/progress/export?quizId=quiz-1", nil)
	req.Header.Set("Authorization", "Bearer t1:teacher")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "spreadsheetml") {
		t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}

	req, _ = http.NewRequest(http.MethodGet, server.URL+"/progress/export?quizId=quiz-1", nil)
	req.Header.Set("Authorization", "Bearer u1")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for learner, got %d", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, server.URL+"/progress/export?quizId=missing", nil)
	req.Header.Set("Authorization", "Bearer t1:teacher")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown quiz, got %d", resp.StatusCode)
	}
}

func TestTokenRefresh(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Minute, time.Hour)
	server := newTestServer(t, tokens)

	pair, err := tokens.IssuePair(domain.Session{UserID: "u1", DisplayName: "Alice", Role: domain.RoleLearner})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	resp, err := http.Post(server.URL+"/token/refresh", "application/json", strings.NewReader(`{"refresh":"`+pair.Refresh+`"}`))
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := tokens.Resolve(context.Background(), body.Access); err != nil {
		t.Fatalf("refreshed access token does not resolve: %v", err)
	}

	resp2, err := http.Post(server.URL+"/token/refresh", "application/json", strings.NewReader(`{"refresh":"`+pair.Access+`"}`))
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected access token to be refused as refresh token, got %d", resp2.StatusCode)
	}

	resp3, err := http.Get(server.URL + "/token/refresh")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp3.Body.Close()
	if resp3.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp3.StatusCode)
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	if got := bearerToken(r); got != "from-query" {
		t.Fatalf("expected query token, got %q", got)
	}
	r.Header.Set("Authorization", "Bearer from-header")
	if got := bearerToken(r); got != "from-header" {
		t.Fatalf("expected header token, got %q", got)
	}
	r.Header.Set("Authorization", "Basic abc")
	if got := bearerToken(r); got != "from-query" {
		t.Fatalf("expected non-bearer header to be ignored, got %q", got)
	}
}

func newTestServer(t *testing.T, tokens *auth.TokenManager) *httptest.Server {
	t.Helper()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuiz()), time.Minute)
	service := app.NewAttemptService(memory.NewAttemptStore(), memory.NewBoardStore(), quizRepo, memory.NewResultStore())

	var (
		sessions SessionResolver = auth.DevResolver{}
		refresh  TokenRefresher
	)
	if tokens != nil {
		sessions, refresh = tokens, tokens
	}
	server := httptest.NewServer(NewRouter(service, sessions, refresh))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server, path string) string {
	return "ws" + server.URL[len("http"):] + path
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, path), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg.Type, msg.Payload
}

func sampleQuiz() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:           "quiz-1",
			Title:        "Sample",
			PassingScore: 50,
			Questions: []domain.Question{
				{
					ID: "q1", Text: "2+2?", Type: domain.QuestionSingle, Points: 10,
					Options: []domain.Option{{ID: "A", Text: "4", Correct: true}, {ID: "B", Text: "5"}},
				},
				{
					ID: "q2", Text: "Primes?", Type: domain.QuestionMultiple, Points: 10,
					Options: []domain.Option{{ID: "A", Text: "2", Correct: true}, {ID: "B", Text: "4"}, {ID: "C", Text: "5", Correct: true}},
				},
			},
		},
	}
}
