package http

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocketPlayFlow(t *testing.T) {
	s := newTestServer(t)
	user, token := s.signIn(t, "line-1", "Alice")

	u := "ws" + s.server.URL[len("http"):] + "/ws/play?token=" + token + "&category=" + url.QueryEscape("衛生管理")
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the first question right away.
	_, payload := readNext(conn, t, "question")
	if payload["total"].(float64) != 2 {
		t.Fatalf("expected 2 questions, got %v", payload["total"])
	}
	q := payload["question"].(map[string]any)
	if _, leaked := q["correctIndex"]; leaked {
		t.Fatalf("question must not carry the answer key")
	}

	// First question right, second wrong.
	for i, choice := range []int{1, 3} {
		send(t, conn, map[string]any{"type": "select", "payload": map[string]any{"choice": choice}})
		_, result := readNext(conn, t, "answerResult")
		if result["correct"].(bool) != (i == 0) {
			t.Fatalf("answer %d: unexpected result %v", i, result)
		}

		// Answering twice repeats the recorded answer.
		send(t, conn, map[string]any{"type": "select", "payload": map[string]any{"choice": 0}})
		_, again := readNext(conn, t, "answerResult")
		if again["selectedIndex"].(float64) != float64(choice) {
			t.Fatalf("expected recorded choice %d, got %v", choice, again["selectedIndex"])
		}

		send(t, conn, map[string]any{"type": "advance"})
		if i == 0 {
			readNext(conn, t, "question")
		}
	}

	_, outcome := readNext(conn, t, "finished")
	overall := outcome["overall"].(map[string]any)
	if overall["rate"].(float64) != 50 {
		t.Fatalf("expected rate 50, got %v", overall["rate"])
	}
	save := outcome["save"].(map[string]any)
	if save["guest"].(bool) {
		t.Fatalf("signed-in attempt must be recorded")
	}

	history, _ := s.results.ListResults(context.Background(), user.ID, 0)
	if len(history) != 1 || history[0].TotalQuestions != 2 || history[0].CorrectAnswers != 1 {
		t.Fatalf("unexpected stored history %+v", history)
	}
}

func TestWebSocketGuestAndErrors(t *testing.T) {
	s := newTestServer(t)

	u := "ws" + s.server.URL[len("http"):] + "/ws/play"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send(t, conn, map[string]any{"type": "advance"})
	readNext(conn, t, "error")

	send(t, conn, map[string]any{"type": "start", "payload": map[string]any{"category": "料理"}})
	readNext(conn, t, "error")

	send(t, conn, map[string]any{"type": "start", "payload": map[string]any{"category": "random"}})
	_, payload := readNext(conn, t, "question")
	if payload["total"].(float64) != 4 {
		t.Fatalf("expected whole pool, got %v", payload["total"])
	}

	send(t, conn, map[string]any{"type": "advance"})
	readNext(conn, t, "error")

	send(t, conn, map[string]any{"type": "select", "payload": map[string]any{"choice": 9}})
	readNext(conn, t, "error")

	send(t, conn, map[string]any{"type": "dance"})
	readNext(conn, t, "error")

	// Abandoning drops the session; nothing is left to advance.
	send(t, conn, map[string]any{"type": "abandon"})
	send(t, conn, map[string]any{"type": "advance"})
	_, failed := readNext(conn, t, "error")
	if failed["message"] != "no active session" {
		t.Fatalf("expected no active session, got %v", failed["message"])
	}
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %v: %v", msg["type"], err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}
