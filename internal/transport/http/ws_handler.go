package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
	"exam-quiz-service/internal/identity"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	play     *app.PlayService
	upgrader websocket.Upgrader
}

func NewWSHandler(play *app.PlayService) *WSHandler {
	return &WSHandler{
		play: play,
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

type startPayload struct {
	Category string `json:"category"`
}

type selectPayload struct {
	Choice *int `json:"choice"`
}

// questionView hides the answer key until the question is answered.
type questionView struct {
	ID       int             `json:"id"`
	Category domain.Category `json:"category"`
	Exam     string          `json:"exam,omitempty"`
	Text     string          `json:"question"`
	Choices  []string        `json:"choices"`
}

type questionPayload struct {
	SessionID string           `json:"sessionId"`
	Index     int              `json:"index"`
	Total     int              `json:"total"`
	Progress  float64          `json:"progress"`
	Selection domain.Selection `json:"selection"`
	Question  questionView     `json:"question"`
}

type answerResult struct {
	QuestionID    int    `json:"questionId"`
	SelectedIndex int    `json:"selectedIndex"`
	CorrectIndex  int    `json:"correctIndex"`
	Correct       bool   `json:"correct"`
	Explanation   string `json:"explanation"`
	IsLast        bool   `json:"isLast"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one quiz session per connection.
// A category query parameter starts the session right away; otherwise the client sends start.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user := identity.CurrentUser(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// Only this goroutine writes to the connection.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	c := &playConn{play: h.play, user: user, send: send}
	ctx := r.Context()
	if r.URL.Query().Has("category") {
		c.start(ctx, r.URL.Query().Get("category"))
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					c.fail("invalid start payload")
					continue
				}
			}
			c.start(ctx, payload.Category)
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Choice == nil {
				c.fail("invalid select payload")
				continue
			}
			c.selectChoice(ctx, *payload.Choice)
		case "advance":
			c.advance(ctx)
		case "abandon":
			if c.sessionID == "" {
				c.fail("no active session")
				continue
			}
			c.abandon()
		default:
			c.fail("unsupported message type")
		}
	}

	c.abandon()
	close(send)
	<-writerDone
}

// playConn is the per-connection state; it is only touched by the read loop.
type playConn struct {
	play      *app.PlayService
	user      *domain.User
	send      chan<- outboundMessage[any]
	sessionID string
}

func (c *playConn) start(ctx context.Context, category string) {
	if c.sessionID != "" {
		c.abandon()
	}
	session, err := c.play.Start(ctx, c.user, category)
	if err != nil {
		c.fail(err.Error())
		return
	}
	c.sessionID = session.ID
	c.presentQuestion(session)
}

func (c *playConn) selectChoice(ctx context.Context, choice int) {
	if c.sessionID == "" {
		c.fail("no active session")
		return
	}
	session, err := c.play.Select(ctx, c.user, c.sessionID, choice)
	if err != nil && !errors.Is(err, domain.ErrAlreadyAnswered) {
		c.fail(err.Error())
		return
	}
	// A repeated select re-sends the recorded answer.
	answer, ok := session.LastAnswer()
	if !ok {
		c.fail(domain.ErrNotAnswered.Error())
		return
	}
	q, _ := session.Current()
	c.send <- outboundMessage[any]{Type: "answerResult", Payload: answerResult{
		QuestionID:    q.ID,
		SelectedIndex: answer.SelectedIndex,
		CorrectIndex:  q.CorrectIndex,
		Correct:       answer.IsCorrect,
		Explanation:   q.Explanation,
		IsLast:        session.IsLast(),
	}}
}

func (c *playConn) advance(ctx context.Context) {
	if c.sessionID == "" {
		c.fail("no active session")
		return
	}
	session, outcome, err := c.play.Advance(ctx, c.user, c.sessionID)
	if err != nil {
		c.fail(err.Error())
		return
	}
	if outcome != nil {
		c.sessionID = ""
		c.send <- outboundMessage[any]{Type: "finished", Payload: outcome}
		return
	}
	c.presentQuestion(session)
}

// abandon drops an unfinished session when the client leaves or restarts.
func (c *playConn) abandon() {
	if c.sessionID == "" {
		return
	}
	if err := c.play.Abandon(context.Background(), c.user, c.sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		log.Printf("abandon session %s: %v", c.sessionID, err)
	}
	c.sessionID = ""
}

func (c *playConn) presentQuestion(session app.Session) {
	q, _ := session.Current()
	c.send <- outboundMessage[any]{Type: "question", Payload: questionPayload{
		SessionID: session.ID,
		Index:     session.Index,
		Total:     len(session.Questions),
		Progress:  session.Progress(),
		Selection: session.Selection,
		Question: questionView{
			ID:       q.ID,
			Category: q.Category,
			Exam:     q.Exam,
			Text:     q.Text,
			Choices:  q.Choices,
		},
	}}
}

func (c *playConn) fail(message string) {
	c.send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
