package app

import (
	"time"

	"exam-quiz-service/internal/domain"
)

// Phase is the state of a quiz session.
type Phase string

const (
	PhaseAwaitingStart Phase = "awaiting_start"
	PhasePresenting    Phase = "presenting"
	PhaseAnswered      Phase = "answered"
	PhaseFinished      Phase = "finished"
)

// Session drives one quiz attempt. It is a value: every transition returns a new Session and
// leaves the receiver untouched, so a caller can keep or discard any intermediate step.
type Session struct {
	ID         string            `json:"id"`
	OwnerID    string            `json:"ownerId,omitempty"` // empty for guests
	Selection  domain.Selection  `json:"selection"`
	Questions  []domain.Question `json:"questions"`
	Index      int               `json:"index"`
	Phase      Phase             `json:"phase"`
	Answers    []domain.Answer   `json:"answers"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
}

// NewSession fixes the question order for the whole attempt.
func NewSession(id, ownerID string, sel domain.Selection, questions []domain.Question) Session {
	qs := make([]domain.Question, len(questions))
	copy(qs, questions)
	return Session{
		ID:        id,
		OwnerID:   ownerID,
		Selection: sel,
		Questions: qs,
		Phase:     PhaseAwaitingStart,
		Answers:   []domain.Answer{},
	}
}

// Start presents the first question.
func (s Session) Start(at time.Time) (Session, error) {
	if s.Phase != PhaseAwaitingStart {
		return s, domain.ErrInvalidTransition
	}
	if len(s.Questions) == 0 {
		return s, domain.ErrEmptyPool
	}
	next := s.clone()
	next.Phase = PhasePresenting
	next.Index = 0
	next.StartedAt = at
	return next, nil
}

// Select answers the presented question. A question can only be answered once.
func (s Session) Select(choice int, _ time.Time) (Session, error) {
	switch s.Phase {
	case PhaseAnswered:
		return s, domain.ErrAlreadyAnswered
	case PhasePresenting:
	default:
		return s, domain.ErrInvalidTransition
	}
	q := s.Questions[s.Index]
	if choice < 0 || choice >= len(q.Choices) {
		return s, domain.ErrChoiceOutOfRange
	}

	next := s.clone()
	next.Answers = append(next.Answers, domain.Answer{
		QuestionID:    q.ID,
		Category:      q.Category,
		SelectedIndex: choice,
		IsCorrect:     choice == q.CorrectIndex,
	})
	next.Phase = PhaseAnswered
	return next, nil
}

// Advance moves past an answered question, finishing after the last one.
func (s Session) Advance(at time.Time) (Session, error) {
	switch s.Phase {
	case PhasePresenting:
		return s, domain.ErrNotAnswered
	case PhaseAnswered:
	default:
		return s, domain.ErrInvalidTransition
	}

	next := s.clone()
	if s.Index+1 < len(s.Questions) {
		next.Index++
		next.Phase = PhasePresenting
		return next, nil
	}
	next.Phase = PhaseFinished
	next.FinishedAt = at
	return next, nil
}

// Attempt returns the sealed attempt of a finished session.
func (s Session) Attempt() (domain.Attempt, error) {
	if s.Phase != PhaseFinished {
		return domain.Attempt{}, domain.ErrSessionNotFinished
	}
	ids := make([]int, len(s.Questions))
	for i, q := range s.Questions {
		ids[i] = q.ID
	}
	answers := make([]domain.Answer, len(s.Answers))
	copy(answers, s.Answers)
	return domain.Attempt{
		Selection:   s.Selection,
		QuestionIDs: ids,
		Answers:     answers,
		StartedAt:   s.StartedAt,
		FinishedAt:  s.FinishedAt,
	}, nil
}

// Current returns the presented (or just answered) question.
func (s Session) Current() (domain.Question, bool) {
	if s.Phase != PhasePresenting && s.Phase != PhaseAnswered {
		return domain.Question{}, false
	}
	return s.Questions[s.Index], true
}

// LastAnswer is the answer given to the current question, if any.
func (s Session) LastAnswer() (domain.Answer, bool) {
	if s.Phase != PhaseAnswered || len(s.Answers) == 0 {
		return domain.Answer{}, false
	}
	return s.Answers[len(s.Answers)-1], true
}

// Progress is a UI hint in [0,1]; it is not authoritative state.
func (s Session) Progress() float64 {
	n := len(s.Questions)
	if n == 0 {
		return 0
	}
	switch s.Phase {
	case PhaseAwaitingStart:
		return 0
	case PhaseFinished:
		return 1
	}
	done := s.Index
	if s.Phase == PhaseAnswered {
		done++
	}
	return float64(done) / float64(n)
}

// IsLast reports whether the presented question is the final one.
func (s Session) IsLast() bool {
	return s.Index+1 >= len(s.Questions)
}

func (s Session) clone() Session {
	next := s
	next.Answers = make([]domain.Answer, len(s.Answers), len(s.Answers)+1)
	copy(next.Answers, s.Answers)
	return next
}

// Event is a discrete input to the session reducer.
type Event interface {
	isEvent()
}

type StartEvent struct{ At time.Time }

type SelectEvent struct {
	Choice int
	At     time.Time
}

type AdvanceEvent struct{ At time.Time }

func (StartEvent) isEvent()   {}
func (SelectEvent) isEvent()  {}
func (AdvanceEvent) isEvent() {}

// Reduce applies one event. On error the returned session equals the input.
func Reduce(s Session, ev Event) (Session, error) {
	switch e := ev.(type) {
	case StartEvent:
		return s.Start(e.At)
	case SelectEvent:
		return s.Select(e.Choice, e.At)
	case AdvanceEvent:
		return s.Advance(e.At)
	}
	return s, domain.ErrInvalidTransition
}
