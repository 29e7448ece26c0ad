package app

import (
	"context"
	"log"
	"time"

	"exam-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// SessionRepository parks in-progress sessions between client events (in-memory, Redis, etc).
type SessionRepository interface {
	Save(ctx context.Context, session Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// QuestionSelector picks the question sequence for a new session.
type QuestionSelector interface {
	Select(sel domain.Selection) ([]domain.Question, error)
}

// PlayService drives sessions on behalf of remote clients.
type PlayService struct {
	sessions  SessionRepository
	questions QuestionSelector
	analytics *AnalyticsService
	now       func() time.Time
	newID     func() string
}

func NewPlayService(sessions SessionRepository, questions QuestionSelector, analytics *AnalyticsService) *PlayService {
	return NewPlayServiceWithClock(sessions, questions, analytics, time.Now)
}

// NewPlayServiceWithClock allows deterministic timestamps in tests.
func NewPlayServiceWithClock(sessions SessionRepository, questions QuestionSelector, analytics *AnalyticsService, now func() time.Time) *PlayService {
	return &PlayService{
		sessions:  sessions,
		questions: questions,
		analytics: analytics,
		now:       now,
		newID:     uuid.NewString,
	}
}

// Start selects the questions once and presents the first one. user may be nil (guest).
func (s *PlayService) Start(ctx context.Context, user *domain.User, selector string) (Session, error) {
	session, err := BeginSession(ctx, s.analytics, s.questions, user, selector, s.newID(), s.now())
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// BeginSession resolves a raw selector into a started session. Weak practice reads the user's
// recent misses and falls back to the whole pool when they cannot be read.
func BeginSession(ctx context.Context, analytics *AnalyticsService, questions QuestionSelector, user *domain.User, selector, id string, at time.Time) (Session, error) {
	var weakIDs []int
	if selector == domain.WeakSelector && user != nil && analytics != nil {
		ids, err := analytics.WeakQuestionIDs(ctx, user.ID)
		if err != nil {
			log.Printf("weak question ids user=%s: %v", user.ID, err)
		}
		weakIDs = ids
	}
	sel, err := domain.ParseSelection(selector, weakIDs)
	if err != nil {
		return Session{}, err
	}
	picked, err := questions.Select(sel)
	if err != nil {
		return Session{}, err
	}
	return NewSession(id, ownerID(user), sel, picked).Start(at)
}

// Get returns a parked session.
func (s *PlayService) Get(ctx context.Context, user *domain.User, id string) (Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if session.OwnerID != ownerID(user) {
		return Session{}, domain.ErrSessionOwner
	}
	return session, nil
}

// Select answers the presented question.
func (s *PlayService) Select(ctx context.Context, user *domain.User, id string, choice int) (Session, error) {
	session, err := s.Get(ctx, user, id)
	if err != nil {
		return Session{}, err
	}
	next, err := session.Select(choice, s.now())
	if err != nil {
		return session, err
	}
	if err := s.sessions.Save(ctx, next); err != nil {
		return session, err
	}
	return next, nil
}

// WrongAnswer pairs a missed question with the choice that was picked.
type WrongAnswer struct {
	Question      domain.Question `json:"question"`
	SelectedIndex int             `json:"selectedIndex"`
}

// Outcome is the result bundle of a finished session.
type Outcome struct {
	Attempt domain.Attempt        `json:"attempt"`
	Stats   []domain.CategoryStat `json:"stats"`
	Overall domain.Overall        `json:"overall"`
	// Cumulative is this attempt on top of the stored history, every category in display order.
	Cumulative []domain.CategoryStat `json:"cumulative"`
	Wrong      []WrongAnswer         `json:"wrong"`
	Save       SaveReport            `json:"save"`
}

// Advance moves to the next question. After the last one the attempt is sealed, recorded for
// signed-in users and returned as an Outcome; the parked session is dropped.
func (s *PlayService) Advance(ctx context.Context, user *domain.User, id string) (Session, *Outcome, error) {
	session, err := s.Get(ctx, user, id)
	if err != nil {
		return Session{}, nil, err
	}
	next, err := session.Advance(s.now())
	if err != nil {
		return session, nil, err
	}
	if next.Phase != PhaseFinished {
		if err := s.sessions.Save(ctx, next); err != nil {
			return session, nil, err
		}
		return next, nil, nil
	}

	outcome, err := s.finish(ctx, user, next)
	if err != nil {
		return session, nil, err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		log.Printf("delete finished session %s: %v", id, err)
	}
	return next, outcome, nil
}

// Abandon drops a session without recording anything.
func (s *PlayService) Abandon(ctx context.Context, user *domain.User, id string) error {
	if _, err := s.Get(ctx, user, id); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, id)
}

func (s *PlayService) finish(ctx context.Context, user *domain.User, session Session) (*Outcome, error) {
	attempt, err := session.Attempt()
	if err != nil {
		return nil, err
	}
	return Summarize(ctx, s.analytics, user, session, attempt), nil
}

// Summarize builds the result bundle and records the attempt. Local statistics are computed
// before the save so a storage failure never hides them. Stored history is read before the
// save, so the cumulative view never counts this attempt twice.
func Summarize(ctx context.Context, analytics *AnalyticsService, user *domain.User, session Session, attempt domain.Attempt) *Outcome {
	stats := Aggregate([]domain.Attempt{attempt})
	touched := make([]domain.CategoryStat, 0, len(stats))
	for _, st := range OrderedStats(stats) {
		if st.TotalAnswered > 0 {
			touched = append(touched, st)
		}
	}

	wrong := make([]WrongAnswer, 0)
	for i, answer := range attempt.Answers {
		if !answer.IsCorrect {
			wrong = append(wrong, WrongAnswer{Question: session.Questions[i], SelectedIndex: answer.SelectedIndex})
		}
	}

	stored := Stats{}
	if user != nil && analytics != nil && analytics.Persistent() {
		history, err := analytics.CategoryStats(ctx, user.ID)
		if err != nil {
			log.Printf("stored stats user=%s: %v", user.ID, err)
		} else {
			stored = history
		}
	}

	report := SaveReport{Guest: true}
	if analytics != nil {
		report = analytics.RecordAttempt(ctx, user, attempt)
	}
	return &Outcome{
		Attempt:    attempt,
		Stats:      touched,
		Overall:    Overall(stats),
		Cumulative: OrderedStats(Merge(stats, stored)),
		Wrong:      wrong,
		Save:       report,
	}
}

func ownerID(user *domain.User) string {
	if user == nil {
		return ""
	}
	return user.ID
}
