package app_test

import (
	"errors"
	"testing"
	"time"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
)

var t0 = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func TestSessionFullRun(t *testing.T) {
	qs := sampleQuestions()
	s := app.NewSession("s-1", "u1", domain.MixedSelection(), qs)
	if s.Phase != app.PhaseAwaitingStart {
		t.Fatalf("expected awaiting start, got %s", s.Phase)
	}

	s, err := s.Start(t0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := range qs {
		if s.Phase != app.PhasePresenting || s.Index != i {
			t.Fatalf("expected presenting(%d), got %s(%d)", i, s.Phase, s.Index)
		}
		if s, err = s.Select(qs[i].CorrectIndex, t0); err != nil {
			t.Fatalf("select %d: %v", i, err)
		}
		if s, err = s.Advance(t0.Add(time.Duration(i+1) * time.Minute)); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}
	if s.Phase != app.PhaseFinished {
		t.Fatalf("expected finished, got %s", s.Phase)
	}

	attempt, err := s.Attempt()
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if len(attempt.Answers) != len(qs) {
		t.Fatalf("expected %d answers, got %d", len(qs), len(attempt.Answers))
	}
	if !attempt.StartedAt.Equal(t0) || !attempt.FinishedAt.Equal(t0.Add(time.Duration(len(qs))*time.Minute)) {
		t.Fatalf("unexpected timestamps %v - %v", attempt.StartedAt, attempt.FinishedAt)
	}
	for i, a := range attempt.Answers {
		if a.QuestionID != qs[i].ID || !a.IsCorrect || a.Category != qs[i].Category {
			t.Fatalf("unexpected answer %d: %+v", i, a)
		}
	}
}

func TestSessionDoubleSelectIsNoop(t *testing.T) {
	s := startedSession(t)

	answered, err := s.Select(0, t0)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	again, err := answered.Select(1, t0)
	if !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}
	if len(again.Answers) != 1 || again.Answers[0].SelectedIndex != 0 || again.Phase != app.PhaseAnswered {
		t.Fatalf("expected unchanged session, got %+v", again)
	}
}

func TestSessionTransitionsDoNotMutateReceiver(t *testing.T) {
	s := startedSession(t)

	answered, err := s.Select(2, t0)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(s.Answers) != 0 || s.Phase != app.PhasePresenting {
		t.Fatalf("receiver mutated: %+v", s)
	}

	// Branching from the same step must not share answer storage.
	other, _ := s.Select(3, t0)
	if answered.Answers[0].SelectedIndex != 2 || other.Answers[0].SelectedIndex != 3 {
		t.Fatalf("branches share state: %+v / %+v", answered.Answers, other.Answers)
	}
}

func TestSessionRejectsOutOfRangeChoice(t *testing.T) {
	s := startedSession(t)

	for _, choice := range []int{-1, 4} {
		next, err := s.Select(choice, t0)
		if !errors.Is(err, domain.ErrChoiceOutOfRange) {
			t.Fatalf("choice %d: expected out of range, got %v", choice, err)
		}
		if len(next.Answers) != 0 || next.Phase != app.PhasePresenting {
			t.Fatalf("choice %d: expected no state change", choice)
		}
	}
}

func TestSessionAdvanceRequiresAnswer(t *testing.T) {
	s := startedSession(t)

	if _, err := s.Advance(t0); !errors.Is(err, domain.ErrNotAnswered) {
		t.Fatalf("expected not answered, got %v", err)
	}
	if _, err := s.Attempt(); !errors.Is(err, domain.ErrSessionNotFinished) {
		t.Fatalf("expected not finished, got %v", err)
	}
}

func TestSessionFinishedIsTerminal(t *testing.T) {
	qs := sampleQuestions()[:1]
	s, _ := app.NewSession("s-1", "", domain.MixedSelection(), qs).Start(t0)
	s, _ = s.Select(1, t0)
	s, err := s.Advance(t0)
	if err != nil || s.Phase != app.PhaseFinished {
		t.Fatalf("expected finished, got %s (%v)", s.Phase, err)
	}

	if _, err := s.Select(0, t0); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on select, got %v", err)
	}
	if _, err := s.Advance(t0); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on advance, got %v", err)
	}
	attempt, _ := s.Attempt()
	if len(attempt.Answers) != 1 {
		t.Fatalf("expected exactly one answer, got %d", len(attempt.Answers))
	}
}

func TestSessionStartRejectsEmptyPool(t *testing.T) {
	s := app.NewSession("s-1", "", domain.MixedSelection(), nil)
	if _, err := s.Start(t0); !errors.Is(err, domain.ErrEmptyPool) {
		t.Fatalf("expected empty pool, got %v", err)
	}
}

func TestSessionProgress(t *testing.T) {
	s := startedSession(t) // 4 questions
	if got := s.Progress(); got != 0 {
		t.Fatalf("expected 0 progress, got %v", got)
	}
	s, _ = s.Select(0, t0)
	if got := s.Progress(); got != 0.25 {
		t.Fatalf("expected 0.25 after first answer, got %v", got)
	}
	s, _ = s.Advance(t0)
	if got := s.Progress(); got != 0.25 {
		t.Fatalf("expected 0.25 on second question, got %v", got)
	}
}

func TestReduceAppliesEvents(t *testing.T) {
	s := app.NewSession("s-1", "", domain.MixedSelection(), sampleQuestions()[:2])
	events := []app.Event{
		app.StartEvent{At: t0},
		app.SelectEvent{Choice: 1, At: t0},
		app.AdvanceEvent{At: t0},
		app.SelectEvent{Choice: 0, At: t0},
		app.AdvanceEvent{At: t0.Add(time.Minute)},
	}
	var err error
	for _, ev := range events {
		if s, err = app.Reduce(s, ev); err != nil {
			t.Fatalf("reduce %T: %v", ev, err)
		}
	}
	if s.Phase != app.PhaseFinished || len(s.Answers) != 2 {
		t.Fatalf("expected finished with 2 answers, got %s with %d", s.Phase, len(s.Answers))
	}
}

func startedSession(t *testing.T) app.Session {
	t.Helper()
	s, err := app.NewSession("s-1", "", domain.MixedSelection(), sampleQuestions()).Start(t0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return s
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		question(1, domain.CategoryHygiene, 1),
		question(2, domain.CategoryHygiene, 0),
		question(3, domain.CategoryLaw, 2),
		question(4, domain.CategoryScience, 3),
	}
}

func question(id int, c domain.Category, correct int) domain.Question {
	return domain.Question{
		ID:           id,
		Category:     c,
		Text:         "question",
		Choices:      []string{"A", "B", "C", "D"},
		CorrectIndex: correct,
		Explanation:  "because",
	}
}
