package domain

import (
	"fmt"
	"time"
)

// ChoiceCount is the number of choices every question carries.
const ChoiceCount = 4

// Question models a four-choice exam question.
type Question struct {
	ID           int      `json:"id" yaml:"id"`
	Category     Category `json:"category" yaml:"category"`
	Text         string   `json:"question" yaml:"question"`
	Choices      []string `json:"choices" yaml:"choices"`
	CorrectIndex int      `json:"correctIndex" yaml:"correctIndex"`
	Explanation  string   `json:"explanation" yaml:"explanation"`
	Exam         string   `json:"exam,omitempty" yaml:"exam,omitempty"` // exam session label, e.g. 第52回
}

// Validate checks the bank invariants for a single question.
func (q Question) Validate() error {
	if !q.Category.Valid() {
		return fmt.Errorf("%w: question %d: %w", ErrInvalidQuestion, q.ID, ErrUnknownCategory)
	}
	if len(q.Choices) != ChoiceCount {
		return fmt.Errorf("%w: question %d has %d choices", ErrInvalidQuestion, q.ID, len(q.Choices))
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Choices) {
		return fmt.Errorf("%w: question %d correct index %d", ErrInvalidQuestion, q.ID, q.CorrectIndex)
	}
	return nil
}

// Answer is the single recorded response to one question of an attempt.
type Answer struct {
	QuestionID    int      `json:"questionId"`
	Category      Category `json:"category"`
	SelectedIndex int      `json:"selectedIndex"`
	IsCorrect     bool     `json:"isCorrect"`
}

// Attempt is a sealed run through a selected question sequence.
type Attempt struct {
	Selection   Selection `json:"selection"`
	QuestionIDs []int     `json:"questionIds"`
	Answers     []Answer  `json:"answers"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// Breakdown splits the attempt into one Result per category touched, in category display order.
func (a Attempt) Breakdown(userID string) []Result {
	byCategory := make(map[Category]*Result)
	for _, answer := range a.Answers {
		r, ok := byCategory[answer.Category]
		if !ok {
			r = &Result{
				UserID:           userID,
				Category:         answer.Category,
				WrongQuestionIDs: []int{},
				CompletedAt:      a.FinishedAt,
			}
			byCategory[answer.Category] = r
		}
		r.TotalQuestions++
		if answer.IsCorrect {
			r.CorrectAnswers++
		} else {
			r.WrongQuestionIDs = append(r.WrongQuestionIDs, answer.QuestionID)
		}
	}

	results := make([]Result, 0, len(byCategory))
	for _, c := range Categories() {
		if r, ok := byCategory[c]; ok {
			results = append(results, *r)
		}
	}
	return results
}

// Result is the stored per-category record of one attempt.
type Result struct {
	ID               int64     `json:"id"`
	UserID           string    `json:"userId"`
	Category         Category  `json:"category"`
	TotalQuestions   int       `json:"totalQuestions"`
	CorrectAnswers   int       `json:"correctAnswers"`
	WrongQuestionIDs []int     `json:"wrongQuestionIds"`
	CompletedAt      time.Time `json:"completedAt"`
}

// Validate rejects records that cannot have come from a finished attempt.
func (r Result) Validate() error {
	if !r.Category.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidResult, ErrUnknownCategory)
	}
	if r.TotalQuestions <= 0 || r.CorrectAnswers < 0 || r.CorrectAnswers > r.TotalQuestions {
		return fmt.Errorf("%w: %d correct of %d", ErrInvalidResult, r.CorrectAnswers, r.TotalQuestions)
	}
	if len(r.WrongQuestionIDs) > r.TotalQuestions-r.CorrectAnswers {
		return fmt.Errorf("%w: %d wrong ids for %d misses", ErrInvalidResult, len(r.WrongQuestionIDs), r.TotalQuestions-r.CorrectAnswers)
	}
	return nil
}

// ResultWithUser joins a result with the minimal profile of its owner.
type ResultWithUser struct {
	Result
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// User is a signed-in player.
type User struct {
	ID          string    `json:"id"`
	ExternalID  string    `json:"externalId"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Profile is what the identity provider supplies on sign-in.
type Profile struct {
	ExternalID  string
	DisplayName string
	AvatarURL   string
}

// CategoryStat is derived by folding attempts; it is never stored.
type CategoryStat struct {
	Category      Category `json:"category"`
	TotalAnswered int      `json:"totalAnswered"`
	TotalCorrect  int      `json:"totalCorrect"`
	AttemptCount  int      `json:"attemptCount"`
}

// Rate is the rounded correct percentage.
func (s CategoryStat) Rate() int {
	return Rate(s.TotalCorrect, s.TotalAnswered)
}

// Overall sums every category.
type Overall struct {
	TotalAnswered int `json:"totalAnswered"`
	TotalCorrect  int `json:"totalCorrect"`
	Rate          int `json:"rate"`
}

// LeaderboardEntry is one ranked user of the cross-user board.
type LeaderboardEntry struct {
	Rank           int       `json:"rank"`
	UserID         string    `json:"userId"`
	DisplayName    string    `json:"displayName"`
	AvatarURL      string    `json:"avatarUrl"`
	TotalAnswered  int       `json:"totalAnswered"`
	TotalCorrect   int       `json:"totalCorrect"`
	AttemptCount   int       `json:"attemptCount"`
	Rate           int       `json:"rate"`
	LastAnsweredAt time.Time `json:"lastAnsweredAt"`
}

// Rate returns round-half-up of 100*correct/total, or 0 when nothing was answered.
func Rate(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}
