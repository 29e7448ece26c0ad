package bank

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"exam-quiz-service/internal/domain"
)

// Bank is the immutable question pool loaded at process start.
type Bank struct {
	questions []domain.Question

	mu  sync.Mutex
	rnd *rand.Rand
}

// New validates the questions and builds a bank. A nil rnd seeds from the clock.
func New(questions []domain.Question, rnd *rand.Rand) (*Bank, error) {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	b := &Bank{
		questions: make([]domain.Question, 0, len(questions)),
		rnd:       rnd,
	}
	seen := make(map[int]struct{}, len(questions))
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("%w: %d", domain.ErrDuplicateQuestion, q.ID)
		}
		q.Choices = append([]string(nil), q.Choices...)
		seen[q.ID] = struct{}{}
		b.questions = append(b.questions, q)
	}
	return b, nil
}

// Questions returns a copy of the pool in load order.
func (b *Bank) Questions() []domain.Question {
	out := make([]domain.Question, len(b.questions))
	copy(out, b.questions)
	return out
}

// Len is the pool size.
func (b *Bank) Len() int {
	return len(b.questions)
}

// CountByCategory reports how many questions each category holds; every category is present.
func (b *Bank) CountByCategory() map[domain.Category]int {
	counts := make(map[domain.Category]int, len(domain.Categories()))
	for _, c := range domain.Categories() {
		counts[c] = 0
	}
	for _, q := range b.questions {
		counts[q.Category]++
	}
	return counts
}

// UnlabelledExam groups questions that carry no exam session label.
const UnlabelledExam = "手動"

// CountByExam cross-tabulates the pool by exam session and category, the basis of the
// past-paper trend view.
func (b *Bank) CountByExam() map[string]map[domain.Category]int {
	out := make(map[string]map[domain.Category]int)
	for _, q := range b.questions {
		exam := q.Exam
		if exam == "" {
			exam = UnlabelledExam
		}
		row, ok := out[exam]
		if !ok {
			row = make(map[domain.Category]int)
			out[exam] = row
		}
		row[q.Category]++
	}
	return out
}

// Select picks the question sequence for a new session.
//
// Category mode returns exactly that category's questions, mixed mode the whole pool and
// weak mode the pool filtered to the selection's IDs (the whole pool when none match). The
// result is always a fresh uniform shuffle.
func (b *Bank) Select(sel domain.Selection) ([]domain.Question, error) {
	var picked []domain.Question
	switch sel.Mode {
	case domain.SelectionMixed, "":
		picked = b.Questions()
	case domain.SelectionCategory:
		if !sel.Category.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, sel.Category)
		}
		picked = b.filter(func(q domain.Question) bool { return q.Category == sel.Category })
	case domain.SelectionWeak:
		wanted := make(map[int]struct{}, len(sel.QuestionIDs))
		for _, id := range sel.QuestionIDs {
			wanted[id] = struct{}{}
		}
		picked = b.filter(func(q domain.Question) bool {
			_, ok := wanted[q.ID]
			return ok
		})
		if len(picked) == 0 {
			picked = b.Questions()
		}
	default:
		return nil, fmt.Errorf("%w: selection mode %q", domain.ErrUnknownCategory, sel.Mode)
	}
	if len(picked) == 0 {
		return nil, domain.ErrEmptyPool
	}
	b.shuffle(picked)
	return picked, nil
}

func (b *Bank) filter(keep func(domain.Question) bool) []domain.Question {
	out := make([]domain.Question, 0)
	for _, q := range b.questions {
		if keep(q) {
			out = append(out, q)
		}
	}
	return out
}

// shuffle is a Fisher–Yates pass over qs.
func (b *Bank) shuffle(qs []domain.Question) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(qs) - 1; i > 0; i-- {
		j := b.rnd.Intn(i + 1)
		qs[i], qs[j] = qs[j], qs[i]
	}
}
