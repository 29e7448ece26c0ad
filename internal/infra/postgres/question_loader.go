package postgres

import (
	"context"
	"fmt"

	"exam-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/uptrace/bun"
)

// QuestionLoader reads the question bank from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, category, exam, question, choices, correct_index, explanation FROM questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q        domain.Question
			category string
		)
		if err := rows.Scan(&q.ID, &category, &q.Exam, &q.Text, &q.Choices, &q.CorrectIndex, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Category = domain.Category(category)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}

// SeedQuestions writes the bank into the questions table, replacing rows with the same id.
func SeedQuestions(ctx context.Context, db *bun.DB, questions []domain.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	models := make([]questionModel, 0, len(questions))
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return 0, err
		}
		models = append(models, questionModel{
			ID:           q.ID,
			Category:     string(q.Category),
			Exam:         q.Exam,
			Question:     q.Text,
			Choices:      q.Choices,
			CorrectIndex: q.CorrectIndex,
			Explanation:  q.Explanation,
		})
	}
	_, err := db.NewInsert().
		Model(&models).
		On("CONFLICT (id) DO UPDATE").
		Set("category = EXCLUDED.category").
		Set("exam = EXCLUDED.exam").
		Set("question = EXCLUDED.question").
		Set("choices = EXCLUDED.choices").
		Set("correct_index = EXCLUDED.correct_index").
		Set("explanation = EXCLUDED.explanation").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed questions: %w", err)
	}
	return len(models), nil
}
