package postgres

import (
	"time"

	"exam-quiz-service/internal/domain"
	"github.com/uptrace/bun"
)

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          string    `bun:"id,pk,type:uuid"`
	ExternalID  string    `bun:"external_id,notnull,unique"`
	DisplayName string    `bun:"display_name,notnull"`
	AvatarURL   string    `bun:"avatar_url,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

func (m userModel) toDomain() domain.User {
	return domain.User{
		ID:          m.ID,
		ExternalID:  m.ExternalID,
		DisplayName: m.DisplayName,
		AvatarURL:   m.AvatarURL,
		CreatedAt:   m.CreatedAt,
	}
}

type resultModel struct {
	bun.BaseModel `bun:"table:quiz_results,alias:r"`

	ID               int64      `bun:"id,pk,autoincrement"`
	UserID           string     `bun:"user_id,type:uuid,notnull"`
	Category         string     `bun:"category,notnull"`
	TotalQuestions   int        `bun:"total_questions,notnull"`
	CorrectAnswers   int        `bun:"correct_answers,notnull"`
	WrongQuestionIDs []int64    `bun:"wrong_question_ids,array"`
	CompletedAt      time.Time  `bun:"completed_at,notnull"`
	User             *userModel `bun:"rel:belongs-to,join:user_id=id"`
}

func newResultModel(r domain.Result) *resultModel {
	wrong := make([]int64, len(r.WrongQuestionIDs))
	for i, id := range r.WrongQuestionIDs {
		wrong[i] = int64(id)
	}
	return &resultModel{
		UserID:           r.UserID,
		Category:         string(r.Category),
		TotalQuestions:   r.TotalQuestions,
		CorrectAnswers:   r.CorrectAnswers,
		WrongQuestionIDs: wrong,
		CompletedAt:      r.CompletedAt,
	}
}

func (m resultModel) toDomain() domain.Result {
	wrong := make([]int, len(m.WrongQuestionIDs))
	for i, id := range m.WrongQuestionIDs {
		wrong[i] = int(id)
	}
	return domain.Result{
		ID:               m.ID,
		UserID:           m.UserID,
		Category:         domain.Category(m.Category),
		TotalQuestions:   m.TotalQuestions,
		CorrectAnswers:   m.CorrectAnswers,
		WrongQuestionIDs: wrong,
		CompletedAt:      m.CompletedAt,
	}
}

type questionModel struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID           int      `bun:"id,pk"`
	Category     string   `bun:"category,notnull"`
	Exam         string   `bun:"exam,notnull"`
	Question     string   `bun:"question,notnull"`
	Choices      []string `bun:"choices,array"`
	CorrectIndex int      `bun:"correct_index,notnull"`
	Explanation  string   `bun:"explanation,notnull"`
}
