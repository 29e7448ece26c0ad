package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"exam-quiz-service/internal/domain"
	"github.com/google/uuid"
)

func (s *ResultStore) UpsertUser(ctx context.Context, profile domain.Profile) (domain.User, error) {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO users (id, external_id, display_name, avatar_url, created_at_unix)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (external_id) DO UPDATE SET
		   display_name = excluded.display_name,
		   avatar_url = excluded.avatar_url`,
		uuid.NewString(),
		profile.ExternalID,
		profile.DisplayName,
		profile.AvatarURL,
		s.now().UTC().UnixNano(),
	)
	if err != nil {
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return s.GetUserByExternalID(ctx, profile.ExternalID)
}

func (s *ResultStore) GetUserByExternalID(ctx context.Context, externalID string) (domain.User, error) {
	var (
		u       domain.User
		created int64
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, external_id, display_name, avatar_url, created_at_unix FROM users WHERE external_id = ?`,
		externalID,
	).Scan(&u.ID, &u.ExternalID, &u.DisplayName, &u.AvatarURL, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.Unix(0, created).UTC()
	return u, nil
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.Result) (domain.Result, error) {
	if result.CompletedAt.IsZero() {
		result.CompletedAt = s.now()
	}
	if result.WrongQuestionIDs == nil {
		result.WrongQuestionIDs = []int{}
	}
	wrong, err := json.Marshal(result.WrongQuestionIDs)
	if err != nil {
		return domain.Result{}, err
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO quiz_results (user_id, category, total_questions, correct_answers, wrong_question_ids, completed_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		result.UserID,
		string(result.Category),
		result.TotalQuestions,
		result.CorrectAnswers,
		string(wrong),
		result.CompletedAt.UTC().UnixNano(),
	)
	if err != nil {
		return domain.Result{}, fmt.Errorf("insert result: %w", err)
	}
	if result.ID, err = res.LastInsertId(); err != nil {
		return domain.Result{}, err
	}
	result.CompletedAt = result.CompletedAt.UTC()
	return result, nil
}

func (s *ResultStore) ListResults(ctx context.Context, userID string, limit int) ([]domain.Result, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT r.id, r.user_id, r.category, r.total_questions, r.correct_answers, r.wrong_question_ids, r.completed_at_unix, '', ''
		 FROM quiz_results r
		 WHERE r.user_id = ?
		 ORDER BY r.completed_at_unix DESC, r.id DESC
		 LIMIT ?`,
		userID,
		sqlLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	joined, err := scanResults(rows)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]domain.Result, 0, len(joined))
	for _, r := range joined {
		out = append(out, r.Result)
	}
	return out, nil
}

func (s *ResultStore) ListRecentResults(ctx context.Context, limit int) ([]domain.ResultWithUser, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT r.id, r.user_id, r.category, r.total_questions, r.correct_answers, r.wrong_question_ids, r.completed_at_unix,
		        COALESCE(u.display_name, ''), COALESCE(u.avatar_url, '')
		 FROM quiz_results r
		 LEFT JOIN users u ON u.id = r.user_id
		 ORDER BY r.completed_at_unix DESC, r.id DESC
		 LIMIT ?`,
		sqlLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list recent results: %w", err)
	}
	out, err := scanResults(rows)
	if err != nil {
		return nil, fmt.Errorf("list recent results: %w", err)
	}
	return out, nil
}

func scanResults(rows *sql.Rows) ([]domain.ResultWithUser, error) {
	defer rows.Close()

	out := make([]domain.ResultWithUser, 0)
	for rows.Next() {
		var (
			r         domain.ResultWithUser
			category  string
			wrong     string
			completed int64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &category, &r.TotalQuestions, &r.CorrectAnswers, &wrong, &completed, &r.DisplayName, &r.AvatarURL); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(wrong), &r.WrongQuestionIDs); err != nil {
			return nil, fmt.Errorf("decode wrong ids of result %d: %w", r.ID, err)
		}
		if r.WrongQuestionIDs == nil {
			r.WrongQuestionIDs = []int{}
		}
		r.Category = domain.Category(category)
		r.CompletedAt = time.Unix(0, completed).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// sqlLimit maps "no limit" onto SQLite's LIMIT -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
