package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"exam-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ResultStore persists users and per-category results through bun. It implements both
// app.ResultRepository and app.UserRepository.
type ResultStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db, now: time.Now}
}

// UpsertUser inserts the profile or refreshes name and avatar of the existing row.
func (s *ResultStore) UpsertUser(ctx context.Context, profile domain.Profile) (domain.User, error) {
	m := &userModel{
		ID:          uuid.NewString(),
		ExternalID:  profile.ExternalID,
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL,
		CreatedAt:   s.now(),
	}
	_, err := s.db.NewInsert().
		Model(m).
		On("CONFLICT (external_id) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Set("avatar_url = EXCLUDED.avatar_url").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return m.toDomain(), nil
}

func (s *ResultStore) GetUserByExternalID(ctx context.Context, externalID string) (domain.User, error) {
	m := new(userModel)
	err := s.db.NewSelect().Model(m).Where("u.external_id = ?", externalID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return m.toDomain(), nil
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.Result) (domain.Result, error) {
	if result.CompletedAt.IsZero() {
		result.CompletedAt = s.now()
	}
	m := newResultModel(result)
	if _, err := s.db.NewInsert().Model(m).Returning("id").Exec(ctx); err != nil {
		return domain.Result{}, fmt.Errorf("insert result: %w", err)
	}
	return m.toDomain(), nil
}

func (s *ResultStore) ListResults(ctx context.Context, userID string, limit int) ([]domain.Result, error) {
	var rows []resultModel
	q := s.db.NewSelect().
		Model(&rows).
		Where("r.user_id = ?", userID).
		OrderExpr("r.completed_at DESC, r.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]domain.Result, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (s *ResultStore) ListRecentResults(ctx context.Context, limit int) ([]domain.ResultWithUser, error) {
	var rows []resultModel
	q := s.db.NewSelect().
		Model(&rows).
		Relation("User").
		OrderExpr("r.completed_at DESC, r.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list recent results: %w", err)
	}
	out := make([]domain.ResultWithUser, 0, len(rows))
	for _, m := range rows {
		r := domain.ResultWithUser{Result: m.toDomain()}
		if m.User != nil {
			r.DisplayName = m.User.DisplayName
			r.AvatarURL = m.User.AvatarURL
		}
		out = append(out, r)
	}
	return out, nil
}
