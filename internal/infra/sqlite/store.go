package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ResultStore keeps users and per-category results in a local SQLite file. It implements
// both app.ResultRepository and app.UserRepository for single-node deployments without
// Postgres.
type ResultStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewResultStore(path string) (*ResultStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "quiz.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000; PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &ResultStore{db: db, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *ResultStore) Close() error {
	return s.db.Close()
}

func (s *ResultStore) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY,
			external_id       TEXT NOT NULL UNIQUE,
			display_name      TEXT NOT NULL DEFAULT '',
			avatar_url        TEXT NOT NULL DEFAULT '',
			created_at_unix   INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS quiz_results (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id             TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			category            TEXT NOT NULL,
			total_questions     INTEGER NOT NULL CHECK (total_questions > 0),
			correct_answers     INTEGER NOT NULL CHECK (correct_answers >= 0 AND correct_answers <= total_questions),
			wrong_question_ids  TEXT NOT NULL DEFAULT '[]',
			completed_at_unix   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quiz_results_user_completed ON quiz_results (user_id, completed_at_unix DESC, id DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_quiz_results_completed ON quiz_results (completed_at_unix DESC, id DESC)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
