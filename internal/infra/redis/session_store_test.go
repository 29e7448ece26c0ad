package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreRoundTripsSession(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewSessionStore(client, time.Minute)
	ctx := context.Background()

	at := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	session, err := app.NewSession("s-1", "u1", domain.CategorySelection(domain.CategoryHygiene), []domain.Question{
		{ID: 7, Category: domain.CategoryHygiene, Text: "消毒", Choices: []string{"a", "b", "c", "d"}, CorrectIndex: 2},
	}).Start(at)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	session, _ = session.Select(2, at)

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("quiz:play:s-1") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("quiz:play:s-1"); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %s", ttl)
	}

	got, err := store.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Phase != app.PhaseAnswered || got.OwnerID != "u1" || len(got.Answers) != 1 || !got.Answers[0].IsCorrect {
		t.Fatalf("unexpected session %+v", got)
	}
	if got.Selection.Category != domain.CategoryHygiene || !got.StartedAt.Equal(at) {
		t.Fatalf("unexpected selection or timestamps %+v", got)
	}

	if err := store.Delete(ctx, "s-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("quiz:play:s-1") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSessionStoreMissingAndExpired(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewSessionStore(client, time.Minute)
	ctx := context.Background()

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_ = store.Save(ctx, app.NewSession("s-2", "", domain.MixedSelection(), nil))
	mr.FastForward(2 * time.Minute)
	if _, err := store.Get(ctx, "s-2"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session to be gone, got %v", err)
	}
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}
