package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"exam-quiz-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ResultRepository persists per-category attempt records.
type ResultRepository interface {
	SaveResult(ctx context.Context, result domain.Result) (domain.Result, error)
	// ListResults returns a user's records newest first; limit <= 0 returns all of them.
	ListResults(ctx context.Context, userID string, limit int) ([]domain.Result, error)
	// ListRecentResults returns the newest records across all users joined with their profile.
	ListRecentResults(ctx context.Context, limit int) ([]domain.ResultWithUser, error)
}

// UserRepository stores identities handed over by the sign-in flow.
type UserRepository interface {
	UpsertUser(ctx context.Context, profile domain.Profile) (domain.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (domain.User, error)
}

// LeaderboardRepository serves the ranked board, usually from a short-lived cache.
type LeaderboardRepository interface {
	GetLeaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error)
	Invalidate(ctx context.Context) error
}

// AnalyticsOptions tunes the windows the analytics read.
type AnalyticsOptions struct {
	WeakWindow   int
	HistoryLimit int
	Leaderboard  LeaderboardOptions
	Window       int // cross-user records fed to the leaderboard
	Location     *time.Location
}

func (o AnalyticsOptions) withDefaults() AnalyticsOptions {
	if o.WeakWindow <= 0 {
		o.WeakWindow = DefaultWeakWindow
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 20
	}
	if o.Window <= 0 {
		o.Window = DefaultLeaderboardWindow
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	o.Leaderboard = o.Leaderboard.withDefaults()
	return o
}

// AnalyticsService persists finished attempts and reads statistics back. A nil results
// repository puts it in guest mode: saves are skipped and reads come back empty.
type AnalyticsService struct {
	results     ResultRepository
	leaderboard LeaderboardRepository
	opts        AnalyticsOptions
}

func NewAnalyticsService(results ResultRepository, opts AnalyticsOptions) *AnalyticsService {
	return &AnalyticsService{results: results, opts: opts.withDefaults()}
}

// WithLeaderboardCache puts a cache in front of the leaderboard window read.
func (s *AnalyticsService) WithLeaderboardCache(cache LeaderboardRepository) *AnalyticsService {
	s.leaderboard = cache
	return s
}

// Options returns the effective options.
func (s *AnalyticsService) Options() AnalyticsOptions {
	return s.opts
}

// Persistent reports whether a results store is configured.
func (s *AnalyticsService) Persistent() bool {
	return s.results != nil
}

// SaveReport describes what happened to each category record of an attempt.
type SaveReport struct {
	Guest  bool              `json:"guest"`
	Saved  []domain.Category `json:"saved"`
	Failed []domain.Category `json:"failed"`
}

// Complete reports whether every record reached the store.
func (r SaveReport) Complete() bool {
	return !r.Guest && len(r.Failed) == 0
}

// RecordAttempt stores one record per category touched. The writes are independent: a failed
// category is logged and reported but never retried, so nothing is counted twice.
func (s *AnalyticsService) RecordAttempt(ctx context.Context, user *domain.User, attempt domain.Attempt) SaveReport {
	if user == nil || s.results == nil {
		return SaveReport{Guest: true}
	}

	report := SaveReport{Saved: []domain.Category{}, Failed: []domain.Category{}}
	for _, result := range attempt.Breakdown(user.ID) {
		if _, err := s.results.SaveResult(ctx, result); err != nil {
			log.Printf("save result user=%s category=%s: %v", user.ID, result.Category, err)
			report.Failed = append(report.Failed, result.Category)
			continue
		}
		report.Saved = append(report.Saved, result.Category)
	}
	if len(report.Saved) > 0 {
		s.invalidateLeaderboard(ctx)
	}
	return report
}

// SaveResult stores a single per-category record submitted by a client.
func (s *AnalyticsService) SaveResult(ctx context.Context, result domain.Result) (domain.Result, error) {
	if s.results == nil {
		return domain.Result{}, domain.ErrStorageUnavailable
	}
	if err := result.Validate(); err != nil {
		return domain.Result{}, err
	}
	if result.WrongQuestionIDs == nil {
		result.WrongQuestionIDs = []int{}
	}
	saved, err := s.results.SaveResult(ctx, result)
	if err != nil {
		return domain.Result{}, fmt.Errorf("save result: %w", err)
	}
	s.invalidateLeaderboard(ctx)
	return saved, nil
}

// History returns the user's most recent records.
func (s *AnalyticsService) History(ctx context.Context, userID string, limit int) ([]domain.Result, error) {
	if s.results == nil {
		return []domain.Result{}, nil
	}
	results, err := s.results.ListResults(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

// CategoryStats folds the user's whole history.
func (s *AnalyticsService) CategoryStats(ctx context.Context, userID string) (Stats, error) {
	results, err := s.History(ctx, userID, 0)
	if err != nil {
		return Stats{}, err
	}
	return AggregateResults(results), nil
}

// WeakQuestionIDs ranks the user's misses over the recent window.
func (s *AnalyticsService) WeakQuestionIDs(ctx context.Context, userID string) ([]int, error) {
	results, err := s.History(ctx, userID, s.opts.WeakWindow)
	if err != nil {
		return []int{}, err
	}
	return WeakQuestionIDs(results, s.opts.WeakWindow), nil
}

// Leaderboard returns the cross-user ranking, through the cache when one is configured.
func (s *AnalyticsService) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	if s.leaderboard != nil {
		return s.leaderboard.GetLeaderboard(ctx)
	}
	return s.LoadLeaderboard(ctx)
}

// LoadLeaderboard reads the recent window and ranks it, bypassing any cache.
func (s *AnalyticsService) LoadLeaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	if s.results == nil {
		return []domain.LeaderboardEntry{}, nil
	}
	recent, err := s.results.ListRecentResults(ctx, s.opts.Window)
	if err != nil {
		return nil, fmt.Errorf("list recent results: %w", err)
	}
	return BuildLeaderboard(recent, s.opts.Leaderboard), nil
}

// Dashboard is the personal summary page.
type Dashboard struct {
	Stats           []domain.CategoryStat `json:"stats"`
	Overall         domain.Overall        `json:"overall"`
	WeakCategories  []domain.CategoryStat `json:"weakCategories"`
	WeakQuestionIDs []int                 `json:"weakQuestionIds"`
	History         []domain.Result       `json:"history"`
	StudyDays       int                   `json:"studyDays"`
	Attempts        int                   `json:"attempts"`
	// Degraded is set when stored statistics could not be read; the numbers are then empty.
	Degraded bool `json:"degraded"`
}

// Dashboard reads the full history and the weak window concurrently. Any read failure
// degrades to empty statistics instead of failing the page.
func (s *AnalyticsService) Dashboard(ctx context.Context, userID string) Dashboard {
	var (
		history []domain.Result
		weakIDs []int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		history, err = s.History(gctx, userID, 0)
		return err
	})
	g.Go(func() error {
		var err error
		weakIDs, err = s.WeakQuestionIDs(gctx, userID)
		return err
	})

	degraded := false
	if err := g.Wait(); err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			log.Printf("dashboard user=%s: %v", userID, err)
		}
		history, weakIDs, degraded = nil, []int{}, true
	}

	stats := AggregateResults(history)
	attempts := 0
	for _, st := range stats {
		attempts += st.AttemptCount
	}
	recent := history
	if len(recent) > s.opts.HistoryLimit {
		recent = recent[:s.opts.HistoryLimit]
	}
	if recent == nil {
		recent = []domain.Result{}
	}
	return Dashboard{
		Stats:           OrderedStats(stats),
		Overall:         Overall(stats),
		WeakCategories:  WeakCategories(stats, DefaultWeakCategoryCount),
		WeakQuestionIDs: weakIDs,
		History:         recent,
		StudyDays:       StudyDays(history, s.opts.Location),
		Attempts:        attempts,
		Degraded:        degraded,
	}
}

func (s *AnalyticsService) invalidateLeaderboard(ctx context.Context) {
	if s.leaderboard == nil {
		return
	}
	if err := s.leaderboard.Invalidate(ctx); err != nil {
		log.Printf("invalidate leaderboard: %v", err)
	}
}
