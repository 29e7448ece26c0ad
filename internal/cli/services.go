package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/bank"
	"exam-quiz-service/internal/config"
	"exam-quiz-service/internal/identity"
	"exam-quiz-service/internal/infra/memory"
	"exam-quiz-service/internal/infra/postgres"
	redisstore "exam-quiz-service/internal/infra/redis"
	"exam-quiz-service/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// resultStore is a backend that keeps both users and results.
type resultStore interface {
	app.ResultRepository
	app.UserRepository
}

// services holds the shared dependencies every command builds from the config.
type services struct {
	cfg       config.Config
	bank      *bank.Bank
	store     resultStore // nil: guest-only, nothing is recorded
	analytics *app.AnalyticsService
	issuer    *identity.Issuer
	redis     *redis.Client
	closers   []func() error
}

func newServices(ctx context.Context, cfg config.Config) (*services, error) {
	rt := &services{cfg: cfg}
	if err := rt.init(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *services) init(ctx context.Context) error {
	cfg := rt.cfg

	if cfg.Redis.Addr != "" {
		rt.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, rt.redis.Close)
	}

	switch {
	case cfg.Postgres.URL != "":
		db := postgres.Open(cfg.Postgres.URL)
		rt.closers = append(rt.closers, db.Close)
		applied, err := postgres.Migrate(ctx, db)
		if err != nil {
			return err
		}
		if len(applied) > 0 {
			log.Printf("migrations applied: %v", applied)
		}
		rt.store = postgres.NewResultStore(db)
	case cfg.SQLite.Path != "":
		store, err := sqlite.NewResultStore(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, store.Close)
		rt.store = store
	default:
		log.Printf("no results store configured, running guest-only")
	}

	questions, err := rt.loadBank(ctx)
	if err != nil {
		return err
	}
	rt.bank = questions
	log.Printf("question bank loaded: %d questions from %s", questions.Len(), cfg.Bank.Source)

	opts, err := analyticsOptions(cfg)
	if err != nil {
		return err
	}
	rt.analytics = app.NewAnalyticsService(rt.store, opts)
	rt.analytics.WithLeaderboardCache(rt.leaderboardCache())

	secret := cfg.Auth.Secret
	if secret == "" {
		if secret, err = identity.RandomSecret(); err != nil {
			return err
		}
		log.Printf("auth.secret not set: signing with a per-process key, tokens will not survive a restart")
	}
	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, identity.DefaultTokenTTL)
	if rt.issuer, err = identity.NewIssuer(secret, tokenTTL, rt.store); err != nil {
		return err
	}
	return nil
}

func (rt *services) loadBank(ctx context.Context) (*bank.Bank, error) {
	if rt.cfg.Bank.Source != config.BankSourcePostgres {
		return bank.Load(ctx, bank.NewFileLoader(rt.cfg.Bank.Path))
	}
	pool, err := pgxpool.Connect(ctx, rt.cfg.Postgres.URL)
	if err != nil {
		return nil, fmt.Errorf("connect question bank: %w", err)
	}
	defer pool.Close()
	return bank.Load(ctx, postgres.NewQuestionLoader(pool))
}

func (rt *services) leaderboardCache() app.LeaderboardRepository {
	ttl := config.TTLDuration(rt.cfg.Analytics.LeaderboardTTL, time.Minute)
	if rt.redis != nil {
		return redisstore.NewLeaderboardCache(rt.redis, rt.analytics, ttl)
	}
	return memory.NewLeaderboardCache(rt.analytics, ttl)
}

func (rt *services) sessionStore() app.SessionRepository {
	if rt.redis != nil {
		return redisstore.NewSessionStore(rt.redis, config.TTLDuration(rt.cfg.Redis.TTL, 30*time.Minute))
	}
	return memory.NewSessionStore()
}

func (rt *services) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			log.Printf("close: %v", err)
		}
	}
}

func analyticsOptions(cfg config.Config) (app.AnalyticsOptions, error) {
	loc, err := cfg.Location()
	if err != nil {
		return app.AnalyticsOptions{}, err
	}
	return app.AnalyticsOptions{
		WeakWindow:   cfg.Analytics.WeakWindow,
		HistoryLimit: cfg.Analytics.HistoryLimit,
		Window:       cfg.Analytics.LeaderboardWindow,
		Leaderboard: app.LeaderboardOptions{
			MinTotalAnswered: cfg.Analytics.LeaderboardMinAnswered,
			Limit:            cfg.Analytics.LeaderboardLimit,
		},
		Location: loc,
	}, nil
}
