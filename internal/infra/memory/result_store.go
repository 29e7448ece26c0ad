package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"exam-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// ResultStore keeps users and per-category results in process memory. It implements both
// app.ResultRepository and app.UserRepository.
type ResultStore struct {
	mu      sync.RWMutex
	clock   func() time.Time
	nextID  int64
	users   map[string]domain.User // by external id
	results []domain.Result
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		clock: time.Now,
		users: make(map[string]domain.User),
	}
}

// NewResultStoreWithClock is test-only for deterministic timestamps.
func NewResultStoreWithClock(now func() time.Time) *ResultStore {
	s := NewResultStore()
	s.clock = now
	return s
}

func (s *ResultStore) UpsertUser(_ context.Context, profile domain.Profile) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[profile.ExternalID]
	if !ok {
		user = domain.User{
			ID:         uuid.NewString(),
			ExternalID: profile.ExternalID,
			CreatedAt:  s.clock(),
		}
	}
	user.DisplayName = profile.DisplayName
	user.AvatarURL = profile.AvatarURL
	s.users[profile.ExternalID] = user
	return user, nil
}

func (s *ResultStore) GetUserByExternalID(_ context.Context, externalID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[externalID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *ResultStore) SaveResult(_ context.Context, result domain.Result) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	result.ID = s.nextID
	if result.CompletedAt.IsZero() {
		result.CompletedAt = s.clock()
	}
	result.WrongQuestionIDs = append([]int{}, result.WrongQuestionIDs...)
	s.results = append(s.results, result)
	return result, nil
}

func (s *ResultStore) ListResults(_ context.Context, userID string, limit int) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Result, 0)
	for _, r := range s.newestFirst() {
		if r.UserID != userID {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *ResultStore) ListRecentResults(_ context.Context, limit int) ([]domain.ResultWithUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID := make(map[string]domain.User, len(s.users))
	for _, u := range s.users {
		byID[u.ID] = u
	}
	out := make([]domain.ResultWithUser, 0)
	for _, r := range s.newestFirst() {
		u := byID[r.UserID]
		out = append(out, domain.ResultWithUser{Result: r, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// newestFirst orders by completion time, then insertion, newest first. Callers hold the lock.
func (s *ResultStore) newestFirst() []domain.Result {
	out := make([]domain.Result, len(s.results))
	copy(out, s.results)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.After(out[j].CompletedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
