package app

import (
	"sort"

	"exam-quiz-service/internal/domain"
)

const (
	DefaultLeaderboardWindow      = 200
	DefaultLeaderboardMinAnswered = 10
	DefaultLeaderboardLimit       = 20
)

// AnonymousName is shown for users without a display name.
const AnonymousName = "匿名"

// LeaderboardOptions bounds the ranking. Zero values take the defaults; a negative
// MinTotalAnswered drops the volume filter and a negative Limit keeps every qualifying user.
type LeaderboardOptions struct {
	MinTotalAnswered int
	Limit            int
}

func (o LeaderboardOptions) withDefaults() LeaderboardOptions {
	if o.MinTotalAnswered == 0 {
		o.MinTotalAnswered = DefaultLeaderboardMinAnswered
	}
	if o.Limit == 0 {
		o.Limit = DefaultLeaderboardLimit
	}
	return o
}

// BuildLeaderboard folds a recent cross-user window into a ranked list. It does not fetch or
// page; it only ranks what it is given.
func BuildLeaderboard(recent []domain.ResultWithUser, opts LeaderboardOptions) []domain.LeaderboardEntry {
	opts = opts.withDefaults()

	byUser := make(map[string]*domain.LeaderboardEntry)
	for _, r := range recent {
		entry, ok := byUser[r.UserID]
		if !ok {
			name := r.DisplayName
			if name == "" {
				name = AnonymousName
			}
			entry = &domain.LeaderboardEntry{
				UserID:         r.UserID,
				DisplayName:    name,
				AvatarURL:      r.AvatarURL,
				LastAnsweredAt: r.CompletedAt,
			}
			byUser[r.UserID] = entry
		}
		entry.TotalAnswered += r.TotalQuestions
		entry.TotalCorrect += r.CorrectAnswers
		entry.AttemptCount++
		if r.CompletedAt.After(entry.LastAnsweredAt) {
			entry.LastAnsweredAt = r.CompletedAt
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(byUser))
	for _, entry := range byUser {
		if entry.TotalAnswered < opts.MinTotalAnswered {
			continue
		}
		entry.Rate = domain.Rate(entry.TotalCorrect, entry.TotalAnswered)
		entries = append(entries, *entry)
	}

	// Rate first, then volume; user id keeps the order total for identical input.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rate != entries[j].Rate {
			return entries[i].Rate > entries[j].Rate
		}
		if entries[i].TotalAnswered != entries[j].TotalAnswered {
			return entries[i].TotalAnswered > entries[j].TotalAnswered
		}
		return entries[i].UserID < entries[j].UserID
	})

	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
