package app

import (
	"sort"
	"time"

	"exam-quiz-service/internal/domain"
)

// Stats maps each touched category to its folded statistics.
type Stats map[domain.Category]domain.CategoryStat

// Aggregate folds in-memory attempts into per-category statistics.
func Aggregate(attempts []domain.Attempt) Stats {
	stats := make(Stats)
	for _, attempt := range attempts {
		touched := make(map[domain.Category]bool)
		for _, answer := range attempt.Answers {
			stat := stats[answer.Category]
			stat.Category = answer.Category
			stat.TotalAnswered++
			if answer.IsCorrect {
				stat.TotalCorrect++
			}
			if !touched[answer.Category] {
				touched[answer.Category] = true
				stat.AttemptCount++
			}
			stats[answer.Category] = stat
		}
	}
	return stats
}

// AggregateResults folds stored per-category records; each record is one attempt's
// contribution to its category.
func AggregateResults(results []domain.Result) Stats {
	stats := make(Stats)
	for _, r := range results {
		if r.TotalQuestions <= 0 {
			continue
		}
		stat := stats[r.Category]
		stat.Category = r.Category
		stat.TotalAnswered += r.TotalQuestions
		stat.TotalCorrect += r.CorrectAnswers
		stat.AttemptCount++
		stats[r.Category] = stat
	}
	return stats
}

// Merge sums two stat sets, e.g. this session's local numbers on top of stored history.
func Merge(a, b Stats) Stats {
	out := make(Stats, len(a)+len(b))
	for _, src := range []Stats{a, b} {
		for c, s := range src {
			stat := out[c]
			stat.Category = c
			stat.TotalAnswered += s.TotalAnswered
			stat.TotalCorrect += s.TotalCorrect
			stat.AttemptCount += s.AttemptCount
			out[c] = stat
		}
	}
	return out
}

// Overall sums every category.
func Overall(stats Stats) domain.Overall {
	var o domain.Overall
	for _, s := range stats {
		o.TotalAnswered += s.TotalAnswered
		o.TotalCorrect += s.TotalCorrect
	}
	o.Rate = domain.Rate(o.TotalCorrect, o.TotalAnswered)
	return o
}

// OrderedStats lists every category in display order, including ones with nothing answered.
func OrderedStats(stats Stats) []domain.CategoryStat {
	out := make([]domain.CategoryStat, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		s := stats[c]
		s.Category = c
		out = append(out, s)
	}
	return out
}

// DefaultWeakCategoryCount is how many weak categories the dashboard shows.
const DefaultWeakCategoryCount = 3

// WeakCategories ranks answered categories by ascending rate. Ties go to the category with
// fewer answers, then to display order.
func WeakCategories(stats Stats, n int) []domain.CategoryStat {
	if n <= 0 {
		n = DefaultWeakCategoryCount
	}
	ranked := make([]domain.CategoryStat, 0, len(stats))
	for _, s := range OrderedStats(stats) {
		if s.TotalAnswered > 0 {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := ranked[i].Rate(), ranked[j].Rate()
		if ri != rj {
			return ri < rj
		}
		if ranked[i].TotalAnswered != ranked[j].TotalAnswered {
			return ranked[i].TotalAnswered < ranked[j].TotalAnswered
		}
		return ranked[i].Category.Index() < ranked[j].Category.Index()
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// StudyDays counts the distinct calendar days (in loc) on which results were recorded.
func StudyDays(results []domain.Result, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	days := make(map[string]struct{})
	for _, r := range results {
		if r.CompletedAt.IsZero() {
			continue
		}
		days[r.CompletedAt.In(loc).Format(time.DateOnly)] = struct{}{}
	}
	return len(days)
}
