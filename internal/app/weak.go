package app

import (
	"sort"

	"exam-quiz-service/internal/domain"
)

// DefaultWeakWindow is how many recent records the weak-question ranking looks at.
const DefaultWeakWindow = 30

// WeakQuestionIDs ranks previously missed questions by miss count over the newest windowSize
// records. history must be ordered newest first; equal counts keep the order in which the
// question was first seen while scanning.
func WeakQuestionIDs(history []domain.Result, windowSize int) []int {
	if windowSize <= 0 {
		windowSize = DefaultWeakWindow
	}
	if len(history) > windowSize {
		history = history[:windowSize]
	}

	counts := make(map[int]int)
	order := make([]int, 0)
	for _, r := range history {
		for _, id := range r.WrongQuestionIDs {
			if _, seen := counts[id]; !seen {
				order = append(order, id)
			}
			counts[id]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order
}
