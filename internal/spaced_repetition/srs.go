package spaced_repetition

import (
	"math"
	"sort"
	"time"

	"github.com/example/tmtvocab/pkg/models"
)

// Mastery delta applied per answer
const (
	CorrectMasteryGain = 15
	WrongMasteryLoss   = 20

	// MaxIntervalDays caps the review interval for long streaks
	MaxIntervalDays = 30

	// HighMasteryThreshold is the mastery level above which intervals
	// get the 1.5x bonus
	HighMasteryThreshold = 80

	// WrongIntervalDays is the interval after an incorrect answer (12 hours)
	WrongIntervalDays = 0.5
)

// ReviewResult is the output of processing one answer
type ReviewResult struct {
	NextReview time.Time
	NewMastery int
}

// ComputeNextReview calculates the next review time and new mastery for a
// word given the answer outcome. correctStreak is supplied by the caller:
// consecutive correct answers including this one, reset to zero on a miss.
// The function is pure; it does not track streaks itself.
func ComputeNextReview(currentMastery int, isCorrect bool, correctStreak int, now time.Time) ReviewResult {
	var newMastery int
	var intervalDays float64

	if isCorrect {
		// 答对：提高掌握程度，增加复习间隔
		newMastery = currentMastery + CorrectMasteryGain
		if newMastery > 100 {
			newMastery = 100
		}

		switch {
		case correctStreak <= 1:
			intervalDays = 1
		case correctStreak == 2:
			intervalDays = 3
		case correctStreak == 3:
			intervalDays = 7
		case correctStreak == 4:
			intervalDays = 14
		default:
			intervalDays = math.Min(MaxIntervalDays, float64(7*(correctStreak-2)))
		}

		// 掌握程度越高，间隔越长
		if newMastery >= HighMasteryThreshold {
			intervalDays = math.Ceil(intervalDays * 1.5)
		}
	} else {
		// 答错：降低掌握程度，12小时后复习
		newMastery = currentMastery - WrongMasteryLoss
		if newMastery < 0 {
			newMastery = 0
		}
		intervalDays = WrongIntervalDays
	}

	interval := time.Duration(intervalDays * 24 * float64(time.Hour))
	return ReviewResult{
		NextReview: now.Add(interval),
		NewMastery: newMastery,
	}
}

// NeedsReview reports whether a word's scheduled review time has passed
func NeedsReview(nextReview, now time.Time) bool {
	return !nextReview.After(now)
}

// CountDue returns how many records are due for review at now
func CountDue(records []models.Progress, now time.Time) int {
	count := 0
	for _, p := range records {
		if NeedsReview(p.NextReview, now) {
			count++
		}
	}
	return count
}

// SortByReviewPriority orders records for review:
// longer overdue first, then lower mastery first. The sort is stable so
// exact ties keep their input order. The input slice is not modified.
func SortByReviewPriority(records []models.Progress, now time.Time) []models.Progress {
	sorted := make([]models.Progress, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		overdueI := now.Sub(sorted[i].NextReview)
		overdueJ := now.Sub(sorted[j].NextReview)

		// 首先按过期时间排序（过期越久越优先）
		if overdueI != overdueJ {
			return overdueI > overdueJ
		}

		// 其次按掌握程度排序（掌握程度越低越优先）
		return sorted[i].Mastery < sorted[j].Mastery
	})

	return sorted
}
