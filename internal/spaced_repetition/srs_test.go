package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tmtvocab/pkg/models"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func days(d float64) time.Duration {
	return time.Duration(d * 24 * float64(time.Hour))
}

func TestComputeNextReviewFirstCorrect(t *testing.T) {
	res := ComputeNextReview(0, true, 1, testNow)

	assert.Equal(t, 15, res.NewMastery)
	assert.Equal(t, testNow.Add(days(1)), res.NextReview)
}

func TestComputeNextReviewLongStreakHighMastery(t *testing.T) {
	// streak 5 -> min(30, 7*3) = 21 days, mastery 85+15 clamps to 100,
	// >= 80 so 21 * 1.5 = 31.5 rounds up to 32 days
	res := ComputeNextReview(85, true, 5, testNow)

	assert.Equal(t, 100, res.NewMastery)
	assert.Equal(t, testNow.Add(days(32)), res.NextReview)
}

func TestComputeNextReviewIncorrect(t *testing.T) {
	res := ComputeNextReview(50, false, 0, testNow)

	assert.Equal(t, 30, res.NewMastery)
	assert.Equal(t, testNow.Add(12*time.Hour), res.NextReview)
}

func TestComputeNextReviewIncorrectIgnoresStreak(t *testing.T) {
	for _, streak := range []int{0, 1, 4, 9} {
		res := ComputeNextReview(40, false, streak, testNow)
		assert.Equal(t, 20, res.NewMastery)
		assert.Equal(t, testNow.Add(12*time.Hour), res.NextReview)
	}
}

func TestComputeNextReviewMasteryClamps(t *testing.T) {
	// upper bound: low streak keeps the interval below the bonus threshold
	res := ComputeNextReview(95, true, 1, testNow)
	assert.Equal(t, 100, res.NewMastery)

	// lower bound
	res = ComputeNextReview(10, false, 0, testNow)
	assert.Equal(t, 0, res.NewMastery)

	res = ComputeNextReview(0, false, 0, testNow)
	assert.Equal(t, 0, res.NewMastery)
}

func TestComputeNextReviewCorrectGainEverywhere(t *testing.T) {
	for m := 0; m <= 100; m += 5 {
		res := ComputeNextReview(m, true, 1, testNow)
		want := m + 15
		if want > 100 {
			want = 100
		}
		assert.Equalf(t, want, res.NewMastery, "mastery %d", m)
	}
}

func TestComputeNextReviewIntervalTable(t *testing.T) {
	// low mastery so the 1.5x bonus never kicks in
	cases := []struct {
		streak int
		days   float64
	}{
		{0, 1},
		{1, 1},
		{2, 3},
		{3, 7},
		{4, 14},
		{5, 21},
		{6, 28},
		{7, 30}, // capped
		{20, 30},
	}
	for _, tc := range cases {
		res := ComputeNextReview(0, true, tc.streak, testNow)
		assert.Equalf(t, testNow.Add(days(tc.days)), res.NextReview, "streak %d", tc.streak)
	}
}

func TestComputeNextReviewIntervalMonotonicInStreak(t *testing.T) {
	prev := time.Duration(0)
	for streak := 1; streak <= 4; streak++ {
		res := ComputeNextReview(0, true, streak, testNow)
		interval := res.NextReview.Sub(testNow)
		assert.GreaterOrEqualf(t, interval, prev, "streak %d", streak)
		prev = interval
	}
}

func TestComputeNextReviewHighMasteryBonusNeverShrinks(t *testing.T) {
	for streak := 1; streak <= 8; streak++ {
		base := ComputeNextReview(0, true, streak, testNow)
		boosted := ComputeNextReview(70, true, streak, testNow) // 70+15 >= 80
		assert.GreaterOrEqualf(t,
			boosted.NextReview.Sub(testNow), base.NextReview.Sub(testNow),
			"streak %d", streak)
	}
}

func TestNeedsReview(t *testing.T) {
	assert.True(t, NeedsReview(testNow.Add(-time.Hour), testNow))
	assert.True(t, NeedsReview(testNow, testNow))
	assert.False(t, NeedsReview(testNow.Add(time.Minute), testNow))
}

func TestCountDue(t *testing.T) {
	records := []models.Progress{
		{WordID: "a", NextReview: testNow.Add(-time.Hour)},
		{WordID: "b", NextReview: testNow.Add(time.Hour)},
		{WordID: "c", NextReview: testNow},
	}
	assert.Equal(t, 2, CountDue(records, testNow))
	assert.Equal(t, 0, CountDue(nil, testNow))
}

func TestSortByReviewPriorityOverdueFirst(t *testing.T) {
	records := []models.Progress{
		{WordID: "recent", NextReview: testNow.Add(-time.Hour), Mastery: 10},
		{WordID: "oldest", NextReview: testNow.Add(-72 * time.Hour), Mastery: 90},
		{WordID: "middle", NextReview: testNow.Add(-24 * time.Hour), Mastery: 50},
	}

	sorted := SortByReviewPriority(records, testNow)

	require.Len(t, sorted, 3)
	assert.Equal(t, "oldest", sorted[0].WordID)
	assert.Equal(t, "middle", sorted[1].WordID)
	assert.Equal(t, "recent", sorted[2].WordID)

	// input untouched
	assert.Equal(t, "recent", records[0].WordID)
}

func TestSortByReviewPriorityMasteryBreaksTies(t *testing.T) {
	due := testNow.Add(-time.Hour)
	records := []models.Progress{
		{WordID: "strong", NextReview: due, Mastery: 80},
		{WordID: "weak", NextReview: due, Mastery: 5},
	}

	sorted := SortByReviewPriority(records, testNow)

	assert.Equal(t, "weak", sorted[0].WordID)
	assert.Equal(t, "strong", sorted[1].WordID)
}

func TestSortByReviewPriorityStableOnExactTies(t *testing.T) {
	due := testNow.Add(-time.Hour)
	records := []models.Progress{
		{WordID: "first", NextReview: due, Mastery: 40},
		{WordID: "second", NextReview: due, Mastery: 40},
		{WordID: "third", NextReview: due, Mastery: 40},
	}

	sorted := SortByReviewPriority(records, testNow)

	assert.Equal(t, "first", sorted[0].WordID)
	assert.Equal(t, "second", sorted[1].WordID)
	assert.Equal(t, "third", sorted[2].WordID)
}
