package session

import (
	"math/rand"

	"github.com/example/tmtvocab/pkg/models"
)

// PickStrategy decides which word a session presents next, given the
// pool, the ids already seen, and the retry queue of missed words. The
// strategy may pop from the retry queue. Returns nil when it has nothing
// left to offer.
type PickStrategy interface {
	PickNext(pool []models.Word, seen map[string]bool, retry *[]string) *models.Word
}

// DefaultRetryProbability is the chance a missed word is re-presented
// ahead of new material
const DefaultRetryProbability = 0.3

// MixedStrategy mixes unseen words with the retry queue:
//  1. with RetryProbability, the head of a non-empty retry queue;
//  2. otherwise a uniformly random unseen word;
//  3. once no unseen words remain, the retry queue drains
//     unconditionally;
//  4. nil when both are exhausted.
type MixedStrategy struct {
	RetryProbability float64
	Rand             *rand.Rand
}

// NewMixedStrategy returns the default strategy with the given random
// source
func NewMixedStrategy(rng *rand.Rand) *MixedStrategy {
	return &MixedStrategy{
		RetryProbability: DefaultRetryProbability,
		Rand:             rng,
	}
}

// PickNext implements PickStrategy
func (m *MixedStrategy) PickNext(pool []models.Word, seen map[string]bool, retry *[]string) *models.Word {
	// 有 retry 词时，按概率插入一个
	if len(*retry) > 0 && m.Rand.Float64() < m.RetryProbability {
		if w := popRetry(pool, retry); w != nil {
			return w
		}
	}

	// 取一个没见过的新词
	var unseen []models.Word
	for _, w := range pool {
		if !seen[w.ID] {
			unseen = append(unseen, w)
		}
	}
	if len(unseen) > 0 {
		w := unseen[m.Rand.Intn(len(unseen))]
		return &w
	}

	// 没有新词了，先消耗 retry 队列
	for len(*retry) > 0 {
		if w := popRetry(pool, retry); w != nil {
			return w
		}
	}

	return nil
}

// popRetry removes the queue head and resolves it against the pool. An
// id that left the pool is dropped.
func popRetry(pool []models.Word, retry *[]string) *models.Word {
	id := (*retry)[0]
	*retry = (*retry)[1:]

	for _, w := range pool {
		if w.ID == id {
			word := w
			return &word
		}
	}
	return nil
}
