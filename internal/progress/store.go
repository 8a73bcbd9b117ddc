package progress

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/example/tmtvocab/internal/spaced_repetition"
	"github.com/example/tmtvocab/pkg/models"
)

// Repository persists progress records. Implemented by
// database.ProgressRepository.
type Repository interface {
	LoadAll() (map[string]models.Progress, error)
	Upsert(p *models.Progress) error
	UpsertAll(progress map[string]models.Progress) error
}

// Pusher receives the full snapshot after each local mutation so it can
// coalesce remote writes. Implemented by the sync debouncer.
type Pusher interface {
	ScheduleWrite(snapshot map[string]models.Progress)
}

// Store owns every progress record: an in-memory map written through to
// the repository. All methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	records map[string]models.Progress
	repo    Repository
	pusher  Pusher
	now     func() time.Time
}

// NewStore loads all persisted records and returns a ready store
func NewStore(repo Repository) (*Store, error) {
	records, err := repo.LoadAll()
	if err != nil {
		return nil, err
	}
	return &Store{
		records: records,
		repo:    repo,
		now:     time.Now,
	}, nil
}

// NewMemoryStore returns a store without persistence, used in tests
func NewMemoryStore() *Store {
	return &Store{
		records: make(map[string]models.Progress),
		now:     time.Now,
	}
}

// SetClock overrides the wall clock, used in tests
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AttachPusher wires the debounced remote push. Passing nil detaches it
// (local-only mode).
func (s *Store) AttachPusher(p Pusher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pusher = p
}

// Get returns the record for a word, or a fresh default (zero mastery,
// both timestamps now) when the word has never been touched. The default
// is not persisted until an actual mutation.
func (s *Store) Get(wordID string) models.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.records[wordID]; ok {
		return p
	}
	return models.NewProgress(wordID, s.now())
}

// RecordAnswer applies one answer outcome: derives the correct streak
// from the record's own counter, runs the review scheduler, and writes
// the updated record back.
func (s *Store) RecordAnswer(wordID string, isCorrect bool) models.Progress {
	s.mu.Lock()

	now := s.now()
	p, ok := s.records[wordID]
	if !ok {
		p = models.NewProgress(wordID, now)
	}

	// 连续答对次数：答对 +1，答错归零
	streak := 0
	if isCorrect {
		streak = p.CorrectCount + 1
	}

	result := spaced_repetition.ComputeNextReview(p.Mastery, isCorrect, streak, now)

	p.Mastery = result.NewMastery
	if isCorrect {
		p.CorrectCount++
	} else {
		p.WrongCount++
	}
	p.LastReviewed = now
	p.NextReview = result.NextReview
	p.UpdatedAt = now

	s.records[wordID] = p
	s.persistLocked(&p)
	s.notifyLocked()

	s.mu.Unlock()
	return p
}

// ToggleBookmark flips the bookmark flag without touching mastery or the
// review schedule
func (s *Store) ToggleBookmark(wordID string) models.Progress {
	s.mu.Lock()

	now := s.now()
	p, ok := s.records[wordID]
	if !ok {
		p = models.NewProgress(wordID, now)
	}
	p.IsBookmarked = !p.IsBookmarked
	p.UpdatedAt = now

	s.records[wordID] = p
	s.persistLocked(&p)
	s.notifyLocked()

	s.mu.Unlock()
	return p
}

// Bookmarked returns the ids of all bookmarked words
func (s *Store) Bookmarked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, p := range s.records {
		if p.IsBookmarked {
			ids = append(ids, id)
		}
	}
	return ids
}

// DueForReview returns the ids of words whose review time has passed.
// Zero-mastery words are never due: they have not been successfully
// studied yet, so there is nothing to re-review.
func (s *Store) DueForReview(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, p := range s.records {
		if p.Mastery > 0 && spaced_repetition.NeedsReview(p.NextReview, now) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Records returns a copy of all records as a slice
func (s *Store) Records() []models.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]models.Progress, 0, len(s.records))
	for _, p := range s.records {
		records = append(records, p)
	}
	return records
}

// Snapshot returns a copy of the full progress map
func (s *Store) Snapshot() map[string]models.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string]models.Progress, len(s.records))
	for id, p := range s.records {
		snapshot[id] = p
	}
	return snapshot
}

// ReplaceAll installs a merged progress map after a sync and persists it.
// It does not schedule a remote push; the reconciler pushes the merge
// result itself.
func (s *Store) ReplaceAll(merged map[string]models.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make(map[string]models.Progress, len(merged))
	for id, p := range merged {
		records[id] = p
	}
	s.records = records

	if s.repo != nil {
		return s.repo.UpsertAll(records)
	}
	return nil
}

// TotalWordsLearned counts words with mastery above zero
func (s *Store) TotalWordsLearned() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, p := range s.records {
		if p.Mastery > 0 {
			count++
		}
	}
	return count
}

// LearnedToday counts words reviewed on the current calendar day that
// have mastery above zero
func (s *Store) LearnedToday(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	y, m, d := now.Date()
	count := 0
	for _, p := range s.records {
		ry, rm, rd := p.LastReviewed.Date()
		if p.Mastery > 0 && ry == y && rm == m && rd == d {
			count++
		}
	}
	return count
}

// OverallMastery averages mastery over the whole catalog: words never
// answered count as zero. totalWords is the catalog size; a record map
// larger than the catalog (stale ids) still divides by the larger count.
func (s *Store) OverallMastery(totalWords int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	denom := totalWords
	if len(s.records) > denom {
		denom = len(s.records)
	}
	if denom == 0 {
		return 0
	}

	sum := 0
	for _, p := range s.records {
		sum += p.Mastery
	}
	return int(math.Round(float64(sum) / float64(denom)))
}

// StreakDays counts consecutive calendar days with at least one review,
// ending today
func (s *Store) StreakDays(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	reviewed := make(map[string]bool)
	for _, p := range s.records {
		reviewed[p.LastReviewed.Format("2006-01-02")] = true
	}

	streak := 0
	for day := now; reviewed[day.Format("2006-01-02")]; day = day.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

func (s *Store) persistLocked(p *models.Progress) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Upsert(p); err != nil {
		// Keep the in-memory record; the next successful write or sync
		// will carry it.
		log.Printf("Error persisting progress for %s: %v", p.WordID, err)
	}
}

func (s *Store) notifyLocked() {
	if s.pusher == nil {
		return
	}
	snapshot := make(map[string]models.Progress, len(s.records))
	for id, p := range s.records {
		snapshot[id] = p
	}
	s.pusher.ScheduleWrite(snapshot)
}
