package session

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/tmtvocab/pkg/models"
)

// State of a session run
type State string

const (
	StateIdle     State = "idle"
	StateActive   State = "active"
	StateComplete State = "complete"
)

// Sequencer errors
var (
	ErrNotActive          = errors.New("session is not active")
	ErrGenerationInFlight = errors.New("a word generation request is already in flight")
)

// DefaultGenerateTimeout bounds how long a session waits for the
// generation collaborator before treating the request as failed
const DefaultGenerateTimeout = 90 * time.Second

// WordSource supplies the word pool. Implemented by vocabulary.Catalog.
type WordSource interface {
	ByCategory(category models.Category) []models.Word
	GenerateMore(ctx context.Context, category models.Category) ([]models.Word, error)
}

// Recorder receives answer outcomes and knows which words are due.
// Implemented by progress.Store.
type Recorder interface {
	RecordAnswer(wordID string, isCorrect bool) models.Progress
	DueForReview(now time.Time) []string
}

// Advance is the outcome of answering a card: either the next word to
// present, or the completed session's summary.
type Advance struct {
	Word    *models.Word           `json:"word,omitempty"`
	Done    bool                   `json:"done"`
	Summary *models.SessionSummary `json:"summary,omitempty"`
}

// Sequencer drives one study run: it owns the session state, the set of
// seen words, and the FIFO retry queue of missed words, and decides what
// appears next. Safe for concurrent use; answers are applied in arrival
// order under the lock.
type Sequencer struct {
	mu       sync.Mutex
	state    State
	session  models.StudySession
	pool     []models.Word
	seen     map[string]bool
	retry    []string
	current  *models.Word
	source   WordSource
	recorder Recorder
	strategy PickStrategy
	rng      *rand.Rand
	now      func() time.Time

	generating bool
	genTimeout time.Duration
}

// NewSequencer creates an idle sequencer
func NewSequencer(source WordSource, recorder Recorder) *Sequencer {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Sequencer{
		state:      StateIdle,
		source:     source,
		recorder:   recorder,
		strategy:   NewMixedStrategy(rng),
		rng:        rng,
		now:        time.Now,
		genTimeout: DefaultGenerateTimeout,
	}
}

// SetStrategy replaces the pick strategy, used in tests and experiments
func (s *Sequencer) SetStrategy(strategy PickStrategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategy = strategy
}

// SetRand replaces the random source, used in tests
func (s *Sequencer) SetRand(rng *rand.Rand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rng
	s.strategy = NewMixedStrategy(rng)
}

// SetClock overrides the wall clock, used in tests
func (s *Sequencer) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Start begins a fresh run: cleared seen set and retry queue, zeroed
// counters, and a random first word from the filtered pool. In review
// mode the pool is the set of due words and an empty pool completes
// immediately; in other modes an empty pool triggers one generation
// attempt first.
func (s *Sequencer) Start(ctx context.Context, mode models.StudyMode, category models.Category) (*Advance, error) {
	s.mu.Lock()

	now := s.now()
	s.session = models.StudySession{
		ID:        uuid.NewString(),
		StartedAt: now,
		Mode:      mode,
		Category:  category,
	}
	s.seen = make(map[string]bool)
	s.retry = nil
	s.current = nil
	s.pool = s.buildPool(mode, category, now)

	if len(s.pool) == 0 {
		if mode == models.ModeReview {
			// nothing due: a normal terminal state, not an error
			return s.completeLocked(), nil
		}
		return s.generateAndPresentLocked(ctx)
	}

	word := s.pool[s.rng.Intn(len(s.pool))]
	s.seen[word.ID] = true
	s.current = &word
	s.state = StateActive
	s.mu.Unlock()

	return &Advance{Word: &word}, nil
}

// Answer records one outcome for the current word and advances the run.
// Generation failures never lose recorded progress: the answer is stored
// before the sequencer looks for the next word.
func (s *Sequencer) Answer(ctx context.Context, isCorrect bool) (*Advance, error) {
	s.mu.Lock()

	if s.state != StateActive || s.current == nil {
		s.mu.Unlock()
		return nil, ErrNotActive
	}

	current := *s.current

	s.session.WordsStudied++
	if isCorrect {
		s.session.CorrectAnswers++
	} else {
		s.session.WrongAnswers++
	}
	s.recorder.RecordAnswer(current.ID, isCorrect)

	if !isCorrect {
		s.retry = append(s.retry, current.ID)
	}

	if next := s.strategy.PickNext(s.pool, s.seen, &s.retry); next != nil {
		s.seen[next.ID] = true
		s.current = next
		s.mu.Unlock()
		return &Advance{Word: next}, nil
	}

	if s.session.Mode == models.ModeReview {
		// review mode never calls generation
		return s.completeLocked(), nil
	}

	return s.generateAndPresentLocked(ctx)
}

// Session returns a copy of the current session state
func (s *Sequencer) Session() models.StudySession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Current returns the word being presented, nil when none
func (s *Sequencer) Current() *models.Word {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	word := *s.current
	return &word
}

// State returns the sequencer state
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Summary returns the session summary so far
func (s *Sequencer) Summary() models.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Summarize()
}

// buildPool assembles the word pool for a run. Caller holds the lock.
func (s *Sequencer) buildPool(mode models.StudyMode, category models.Category, now time.Time) []models.Word {
	if mode != models.ModeReview {
		return s.source.ByCategory(category)
	}

	due := make(map[string]bool)
	for _, id := range s.recorder.DueForReview(now) {
		due[id] = true
	}

	var pool []models.Word
	for _, w := range s.source.ByCategory(models.CategoryAll) {
		if due[w.ID] {
			pool = append(pool, w)
		}
	}
	return pool
}

// completeLocked transitions to Complete and returns the final advance.
// Caller holds the lock; it is released here.
func (s *Sequencer) completeLocked() *Advance {
	s.state = StateComplete
	s.current = nil
	summary := s.session.Summarize()
	s.mu.Unlock()
	return &Advance{Done: true, Summary: &summary}
}

// generateAndPresentLocked asks the collaborator for more words and
// presents the first new one. At most one generation call is outstanding;
// a concurrent caller is refused rather than doubled. The lock is held on
// entry and released before the network call.
func (s *Sequencer) generateAndPresentLocked(ctx context.Context) (*Advance, error) {
	if s.generating {
		s.mu.Unlock()
		return nil, ErrGenerationInFlight
	}
	s.generating = true
	s.current = nil
	sessionID := s.session.ID
	category := s.session.Category
	timeout := s.genTimeout
	s.mu.Unlock()

	genCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	words, err := s.source.GenerateMore(genCtx, category)

	s.mu.Lock()
	s.generating = false

	// the run was restarted while the request was in flight; the new
	// words stay in the catalog but this result has no session to serve
	if s.session.ID != sessionID {
		s.mu.Unlock()
		return nil, ErrNotActive
	}

	if err != nil || len(words) == 0 {
		if err != nil {
			log.Printf("Word generation failed, ending session %s: %v", s.session.ID, err)
		}
		return s.completeLocked(), nil
	}

	s.pool = append(s.pool, words...)
	word := words[0]
	s.seen[word.ID] = true
	s.current = &word
	s.state = StateActive
	s.mu.Unlock()

	return &Advance{Word: &word}, nil
}
