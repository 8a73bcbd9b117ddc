package vocabulary

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/example/tmtvocab/pkg/models"
)

// WordRepository persists words. Implemented by database.WordRepository.
type WordRepository interface {
	GetAll() ([]models.Word, error)
	BulkCreate(words []models.Word) error
}

// Generator produces new words on demand. Implemented by ai.DeepSeek.
type Generator interface {
	GenerateWords(ctx context.Context, category models.Category, count int, excludeWords []string) ([]models.Word, error)
}

// DefaultGenerateCount is how many words one expansion requests
const DefaultGenerateCount = 10

// Catalog owns the word pool: the bundled static set plus every
// AI-generated word accumulated so far. Words are immutable once added
// and deduplicated by normalized text across both sources.
type Catalog struct {
	mu        sync.RWMutex
	words     []models.Word
	byNorm    map[string]bool
	repo      WordRepository
	generator Generator
}

// NewCatalog loads the stored pool. generator may be nil, in which case
// GenerateMore always fails gracefully.
func NewCatalog(repo WordRepository, generator Generator) (*Catalog, error) {
	words, err := repo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary: %v", err)
	}

	byNorm := make(map[string]bool, len(words))
	for i := range words {
		byNorm[words[i].Normalized()] = true
	}

	return &Catalog{
		words:     words,
		byNorm:    byNorm,
		repo:      repo,
		generator: generator,
	}, nil
}

// All returns a copy of the full pool
func (c *Catalog) All() []models.Word {
	c.mu.RLock()
	defer c.mu.RUnlock()

	words := make([]models.Word, len(c.words))
	copy(words, c.words)
	return words
}

// ByCategory returns the pool filtered by category; CategoryAll returns
// everything
func (c *Catalog) ByCategory(category models.Category) []models.Word {
	if category == models.CategoryAll || category == "" {
		return c.All()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var words []models.Word
	for _, w := range c.words {
		if w.Category == category {
			words = append(words, w)
		}
	}
	return words
}

// Get returns a word by id
func (c *Catalog) Get(id string) (models.Word, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, w := range c.words {
		if w.ID == id {
			return w, true
		}
	}
	return models.Word{}, false
}

// Count returns the pool size
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.words)
}

// WordTexts returns every word text in the pool, used as the generation
// exclude list
func (c *Catalog) WordTexts() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	texts := make([]string, 0, len(c.words))
	for _, w := range c.words {
		texts = append(texts, w.Word)
	}
	return texts
}

// AddGenerated merges freshly generated words into the pool, discarding
// any whose normalized text already exists, and persists the survivors.
// Returns the words that actually entered the pool.
func (c *Catalog) AddGenerated(words []models.Word) []models.Word {
	c.mu.Lock()
	defer c.mu.Unlock()

	var added []models.Word
	for _, w := range words {
		norm := w.Normalized()
		if norm == "" || c.byNorm[norm] {
			continue
		}
		w.Source = models.SourceGenerated
		c.words = append(c.words, w)
		c.byNorm[norm] = true
		added = append(added, w)
	}

	if len(added) > 0 && c.repo != nil {
		if err := c.repo.BulkCreate(added); err != nil {
			// Pool keeps the words in memory for this run; they will be
			// regenerated if the process restarts before a later save.
			log.Printf("Error persisting %d generated words: %v", len(added), err)
		}
	}
	return added
}

// GenerateMore requests one batch of new words from the generation
// collaborator and merges it into the pool. Returns only the words that
// survived deduplication.
func (c *Catalog) GenerateMore(ctx context.Context, category models.Category) ([]models.Word, error) {
	if c.generator == nil {
		return nil, fmt.Errorf("word generation is not configured")
	}

	words, err := c.generator.GenerateWords(ctx, category, DefaultGenerateCount, c.WordTexts())
	if err != nil {
		return nil, fmt.Errorf("failed to generate words: %v", err)
	}

	added := c.AddGenerated(words)
	if len(added) == 0 {
		return nil, fmt.Errorf("generation produced no new words")
	}
	return added, nil
}
