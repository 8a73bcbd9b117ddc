package database

import (
	"fmt"
	"strings"

	"github.com/example/tmtvocab/pkg/models"
)

// WordRepository handles database operations for words
type WordRepository struct{}

// NewWordRepository creates a new repository instance
func NewWordRepository() *WordRepository {
	return &WordRepository{}
}

// GetAll returns all words, static and generated
func (r *WordRepository) GetAll() ([]models.Word, error) {
	var words []models.Word
	err := DB.Select(&words, "SELECT * FROM words ORDER BY word")
	if err != nil {
		return nil, fmt.Errorf("failed to get words: %v", err)
	}
	return words, nil
}

// GetByID returns a word by ID
func (r *WordRepository) GetByID(id string) (*models.Word, error) {
	var word models.Word
	err := DB.Get(&word, "SELECT * FROM words WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get word by ID: %v", err)
	}
	return &word, nil
}

// GetByCategory returns words for a specific category
func (r *WordRepository) GetByCategory(category models.Category) ([]models.Word, error) {
	var words []models.Word
	err := DB.Select(&words, "SELECT * FROM words WHERE category = $1 ORDER BY word", category)
	if err != nil {
		return nil, fmt.Errorf("failed to get words by category: %v", err)
	}
	return words, nil
}

// Create inserts a new word
func (r *WordRepository) Create(word *models.Word) error {
	query := `
		INSERT INTO words (
			id, word, pronunciation, part_of_speech, definition, definition_cn,
			example, example_cn, context, category, difficulty, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := DB.Exec(
		query,
		word.ID,
		word.Word,
		word.Pronunciation,
		word.PartOfSpeech,
		word.Definition,
		word.DefinitionCn,
		word.Example,
		word.ExampleCn,
		word.Context,
		word.Category,
		word.Difficulty,
		word.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to create word: %v", err)
	}
	return nil
}

// BulkCreate inserts several words in one transaction
func (r *WordRepository) BulkCreate(words []models.Word) error {
	if len(words) == 0 {
		return nil
	}

	tx, err := DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	query := `
		INSERT INTO words (
			id, word, pronunciation, part_of_speech, definition, definition_cn,
			example, example_cn, context, category, difficulty, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	for i := range words {
		w := &words[i]
		if _, err := tx.Exec(
			query,
			w.ID, w.Word, w.Pronunciation, w.PartOfSpeech, w.Definition, w.DefinitionCn,
			w.Example, w.ExampleCn, w.Context, w.Category, w.Difficulty, w.Source,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert word %q: %v", w.Word, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit words: %v", err)
	}
	return nil
}

// ExistingNormalizedWords returns the set of lowercase word texts already
// stored, used to deduplicate imports and AI generation results
func (r *WordRepository) ExistingNormalizedWords() (map[string]bool, error) {
	var texts []string
	err := DB.Select(&texts, "SELECT word FROM words")
	if err != nil {
		return nil, fmt.Errorf("failed to list word texts: %v", err)
	}

	existing := make(map[string]bool, len(texts))
	for _, t := range texts {
		existing[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return existing, nil
}

// Count returns the total number of stored words
func (r *WordRepository) Count() (int, error) {
	var count int
	err := DB.Get(&count, "SELECT COUNT(*) FROM words")
	if err != nil {
		return 0, fmt.Errorf("failed to count words: %v", err)
	}
	return count, nil
}
