package database

import (
	"fmt"

	"github.com/example/tmtvocab/pkg/models"
)

// ProgressRepository handles database operations for per-word progress
type ProgressRepository struct{}

// NewProgressRepository creates a new repository instance
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{}
}

// LoadAll returns the full progress map
func (r *ProgressRepository) LoadAll() (map[string]models.Progress, error) {
	var records []models.Progress
	err := DB.Select(&records, "SELECT * FROM user_progress")
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %v", err)
	}

	progress := make(map[string]models.Progress, len(records))
	for _, p := range records {
		progress[p.WordID] = p
	}
	return progress, nil
}

// Upsert creates or replaces the record for a word
func (r *ProgressRepository) Upsert(p *models.Progress) error {
	query := `
		INSERT INTO user_progress (
			word_id, mastery, correct_count, wrong_count,
			last_reviewed, next_review, is_bookmarked, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (word_id) DO UPDATE SET
			mastery = EXCLUDED.mastery,
			correct_count = EXCLUDED.correct_count,
			wrong_count = EXCLUDED.wrong_count,
			last_reviewed = EXCLUDED.last_reviewed,
			next_review = EXCLUDED.next_review,
			is_bookmarked = EXCLUDED.is_bookmarked,
			updated_at = EXCLUDED.updated_at
	`
	_, err := DB.Exec(
		query,
		p.WordID,
		p.Mastery,
		p.CorrectCount,
		p.WrongCount,
		p.LastReviewed,
		p.NextReview,
		p.IsBookmarked,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert progress for %s: %v", p.WordID, err)
	}
	return nil
}

// UpsertAll replaces records for every entry of the map in one transaction,
// used after a sync merge
func (r *ProgressRepository) UpsertAll(progress map[string]models.Progress) error {
	tx, err := DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	query := `
		INSERT INTO user_progress (
			word_id, mastery, correct_count, wrong_count,
			last_reviewed, next_review, is_bookmarked, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (word_id) DO UPDATE SET
			mastery = EXCLUDED.mastery,
			correct_count = EXCLUDED.correct_count,
			wrong_count = EXCLUDED.wrong_count,
			last_reviewed = EXCLUDED.last_reviewed,
			next_review = EXCLUDED.next_review,
			is_bookmarked = EXCLUDED.is_bookmarked,
			updated_at = EXCLUDED.updated_at
	`
	for _, p := range progress {
		if _, err := tx.Exec(
			query,
			p.WordID, p.Mastery, p.CorrectCount, p.WrongCount,
			p.LastReviewed, p.NextReview, p.IsBookmarked, p.UpdatedAt,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert progress for %s: %v", p.WordID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit progress: %v", err)
	}
	return nil
}
