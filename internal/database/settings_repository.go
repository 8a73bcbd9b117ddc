package database

import (
	"database/sql"
	"fmt"

	"github.com/example/tmtvocab/pkg/models"
)

const selectedCategoryKey = "selected_category"

// SettingsRepository stores small persisted UI state
type SettingsRepository struct{}

// NewSettingsRepository creates a new repository instance
func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

// GetSelectedCategory returns the last category filter the user picked,
// or "all" when none was ever saved
func (r *SettingsRepository) GetSelectedCategory() (models.Category, error) {
	var value string
	err := DB.Get(&value, "SELECT value FROM settings WHERE key = $1", selectedCategoryKey)
	if err == sql.ErrNoRows {
		return models.CategoryAll, nil
	}
	if err != nil {
		return models.CategoryAll, fmt.Errorf("failed to get selected category: %v", err)
	}

	category := models.Category(value)
	if category != models.CategoryAll && !category.IsValid() {
		return models.CategoryAll, nil
	}
	return category, nil
}

// SetSelectedCategory persists the category filter
func (r *SettingsRepository) SetSelectedCategory(category models.Category) error {
	query := `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := DB.Exec(query, selectedCategoryKey, string(category)); err != nil {
		return fmt.Errorf("failed to save selected category: %v", err)
	}
	return nil
}
