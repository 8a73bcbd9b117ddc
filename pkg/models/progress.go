package models

import "time"

// Progress tracks how well a single word is known. One record per word
// ever answered or bookmarked; records are never deleted.
type Progress struct {
	WordID       string    `json:"wordId" db:"word_id"`
	Mastery      int       `json:"mastery" db:"mastery"` // 0-100 掌握程度
	CorrectCount int       `json:"correctCount" db:"correct_count"`
	WrongCount   int       `json:"wrongCount" db:"wrong_count"`
	LastReviewed time.Time `json:"lastReviewed" db:"last_reviewed"`
	NextReview   time.Time `json:"nextReview" db:"next_review"`
	IsBookmarked bool      `json:"isBookmarked" db:"is_bookmarked"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NewProgress returns the default record for a word that has never been
// answered: zero mastery, both timestamps set to now, not bookmarked.
func NewProgress(wordID string, now time.Time) Progress {
	return Progress{
		WordID:       wordID,
		Mastery:      0,
		LastReviewed: now,
		NextReview:   now,
		UpdatedAt:    now,
	}
}

// Normalize clamps a record into its valid range. Remote snapshots have
// historically arrived with missing or out-of-range fields, so every
// record crossing the sync boundary passes through here before merging.
func (p *Progress) Normalize(wordID string, now time.Time) {
	if p.WordID == "" {
		p.WordID = wordID
	}
	if p.Mastery < 0 {
		p.Mastery = 0
	}
	if p.Mastery > 100 {
		p.Mastery = 100
	}
	if p.CorrectCount < 0 {
		p.CorrectCount = 0
	}
	if p.WrongCount < 0 {
		p.WrongCount = 0
	}
	if p.LastReviewed.IsZero() {
		p.LastReviewed = now
	}
	if p.NextReview.IsZero() {
		p.NextReview = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.LastReviewed
	}
}
