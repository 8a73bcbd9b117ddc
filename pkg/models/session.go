package models

import (
	"math"
	"time"
)

// StudyMode selects how a session presents words
type StudyMode string

const (
	ModeFlashcard StudyMode = "flashcard"
	ModeQuiz      StudyMode = "quiz"
	ModeReview    StudyMode = "review"
)

// IsValid reports whether m is a known study mode
func (m StudyMode) IsValid() bool {
	switch m {
	case ModeFlashcard, ModeQuiz, ModeReview:
		return true
	}
	return false
}

// StudySession is the ephemeral state of one study run. It is fully
// serializable and owned by the session sequencer; the UI gets it back
// by session id rather than through ambient globals.
type StudySession struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"startedAt"`
	Mode           StudyMode `json:"mode"`
	Category       Category  `json:"category"`
	WordsStudied   int       `json:"wordsStudied"`
	CorrectAnswers int       `json:"correctAnswers"`
	WrongAnswers   int       `json:"wrongAnswers"`
}

// SessionSummary is presented when a session completes
type SessionSummary struct {
	WordsStudied   int `json:"wordsStudied"`
	CorrectAnswers int `json:"correctAnswers"`
	WrongAnswers   int `json:"wrongAnswers"`
	Accuracy       int `json:"accuracy"` // percent, rounded
}

// Summarize computes the summary for a session
func (s *StudySession) Summarize() SessionSummary {
	summary := SessionSummary{
		WordsStudied:   s.WordsStudied,
		CorrectAnswers: s.CorrectAnswers,
		WrongAnswers:   s.WrongAnswers,
	}
	total := s.CorrectAnswers + s.WrongAnswers
	if total > 0 {
		summary.Accuracy = int(math.Round(float64(s.CorrectAnswers) / float64(total) * 100))
	}
	return summary
}
