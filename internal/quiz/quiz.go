package quiz

import (
	"fmt"
	"math/rand"

	"github.com/example/tmtvocab/pkg/models"
)

// OptionCount is the number of choices per question, one correct and
// three distractors
const OptionCount = 4

// Question is a single multiple-choice quiz item: pick the Chinese
// definition matching the English word.
type Question struct {
	Word         models.Word `json:"word"`
	Options      []string    `json:"options"`
	CorrectIndex int         `json:"correctIndex"`
}

// BuildQuestion assembles a question for word, drawing distractor
// definitions from pool. Distractors from the same category are
// preferred so the choices stay plausible. The pool must contain at
// least three other words with a usable definition.
func BuildQuestion(word models.Word, pool []models.Word, rng *rand.Rand) (*Question, error) {
	correct := definitionOf(&word)
	if correct == "" {
		return nil, fmt.Errorf("word %q has no definition to quiz on", word.Word)
	}

	distractors := pickDistractors(word, pool, OptionCount-1, rng)
	if len(distractors) < OptionCount-1 {
		return nil, fmt.Errorf("not enough words to build a quiz question (have %d distractors)", len(distractors))
	}

	options := append(distractors, correct)
	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	correctIndex := -1
	for i, opt := range options {
		if opt == correct {
			correctIndex = i
			break
		}
	}

	return &Question{
		Word:         word,
		Options:      options,
		CorrectIndex: correctIndex,
	}, nil
}

// pickDistractors selects up to count distinct definitions from other
// words, preferring the same category
func pickDistractors(word models.Word, pool []models.Word, count int, rng *rand.Rand) []string {
	correct := definitionOf(&word)

	var sameCategory, others []string
	used := map[string]bool{correct: true}

	shuffled := make([]models.Word, len(pool))
	copy(shuffled, pool)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for _, w := range shuffled {
		if w.ID == word.ID {
			continue
		}
		def := definitionOf(&w)
		if def == "" || used[def] {
			continue
		}
		used[def] = true
		if w.Category == word.Category {
			sameCategory = append(sameCategory, def)
		} else {
			others = append(others, def)
		}
	}

	distractors := sameCategory
	if len(distractors) > count {
		distractors = distractors[:count]
	}
	for _, def := range others {
		if len(distractors) >= count {
			break
		}
		distractors = append(distractors, def)
	}
	return distractors
}

// definitionOf prefers the Chinese definition, falling back to English
func definitionOf(w *models.Word) string {
	if w.DefinitionCn != "" {
		return w.DefinitionCn
	}
	return w.Definition
}
