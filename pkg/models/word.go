package models

import (
	"fmt"
	"strings"
	"time"
)

// Category is a TMT topic tag for a word
type Category string

const (
	CategoryEarnings      Category = "earnings"      // 财报与估值
	CategoryAIML          Category = "ai-ml"         // AI/ML技术
	CategorySemiconductor Category = "semiconductor" // 半导体供应链
	CategoryCloudSaaS     Category = "cloud-saas"    // 云计算/SaaS
	CategoryM7            Category = "m7"            // M7公司业务
	CategoryConference    Category = "conference"    // 电话会议/研报

	// CategoryAll is the wildcard filter value, never stored on a word
	CategoryAll Category = "all"
)

// Categories lists every valid word category
var Categories = []Category{
	CategoryEarnings,
	CategoryAIML,
	CategorySemiconductor,
	CategoryCloudSaaS,
	CategoryM7,
	CategoryConference,
}

// CategoryNames maps categories to their Chinese display names
var CategoryNames = map[Category]string{
	CategoryEarnings:      "财报与估值",
	CategoryAIML:          "AI/ML技术",
	CategorySemiconductor: "半导体供应链",
	CategoryCloudSaaS:     "云计算/SaaS",
	CategoryM7:            "M7公司业务",
	CategoryConference:    "电话会议/研报",
}

// IsValid reports whether c is one of the fixed word categories
func (c Category) IsValid() bool {
	_, ok := CategoryNames[c]
	return ok
}

// Difficulty levels for a word
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Word sources
const (
	SourceStatic    = "static"    // bundled vocabulary
	SourceGenerated = "generated" // produced by the AI collaborator
)

// Word represents a TMT vocabulary entry to be learned
type Word struct {
	ID            string    `json:"id" db:"id"`
	Word          string    `json:"word" db:"word"`
	Pronunciation string    `json:"pronunciation" db:"pronunciation"`
	PartOfSpeech  string    `json:"partOfSpeech" db:"part_of_speech"`
	Definition    string    `json:"definition" db:"definition"`
	DefinitionCn  string    `json:"definitionCn" db:"definition_cn"` // 中文释义
	Example       string    `json:"example" db:"example"`
	ExampleCn     string    `json:"exampleCn" db:"example_cn"` // 例句翻译
	Context       string    `json:"context" db:"context"`      // 使用场景和补充说明
	Category      Category  `json:"category" db:"category"`
	Difficulty    string    `json:"difficulty" db:"difficulty"`
	Source        string    `json:"source" db:"source"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Normalized returns the word text lowered and trimmed, used for
// deduplication across the static and generated pools.
func (w *Word) Normalized() string {
	return strings.ToLower(strings.TrimSpace(w.Word))
}

// Validate checks that a word carries the fields the engine relies on.
// Applied to every word coming back from the generation collaborator.
func (w *Word) Validate() error {
	if strings.TrimSpace(w.Word) == "" {
		return fmt.Errorf("word text is empty")
	}
	if w.Definition == "" && w.DefinitionCn == "" {
		return fmt.Errorf("word %q has no definition", w.Word)
	}
	if !w.Category.IsValid() {
		return fmt.Errorf("word %q has unknown category %q", w.Word, w.Category)
	}
	switch w.Difficulty {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
	default:
		return fmt.Errorf("word %q has unknown difficulty %q", w.Word, w.Difficulty)
	}
	return nil
}
