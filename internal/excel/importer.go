package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/example/tmtvocab/internal/database"
	"github.com/example/tmtvocab/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath            string // Path to the Excel or CSV file
	WordColumn          string // Column with the English term
	PronunciationColumn string // Column with the pronunciation
	PartOfSpeechColumn  string // Column with the part of speech
	DefinitionColumn    string // Column with the English definition
	DefinitionCnColumn  string // Column with the Chinese definition
	ExampleColumn       string // Column with the example sentence
	ExampleCnColumn     string // Column with the example translation
	ContextColumn       string // Column with usage context
	CategoryColumn      string // Column with the category tag
	DifficultyColumn    string // Column with the difficulty level
	SheetName           string // Name of the sheet to import
	StartRow            int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:          "A",
		PronunciationColumn: "B",
		PartOfSpeechColumn:  "C",
		DefinitionColumn:    "D",
		DefinitionCnColumn:  "E",
		ExampleColumn:       "F",
		ExampleCnColumn:     "G",
		ContextColumn:       "H",
		CategoryColumn:      "I",
		DifficultyColumn:    "J",
		SheetName:           "Sheet1",
		StartRow:            2, // 默认跳过表头
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// ImportWords imports vocabulary from an Excel or CSV file into the
// word table. Rows whose word text already exists (case-insensitive)
// are skipped, so re-importing the same file is safe.
func ImportWords(config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	var rows [][]string
	var err error
	if ext == ".csv" {
		rows, err = readCSVRows(config.FilePath)
	} else {
		rows, err = readExcelRows(config)
	}
	if err != nil {
		return nil, err
	}

	wordRepo := database.NewWordRepository()
	existing, err := wordRepo.ExistingNormalizedWords()
	if err != nil {
		return nil, fmt.Errorf("failed to load existing words: %v", err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	var batch []models.Word

	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++

		word, err := rowToWord(row, config)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}

		// 已存在的词跳过, 包括本批次内的重复
		if existing[word.Normalized()] {
			result.Skipped++
			continue
		}
		existing[word.Normalized()] = true
		batch = append(batch, *word)
	}

	if err := wordRepo.BulkCreate(batch); err != nil {
		return nil, fmt.Errorf("failed to store imported words: %v", err)
	}
	result.Created = len(batch)

	return result, nil
}

// readExcelRows loads all rows from the configured sheet
func readExcelRows(config ImportConfig) ([][]string, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}
	return rows, nil
}

// readCSVRows loads all records from a CSV file
func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// rowToWord maps one spreadsheet row to a word entry
func rowToWord(row []string, config ImportConfig) (*models.Word, error) {
	cell := func(column string) string {
		if column == "" {
			return ""
		}
		if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	word := &models.Word{
		ID:            uuid.NewString(),
		Word:          cell(config.WordColumn),
		Pronunciation: cell(config.PronunciationColumn),
		PartOfSpeech:  cell(config.PartOfSpeechColumn),
		Definition:    cell(config.DefinitionColumn),
		DefinitionCn:  cell(config.DefinitionCnColumn),
		Example:       cell(config.ExampleColumn),
		ExampleCn:     cell(config.ExampleCnColumn),
		Context:       cell(config.ContextColumn),
		Category:      models.Category(strings.ToLower(cell(config.CategoryColumn))),
		Difficulty:    normalizeDifficulty(cell(config.DifficultyColumn)),
		Source:        models.SourceStatic,
	}

	if err := word.Validate(); err != nil {
		return nil, err
	}
	return word, nil
}

// normalizeDifficulty maps loose spreadsheet values to the fixed levels
func normalizeDifficulty(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner", "easy", "1":
		return models.DifficultyBeginner
	case "advanced", "hard", "3":
		return models.DifficultyAdvanced
	default:
		// 缺省按中级处理
		return models.DifficultyIntermediate
	}
}

// columnToIndex converts an Excel column letter to a zero-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
