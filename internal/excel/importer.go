package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/vocabdrill/internal/vocab"
	"github.com/xuri/excelize/v2"
)

var errSkipRow = errors.New("skipping row")

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath          string // Path to the Excel or CSV file
	WordColumn        string // Column with the word
	TranslationColumn string // Column with the translation
	CategoryColumn    string // Column with the category
	FavoriteColumn    string // Column with the favorite flag
	SheetName         string // Name of the sheet to import, first sheet when empty
	StartRow          int    // The row to start importing from (1-based index)
	Overwrite         bool   // Update translation and category of existing words
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:        "A",
		TranslationColumn: "B",
		CategoryColumn:    "C",
		FavoriteColumn:    "D",
		StartRow:          2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// ImportWords imports words from an Excel or CSV file into the store.
// New words start with zero score and streak, practiced at now.
func ImportWords(store *vocab.Store, config ImportConfig, now time.Time) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	if ext == ".csv" {
		return importFromCSV(store, config, now)
	}
	return importFromExcel(store, config, now)
}

func importFromExcel(store *vocab.Store, config ImportConfig, now time.Time) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		processRow(store, row, config, "", result, i+1, now)
	}
	return result, nil
}

// importFromCSV reads the same column layout as the Excel import. A row with
// only its first cell filled sets the category for the rows below it.
func importFromCSV(store *vocab.Store, config ImportConfig, now time.Time) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	result := &ImportResult{Errors: make([]string, 0)}
	rowNum := 0
	currentCategory := ""

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}

		rowNum++
		if rowNum < config.StartRow {
			continue
		}

		if isCategoryHeader(row) {
			currentCategory = strings.Trim(strings.TrimSpace(row[0]), "\"")
			continue
		}

		processRow(store, row, config, currentCategory, result, rowNum, now)
	}

	return result, nil
}

func isCategoryHeader(row []string) bool {
	if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
		return false
	}
	for _, cell := range row[1:] {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// processRow adds or updates a single word and records the outcome in result
func processRow(store *vocab.Store, row []string, config ImportConfig, defaultCategory string,
	result *ImportResult, rowNum int, now time.Time) {
	if isBlank(row) {
		return
	}
	result.TotalProcessed++

	word := cell(row, config.WordColumn)
	translation := cell(row, config.TranslationColumn)
	category := cell(row, config.CategoryColumn)
	if category == "" {
		category = defaultCategory
	}
	favorite := parseFavorite(cell(row, config.FavoriteColumn))

	if err := processWordData(store, cleanWord(word), cleanWord(translation), category, favorite, config, result, now); err != nil {
		if !errors.Is(err, errSkipRow) {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}
}

func processWordData(store *vocab.Store, word, translation, category string, favorite bool,
	config ImportConfig, result *ImportResult, now time.Time) error {
	if word == "" {
		return fmt.Errorf("word cannot be empty")
	}
	if translation == "" {
		return fmt.Errorf("translation cannot be empty")
	}

	if _, exists := store.Get(word); exists {
		if !config.Overwrite {
			result.Skipped++
			return errSkipRow
		}
		if err := store.SetTranslation(word, translation); err != nil {
			return err
		}
		if err := store.SetCategory(word, category); err != nil {
			return err
		}
		if favorite {
			if err := store.SetFavorite(word, true); err != nil {
				return err
			}
		}
		result.Updated++
		return nil
	}

	if _, err := store.Add(word, translation, category, now); err != nil {
		return fmt.Errorf("failed to add word: %w", err)
	}
	if favorite {
		if err := store.SetFavorite(word, true); err != nil {
			return err
		}
	}
	result.Created++
	return nil
}

// cleanWord drops extra information in parentheses, e.g. "go (went, gone)"
func cleanWord(word string) string {
	if i := strings.Index(word, "("); i > 0 {
		return strings.TrimSpace(word[:i])
	}
	return strings.TrimSpace(word)
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseFavorite(s string) bool {
	switch strings.ToLower(s) {
	case "1", "y", "yes", "true", "x", "*", "★":
		return true
	}
	return false
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
