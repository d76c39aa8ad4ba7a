package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/vocabdrill/internal/vocab"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Sheet1"

var exportHeader = []string{"word", "translation", "category", "favorite", "score", "streak", "last_practiced"}

// createFile opens the CSV export target. Tests replace it.
var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// ExportWords writes every word of the store to an Excel or CSV file,
// in the column layout read by ImportWords.
func ExportWords(store *vocab.Store, path string) (int, error) {
	rows := exportRows(store)

	var err error
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		err = exportToCSV(rows, path)
	} else {
		err = exportToExcel(rows, path)
	}
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func exportRows(store *vocab.Store) [][]string {
	rows := make([][]string, 0, store.Len())
	for _, word := range store.Keys() {
		rec, _ := store.Get(word)
		favorite := ""
		if rec.IsFavorite {
			favorite = "yes"
		}
		rows = append(rows, []string{
			word,
			rec.Translation,
			rec.Category,
			favorite,
			strconv.Itoa(rec.Score),
			strconv.Itoa(rec.Streak),
			strconv.FormatInt(rec.LastPracticed.Unix(), 10),
		})
	}
	return rows
}

func exportToExcel(rows [][]string, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheetRow(f, 1, exportHeader); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writeSheetRow(f, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, rowNum int, values []string) error {
	cellName, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(exportSheet, cellName, &row); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

func exportToCSV(rows [][]string, path string) (err error) {
	file, err := createFile(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() {
		// Close can report a write that failed on the way to disk.
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close CSV file: %w", closeErr)
		}
	}()

	w := csv.NewWriter(file)
	if err := w.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
