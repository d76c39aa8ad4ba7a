package excel

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/vocabdrill/internal/vocab"
	"github.com/xuri/excelize/v2"
)

var importedAt = time.Unix(1700000000, 0)

func sampleStore(t *testing.T) *vocab.Store {
	t.Helper()
	s := vocab.NewStore()
	words := [][3]string{
		{"dog", "Hund", "animals"},
		{"cat", "Katze", "animals"},
		{"house", "Haus", ""},
	}
	for _, w := range words {
		if _, err := s.Add(w[0], w[1], w[2], importedAt); err != nil {
			t.Fatalf("add %s: %v", w[0], err)
		}
	}
	if err := s.SetFavorite("cat", true); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestExportImportRoundTrip(t *testing.T) {
	for _, ext := range []string{".xlsx", ".csv"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "words"+ext)
			n, err := ExportWords(sampleStore(t), path)
			if err != nil {
				t.Fatalf("export: %v", err)
			}
			if n != 3 {
				t.Errorf("expected 3 exported words, got %d", n)
			}

			target := vocab.NewStore()
			cfg := DefaultImportConfig()
			cfg.FilePath = path
			result, err := ImportWords(target, cfg, importedAt)
			if err != nil {
				t.Fatalf("import: %v", err)
			}
			if result.Created != 3 || result.TotalProcessed != 3 || len(result.Errors) != 0 {
				t.Fatalf("unexpected result %+v", result)
			}

			cat, ok := target.Get("cat")
			if !ok {
				t.Fatal("expected cat to be imported")
			}
			if cat.Translation != "Katze" || cat.Category != "animals" || !cat.IsFavorite {
				t.Errorf("unexpected record %+v", cat)
			}
			if cat.Score != 0 || !cat.LastPracticed.Equal(importedAt) {
				t.Errorf("expected fresh stats, got %+v", cat)
			}
		})
	}
}

func TestImportExcelSkipsAndReportsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Word", "Translation", "Category"},
		{"run (ran, run)", "laufen", "verbs"},
		{"dog", "Hund", ""},
		{"", "leer", ""},
		{"tree", "", ""},
	}
	for i, row := range rows {
		cellName, _ := excelize.CoordinatesToCellName(1, i+1)
		row := row
		if err := f.SetSheetRow("Sheet1", cellName, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	store := vocab.NewStore()
	if _, err := store.Add("dog", "Hund", "", importedAt); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	result, err := ImportWords(store, cfg, importedAt)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if result.Created != 1 || result.Skipped != 1 || len(result.Errors) != 2 {
		t.Errorf("unexpected result %+v", result)
	}
	run, ok := store.Get("run")
	if !ok || run.Translation != "laufen" || run.Category != "verbs" {
		t.Errorf("expected cleaned word run, got %+v", run)
	}
}

func TestImportCSVCategoryHeadersAndOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.csv")
	content := "word,translation\n" +
		"Animals,,\n" +
		"dog,Hund\n" +
		"cat,Katze,,yes\n" +
		"Home\n" +
		"house,Haus\n" +
		"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	store := vocab.NewStore()
	if _, err := store.Add("dog", "Hunt", "", importedAt); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	cfg.Overwrite = true
	result, err := ImportWords(store, cfg, importedAt)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Created != 2 || result.Updated != 1 {
		t.Errorf("unexpected result %+v", result)
	}

	dog, _ := store.Get("dog")
	if dog.Translation != "Hund" || dog.Category != "Animals" {
		t.Errorf("expected dog updated, got %+v", dog)
	}
	cat, _ := store.Get("cat")
	if cat.Category != "Animals" || !cat.IsFavorite {
		t.Errorf("unexpected cat %+v", cat)
	}
	house, _ := store.Get("house")
	if house.Category != "Home" {
		t.Errorf("unexpected house %+v", house)
	}
}

func TestColumnToIndex(t *testing.T) {
	tests := map[string]int{"A": 0, "b": 1, "Z": 25, "AA": 26, "AB": 27}
	for col, want := range tests {
		if got := columnToIndex(col); got != want {
			t.Errorf("columnToIndex(%q) = %d, want %d", col, got, want)
		}
	}
}

type failingCloser struct {
	bytes.Buffer
}

func (*failingCloser) Close() error { return errors.New("disk quota exceeded") }

func TestExportReportsCloseError(t *testing.T) {
	orig := createFile
	defer func() { createFile = orig }()
	out := &failingCloser{}
	createFile = func(string) (io.WriteCloser, error) { return out, nil }

	n, err := ExportWords(sampleStore(t), "words.csv")
	if err == nil {
		t.Fatal("expected close error")
	}
	if n != 0 {
		t.Errorf("expected no exported words on failure, got %d", n)
	}
	if out.Len() == 0 {
		t.Error("expected rows to be written before close")
	}
}
