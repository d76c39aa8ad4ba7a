package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/example/vocabdrill/pkg/models"
)

// FileStorage keeps the vocabulary in a single JSON object keyed by word.
// It reads files written by older versions and always writes the current layout.
type FileStorage struct {
	Path string
}

func New(path string) *FileStorage {
	return &FileStorage{Path: path}
}

// Load reads the vocabulary file. A missing file is created empty.
func (f *FileStorage) Load(ctx context.Context) (map[string]models.WordRecord, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := f.Save(ctx, nil); err != nil {
			return nil, err
		}
		return map[string]models.WordRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}

	var raw map[string]models.RawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}

	records := make(map[string]models.WordRecord, len(raw))
	for word, r := range raw {
		records[word] = models.MigrateRecord(r)
	}
	return records, nil
}

// Save overwrites the vocabulary file with the given records.
func (f *FileStorage) Save(ctx context.Context, records map[string]models.WordRecord) error {
	raw := make(map[string]models.RawRecord, len(records))
	for word, rec := range records {
		raw[word] = rec.ToRaw()
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode vocabulary: %w", err)
	}

	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(f.Path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	return nil
}
