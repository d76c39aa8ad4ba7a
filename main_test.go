package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/example/vocabdrill/internal/jsonstore"
)

func runCLI(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), append([]string{"-color=false", "-log", "prod"}, args...), strings.NewReader(input), &out)
	return out.String(), err
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"VOCAB_STORAGE", "VOCAB_FILE", "DB_PATH", "NUM_PRACTICE_WORDS", "PRACTICE_MODE", "MAX_SCORE", "MAX_STREAK", "PRACTICE_COOLDOWN"} {
		t.Setenv(k, "")
	}
}

func TestAddListRemove(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), "vocab.json")

	out, err := runCLI(t, "", "-file", file, "add", "dog", "Hund", "animals")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Added dog = Hund") {
		t.Errorf("unexpected output %q", out)
	}

	out, err = runCLI(t, "", "-file", file, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "dog") || !strings.Contains(out, "= Hund") || !strings.Contains(out, "animals") {
		t.Errorf("unexpected list %q", out)
	}

	if _, err := runCLI(t, "", "-file", file, "remove", "dog"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	records, err := jsonstore.New(file).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty vocabulary, got %v", records)
	}
}

func TestPracticeCommand(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), "vocab.json")
	if _, err := runCLI(t, "", "-file", file, "add", "dog", "Hund"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := runCLI(t, "\n1\n", "-file", file, "-mode", "multipleChoice", "practice")
	if err != nil {
		t.Fatalf("practice: %v", err)
	}
	if !strings.Contains(out, "Correct!") || !strings.Contains(out, "1 correct, 0 wrong of 1 words") {
		t.Errorf("unexpected output %q", out)
	}

	records, err := jsonstore.New(file).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rec := records["dog"]; rec.Score != 1 || rec.Streak != 1 {
		t.Errorf("expected saved progress, got %+v", rec)
	}
}

func TestPracticeEmptyVocabulary(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), "vocab.json")

	out, err := runCLI(t, "", "-file", file, "practice")
	if err != nil {
		t.Fatalf("practice: %v", err)
	}
	if !strings.Contains(out, "empty") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestResetCommand(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), "vocab.json")
	if _, err := runCLI(t, "", "-file", file, "add", "dog", "Hund"); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "\n1\n", "-file", file, "-mode", "multipleChoice", "practice"); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "n\n", "-file", file, "reset")
	if err != nil || !strings.Contains(out, "Nothing changed") {
		t.Fatalf("expected reset to be declined, got %q %v", out, err)
	}

	if _, err := runCLI(t, "", "-file", file, "reset", "-yes"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	records, err := jsonstore.New(file).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rec := records["dog"]; rec.Score != 0 || rec.Streak != 0 || rec.LastPracticed.Unix() != 0 {
		t.Errorf("expected reset record, got %+v", rec)
	}
}

func TestSQLiteExportImportAndStats(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	db := filepath.Join(dir, "vocab.db")
	sheet := filepath.Join(dir, "words.xlsx")

	for _, w := range [][]string{{"dog", "Hund"}, {"cat", "Katze"}} {
		if _, err := runCLI(t, "", "-storage", "sqlite", "-db", db, "add", w[0], w[1]); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	out, err := runCLI(t, "", "-storage", "sqlite", "-db", db, "export", sheet)
	if err != nil || !strings.Contains(out, "Exported 2 words") {
		t.Fatalf("export: %q %v", out, err)
	}

	other := filepath.Join(dir, "other.db")
	out, err = runCLI(t, "", "-storage", "sqlite", "-db", other, "import", sheet)
	if err != nil || !strings.Contains(out, "2 added") {
		t.Fatalf("import: %q %v", out, err)
	}

	if _, err := runCLI(t, "n\n", "-storage", "sqlite", "-db", other, "practice", "-n", "1"); err != nil {
		t.Fatalf("practice: %v", err)
	}
	out, err = runCLI(t, "", "-storage", "sqlite", "-db", other, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "Words: 2") || !strings.Contains(out, "Sessions: 1, 0 correct, 1 wrong") {
		t.Errorf("unexpected stats %q", out)
	}
}

func TestMenuExit(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), "vocab.json")

	out, err := runCLI(t, "0\n", "-file", file)
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	if !strings.Contains(out, "Let's burn some vocab into your brain!") {
		t.Errorf("menu not shown: %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), "vocab.json")

	if _, err := runCLI(t, "", "-file", file, "fly"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestShutdownContextCanceledBySignal(t *testing.T) {
	ctx, stop := shutdownContext(context.Background())
	defer stop()

	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("signal: %v", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled by SIGTERM")
	}
}

func TestShutdownContextFollowsParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := shutdownContext(parent)
	defer stop()

	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled with its parent")
	}
}
