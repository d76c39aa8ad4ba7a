package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/example/vocabdrill/internal/bot"
	"github.com/example/vocabdrill/internal/config"
	"github.com/example/vocabdrill/internal/database"
	"github.com/example/vocabdrill/internal/excel"
	"github.com/example/vocabdrill/internal/jsonstore"
	"github.com/example/vocabdrill/internal/logger"
	"github.com/example/vocabdrill/internal/practice"
	"github.com/example/vocabdrill/internal/quiz"
	"github.com/example/vocabdrill/internal/scheduler"
	"github.com/example/vocabdrill/internal/spaced_repetition"
	"github.com/example/vocabdrill/internal/terminal"
	"github.com/example/vocabdrill/internal/vocab"
	"github.com/jmoiron/sqlx"
)

const usage = `Usage: vocabdrill [flags] <command> [args]

Commands:
  menu                      interactive menu (default)
  practice [-n N] [-all]    run a practice session
  add [word translation [category]]
  remove [word...]
  favorite word [on|off]
  list                      show all words with their mastery
  reset [-yes]              set every score and streak back to zero
  import [-overwrite] [-sheet name] file.xlsx|file.csv
  export file.xlsx|file.csv
  stats                     vocabulary and session statistics
  bot                       run the Telegram bot with practice reminders

Flags:
`

type app struct {
	cfg     *config.Config
	log     *logger.Logger
	storage vocab.Storage
	db      *sqlx.DB
	results *database.ResultRepository
	store   *vocab.Store
	model   *spaced_repetition.Model
	term    *terminal.Presenter
	out     io.Writer
	color   bool
	now     func() time.Time
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("vocabdrill", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprint(out, usage)
		fs.PrintDefaults()
	}
	storageFlag := fs.String("storage", cfg.StorageType, "storage backend: json, sqlite or postgres")
	fileFlag := fs.String("file", cfg.VocabFile, "vocabulary file for json storage")
	dbFlag := fs.String("db", cfg.DBPath, "database file for sqlite storage")
	wordsFlag := fs.Int("words", cfg.Settings.NumPracticeWords, "number of words per practice session")
	modeFlag := fs.String("mode", string(cfg.Settings.PracticeMode), "question type: random, multipleChoice or trueFalse")
	colorFlag := fs.Bool("color", true, "use colors in the terminal")
	logFlag := fs.String("log", cfg.LogMode, "log mode: dev or prod")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.StorageType = strings.ToLower(*storageFlag)
	cfg.VocabFile = *fileFlag
	cfg.DBPath = *dbFlag
	cfg.Settings.NumPracticeWords = *wordsFlag
	cfg.LogMode = *logFlag
	mode, err := quiz.ParseMode(*modeFlag)
	if err != nil {
		return err
	}
	cfg.Settings.PracticeMode = mode
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	a := &app{
		cfg:   cfg,
		log:   log,
		model: cfg.Settings.Model(nil),
		term:  terminal.NewPresenter(in, out, *colorFlag),
		out:   out,
		color: *colorFlag,
		now:   time.Now,
	}
	if err := a.open(ctx); err != nil {
		return err
	}
	defer a.close()

	command := "menu"
	var rest []string
	if fs.NArg() > 0 {
		command, rest = fs.Arg(0), fs.Args()[1:]
	}

	switch command {
	case "menu":
		return a.menu(ctx)
	case "practice":
		return a.practiceCmd(ctx, rest)
	case "add":
		return a.addCmd(ctx, rest)
	case "remove":
		return a.removeCmd(ctx, rest)
	case "favorite":
		return a.favoriteCmd(ctx, rest)
	case "list":
		return a.list()
	case "reset":
		return a.resetCmd(ctx, rest)
	case "import":
		return a.importCmd(ctx, rest)
	case "export":
		return a.exportCmd(rest)
	case "stats":
		return a.stats(ctx)
	case "bot":
		return a.runBot(ctx)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// open connects the configured storage and loads the vocabulary
func (a *app) open(ctx context.Context) error {
	switch a.cfg.StorageType {
	case config.StorageJSON:
		a.storage = jsonstore.New(a.cfg.VocabFile)
	case config.StorageSQLite, config.StoragePostgres:
		driver, dsn := database.DriverSQLite, a.cfg.DBPath
		if a.cfg.StorageType == config.StoragePostgres {
			driver, dsn = database.DriverPostgres, a.cfg.DatabaseURL
		}
		db, err := database.Connect(driver, dsn)
		if err != nil {
			return err
		}
		a.db = db
		a.storage = database.NewVocabRepository(db)
		a.results = database.NewResultRepository(db)
	}

	store, err := vocab.Load(ctx, a.storage)
	if err != nil {
		return err
	}
	a.store = store
	a.log.Debug("vocabulary loaded", "storage", a.cfg.StorageType, "words", store.Len())
	return nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("failed to close database", "error", err)
		}
	}
}

func (a *app) save(ctx context.Context) error {
	return a.store.SaveTo(ctx, a.storage)
}

// practice runs one session. A failed save is retried once and the session
// continues where it stopped.
func (a *app) practice(ctx context.Context, cfg practice.SessionConfig) error {
	opts := []practice.Option{
		practice.WithStorage(a.storage),
		practice.WithLogger(a.log),
	}
	if a.results != nil {
		opts = append(opts, practice.WithRecorder(a.results))
	}
	session := practice.New(a.store, a.model, cfg, opts...)

	for {
		_, err := session.Run(ctx, a.term)
		if err == nil {
			return nil
		}
		if errors.Is(err, vocab.ErrEmptyVocabulary) {
			fmt.Fprintln(a.out, "The vocabulary is empty. Add some words first.")
			return nil
		}
		if !errors.Is(err, vocab.ErrPersistence) {
			return err
		}

		a.log.Warn("saving progress failed, retrying", "session_id", session.ID, "error", err)
		if retryErr := a.save(ctx); retryErr != nil {
			a.log.Error("retry failed, stopping practice", "session_id", session.ID, "error", retryErr)
			return retryErr
		}
		a.log.Info("saving progress succeeded on retry", "session_id", session.ID)
	}
}

func (a *app) practiceCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("practice", flag.ContinueOnError)
	fs.SetOutput(a.out)
	n := fs.Int("n", a.cfg.Settings.NumPracticeWords, "number of words")
	all := fs.Bool("all", false, "practice every word")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n <= 0 {
		return fmt.Errorf("practice: %w", spaced_repetition.ErrInvalidCount)
	}
	return a.practice(ctx, practice.SessionConfig{
		NumWords: *n,
		AllWords: *all,
		Mode:     a.cfg.Settings.PracticeMode,
	})
}

func (a *app) addWord(ctx context.Context, word, translation, category string) error {
	if _, err := a.store.Add(word, translation, category, a.now()); err != nil {
		return err
	}
	if err := a.save(ctx); err != nil {
		return err
	}
	a.log.Debug("word added", "word", word)
	return nil
}

func (a *app) addCmd(ctx context.Context, args []string) error {
	switch len(args) {
	case 0:
		return a.addInteractive(ctx)
	case 2, 3:
		category := ""
		if len(args) == 3 {
			category = args[2]
		}
		if err := a.addWord(ctx, args[0], args[1], category); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added %s = %s\n", args[0], args[1])
		return nil
	}
	return errors.New("usage: add [word translation [category]]")
}

// addInteractive asks for words until "0" or end of input
func (a *app) addInteractive(ctx context.Context) error {
	fmt.Fprintln(a.out, "Add words to the list. 0 = exit.")
	for {
		word, err := a.term.ReadLine("Word: ")
		if err != nil || practice.IsExit(word) {
			return nil
		}
		if strings.TrimSpace(word) == "" {
			continue
		}
		translation, err := a.term.ReadLine(word + " = ")
		if err != nil || practice.IsExit(translation) {
			return nil
		}
		if err := a.addWord(ctx, word, translation, ""); err != nil {
			if errors.Is(err, vocab.ErrPersistence) {
				return err
			}
			fmt.Fprintf(a.out, "Could not add %q: %v\n", word, err)
		}
	}
}

func (a *app) removeCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.removeInteractive(ctx)
	}
	for _, word := range args {
		if err := a.store.Remove(word); err != nil {
			return err
		}
	}
	if err := a.save(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %s\n", strings.Join(args, ", "))
	return nil
}

func (a *app) removeInteractive(ctx context.Context) error {
	fmt.Fprintln(a.out, "Remove words from the list. 0 = exit.")
	for {
		word, err := a.term.ReadLine("Remove: ")
		if err != nil || practice.IsExit(word) {
			return nil
		}
		if err := a.store.Remove(strings.TrimSpace(word)); err != nil {
			fmt.Fprintf(a.out, "%q is not in the list.\n", word)
			continue
		}
		if err := a.save(ctx); err != nil {
			return err
		}
	}
}

func (a *app) favoriteCmd(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errors.New("usage: favorite word [on|off]")
	}
	favorite := true
	if len(args) == 2 {
		switch strings.ToLower(args[1]) {
		case "on", "yes", "true":
		case "off", "no", "false":
			favorite = false
		default:
			return fmt.Errorf("favorite: expected on or off, got %q", args[1])
		}
	}
	if err := a.store.SetFavorite(args[0], favorite); err != nil {
		return err
	}
	return a.save(ctx)
}

func (a *app) list() error {
	return terminal.PrintWordList(a.out, a.model.Overview(a.store, a.now()), a.color)
}

func (a *app) resetCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	fs.SetOutput(a.out)
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		answer, err := a.term.ReadLine("Reset the score of every word? [y/N] ")
		if err != nil || !strings.EqualFold(strings.TrimSpace(answer), "y") {
			fmt.Fprintln(a.out, "Nothing changed.")
			return nil
		}
	}
	a.store.ResetStats()
	if err := a.save(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "All statistics have been reset.")
	return nil
}

func (a *app) importCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(a.out)
	overwrite := fs.Bool("overwrite", false, "update words that already exist")
	sheet := fs.String("sheet", "", "sheet to read, first sheet by default")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: import [-overwrite] [-sheet name] file")
	}

	cfg := excel.DefaultImportConfig()
	cfg.FilePath = fs.Arg(0)
	cfg.SheetName = *sheet
	cfg.Overwrite = *overwrite
	result, err := excel.ImportWords(a.store, cfg, a.now())
	if err != nil {
		return err
	}
	if err := a.save(ctx); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Processed %d rows: %d added, %d updated, %d skipped\n",
		result.TotalProcessed, result.Created, result.Updated, result.Skipped)
	for _, e := range result.Errors {
		fmt.Fprintln(a.out, "  "+e)
	}
	a.log.Info("words imported", "file", cfg.FilePath, "created", result.Created, "errors", len(result.Errors))
	return nil
}

func (a *app) exportCmd(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: export file")
	}
	n, err := excel.ExportWords(a.store, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported %d words to %s\n", n, args[0])
	return nil
}

func (a *app) stats(ctx context.Context) error {
	words := a.model.Overview(a.store, a.now())
	bands := make(map[spaced_repetition.Band]int)
	due := 0
	for _, ws := range words {
		bands[ws.Band]++
		if ws.Due {
			due++
		}
	}

	fmt.Fprintf(a.out, "Words: %d (due: %d)\n", len(words), due)
	for _, band := range []spaced_repetition.Band{
		spaced_repetition.BandWeak,
		spaced_repetition.BandLearning,
		spaced_repetition.BandGood,
		spaced_repetition.BandStrong,
		spaced_repetition.BandMastered,
	} {
		fmt.Fprintf(a.out, "  %-9s %d\n", band, bands[band])
	}
	if categories := a.store.Categories(); len(categories) > 0 {
		fmt.Fprintf(a.out, "Categories: %s\n", strings.Join(categories, ", "))
	}

	if a.results == nil {
		return nil
	}
	totals, err := a.results.Totals(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Sessions: %d, %d correct, %d wrong (%.0f%%)\n",
		totals.Sessions, totals.Correct, totals.Wrong, totals.Accuracy()*100)

	recent, err := a.results.Recent(ctx, 5)
	if err != nil {
		return err
	}
	for _, r := range recent {
		status := ""
		if r.Aborted {
			status = " (stopped)"
		}
		fmt.Fprintf(a.out, "  %s  %d/%d correct%s\n",
			r.FinishedAt.Format("2006-01-02 15:04"), r.CorrectWords, r.CorrectWords+r.WrongWords, status)
	}
	return nil
}

// menu is the interactive main menu
func (a *app) menu(ctx context.Context) error {
	for {
		if err := a.list(); err != nil {
			return err
		}
		fmt.Fprint(a.out, `
Let's burn some vocab into your brain!
  1. Add words        3. Practice
  2. Remove words     4. Reset stats
  0. Exit
`)
		choice, err := a.term.ReadLine(": ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch strings.TrimSpace(choice) {
		case "1":
			err = a.addInteractive(ctx)
		case "2":
			err = a.removeInteractive(ctx)
		case "3":
			err = a.practice(ctx, practice.SessionConfig{
				NumWords: a.cfg.Settings.NumPracticeWords,
				Mode:     a.cfg.Settings.PracticeMode,
			})
		case "4":
			err = a.resetCmd(ctx, nil)
		case "0", "q", "exit":
			return nil
		default:
			fmt.Fprintln(a.out, "Invalid choice.")
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (a *app) runBot(ctx context.Context) error {
	ctx, stop := shutdownContext(ctx)
	defer stop()

	api, err := bot.NewAPI(a.cfg.TelegramToken)
	if err != nil {
		return err
	}
	a.log.Info("authorized on telegram", "account", api.Self.UserName)

	deps := bot.Deps{
		Store:    a.store,
		Storage:  a.storage,
		Model:    a.model,
		Settings: a.cfg.Settings,
		Logger:   a.log,
	}
	if a.results != nil {
		deps.Results = a.results
	}
	botCfg := bot.DefaultConfig()
	botCfg.ChatID = a.cfg.TelegramChatID
	b := bot.New(api, botCfg, deps)

	reminders := scheduler.New(a.storage, a.cfg.Settings.Model(nil), b, scheduler.Config{
		Interval:  a.cfg.ReminderInterval,
		StartHour: a.cfg.NotificationStartHour,
		EndHour:   a.cfg.NotificationEndHour,
	}, a.log.With("component", "scheduler"))
	if err := reminders.Start(); err != nil {
		return err
	}
	defer reminders.Stop()

	return b.Run(ctx)
}
