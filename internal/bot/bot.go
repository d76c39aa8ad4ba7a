package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/example/vocabdrill/internal/config"
	"github.com/example/vocabdrill/internal/database"
	"github.com/example/vocabdrill/internal/logger"
	"github.com/example/vocabdrill/internal/practice"
	"github.com/example/vocabdrill/internal/spaced_repetition"
	"github.com/example/vocabdrill/internal/vocab"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var errNoChat = errors.New("no chat to send reminders to")

// API is the part of the Telegram client used by the bot
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// ResultStore keeps the practice history shown by /stats
type ResultStore interface {
	practice.ResultRecorder
	Totals(ctx context.Context) (database.ResultTotals, error)
}

// Deps are the collaborators the bot works with
type Deps struct {
	Store    *vocab.Store
	Storage  vocab.Storage
	Model    *spaced_repetition.Model
	Settings config.Settings
	Results  ResultStore // optional
	Logger   *logger.Logger
}

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// MainMenuButtons returns the buttons for the main menu
func MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🎯 Practice", CallbackData: "menu_practice"},
			{Text: "📚 Word list", CallbackData: "menu_list"},
		},
		{
			{Text: "📊 Statistics", CallbackData: "menu_stats"},
		},
	}
}

// activeSession is the practice session currently running in a chat
type activeSession struct {
	chatID    int64
	presenter *telegramPresenter
	cancel    context.CancelFunc
}

// Bot represents the Telegram bot application. It runs at most one practice
// session at a time; the vocabulary is only edited while no session runs.
type Bot struct {
	api  API
	cfg  *BotConfig
	deps Deps
	log  *logger.Logger
	now  func() time.Time

	mu         sync.Mutex
	session    *activeSession
	lastChatID int64
	wg         sync.WaitGroup
}

// NewAPI authorizes against Telegram with the given token
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	return api, nil
}

// New creates a new bot instance
func New(api API, cfg *BotConfig, deps Deps) *Bot {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	return &Bot{
		api:        api,
		cfg:        cfg,
		deps:       deps,
		log:        deps.Logger.With("component", "bot"),
		now:        time.Now,
		lastChatID: cfg.ChatID,
	}
}

// Run handles updates until ctx is canceled. A running practice session is
// stopped and waited for before Run returns.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.cfg.UpdateTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("bot started")
	defer func() {
		b.api.StopReceivingUpdates()
		b.stopSession()
		b.wg.Wait()
		b.log.Info("bot stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) allowed(chatID int64) bool {
	return b.cfg.ChatID == 0 || b.cfg.ChatID == chatID
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil && update.Message.Chat != nil {
		b.handleMessage(ctx, update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	if !b.allowed(chatID) {
		b.log.Warn("ignoring message from unknown chat", "chat_id", chatID)
		return
	}
	b.mu.Lock()
	b.lastChatID = chatID
	b.mu.Unlock()

	if !message.IsCommand() {
		if b.deliver(chatID, message.Text) {
			return
		}
		b.reply(chatID, "I don't understand. Use /help to see the commands.", true)
		return
	}

	command := message.Command()
	args := strings.TrimSpace(message.CommandArguments())

	switch command {
	case "start", "help", "menu":
		b.handleStartCommand(chatID)
		return
	case "exit":
		if !b.exitSession(chatID) {
			b.reply(chatID, "There is no practice session running.", true)
		}
		return
	}

	if b.sessionRunning() {
		b.reply(chatID, "Finish the practice first or stop it with /exit.", false)
		return
	}

	switch command {
	case "practice":
		b.handlePracticeCommand(ctx, chatID, args)
	case "list":
		b.handleListCommand(chatID)
	case "add":
		b.handleAddCommand(ctx, chatID, args)
	case "remove":
		b.handleRemoveCommand(ctx, chatID, args)
	case "stats":
		b.handleStatsCommand(ctx, chatID)
	case "reset":
		b.handleResetCommand(ctx, chatID, args)
	default:
		b.reply(chatID, "Unknown command. Use /help to see the commands.", true)
	}
}

// handleCallbackQuery handles callback queries from buttons
func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn("failed to answer callback", "error", err)
	}
	if callback.Message == nil || callback.Message.Chat == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	if !b.allowed(chatID) {
		return
	}

	if b.deliver(chatID, callback.Data) {
		return
	}
	if b.sessionRunning() {
		return
	}

	switch callback.Data {
	case "menu_practice":
		b.handlePracticeCommand(ctx, chatID, "")
	case "menu_list":
		b.handleListCommand(chatID)
	case "menu_stats":
		b.handleStatsCommand(ctx, chatID)
	}
}

// deliver passes input to the session running in chatID
func (b *Bot) deliver(chatID int64, input string) bool {
	b.mu.Lock()
	s := b.session
	b.mu.Unlock()

	if s == nil || s.chatID != chatID {
		return false
	}
	if !s.presenter.deliver(input) {
		b.log.Debug("dropping input for an answered prompt", "chat_id", chatID, "input", input)
	}
	return true
}

// exitSession stops the session running in chatID. Between two prompts there
// is nothing to answer, so the session is canceled instead.
func (b *Bot) exitSession(chatID int64) bool {
	b.mu.Lock()
	s := b.session
	b.mu.Unlock()

	if s == nil || s.chatID != chatID {
		return false
	}
	if !s.presenter.deliver("/exit") {
		s.cancel()
	}
	return true
}

func (b *Bot) sessionRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session != nil
}

func (b *Bot) stopSession() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session != nil {
		b.session.cancel()
	}
}

func (b *Bot) reply(chatID int64, text string, withMenu bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	if withMenu {
		msg.ReplyMarkup = createKeyboard(MainMenuButtons())
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) replyMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

// handleStartCommand handles the /start command
func (b *Bot) handleStartCommand(chatID int64) {
	welcomeText := `Welcome to vocabdrill! 🎓

Available commands:
/practice [n|all] - Start a practice session
/list - Show your words
/add word = translation [= category] - Add a word
/remove word - Remove a word
/stats - Show statistics
/reset confirm - Reset all scores
/exit - Stop the running practice`
	b.reply(chatID, welcomeText, true)
}

func (b *Bot) handlePracticeCommand(ctx context.Context, chatID int64, args string) {
	cfg := practice.SessionConfig{
		NumWords: b.deps.Settings.NumPracticeWords,
		Mode:     b.deps.Settings.PracticeMode,
	}
	switch {
	case args == "":
	case strings.EqualFold(args, "all"):
		cfg.AllWords = true
	default:
		n, err := strconv.Atoi(args)
		if err != nil || n <= 0 {
			b.reply(chatID, "Usage: /practice [number of words | all]", false)
			return
		}
		cfg.NumWords = n
	}

	opts := []practice.Option{
		practice.WithStorage(b.deps.Storage),
		practice.WithLogger(b.deps.Logger),
	}
	if b.deps.Results != nil {
		opts = append(opts, practice.WithRecorder(b.deps.Results))
	}
	session := practice.New(b.deps.Store, b.deps.Model, cfg, opts...)
	presenter := newTelegramPresenter(b.api, chatID)
	sessionCtx, cancel := context.WithCancel(ctx)

	b.mu.Lock()
	b.session = &activeSession{chatID: chatID, presenter: presenter, cancel: cancel}
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			cancel()
			b.mu.Lock()
			b.session = nil
			b.mu.Unlock()
		}()

		_, err := session.Run(sessionCtx, presenter)
		switch {
		case err == nil:
		case errors.Is(err, vocab.ErrEmptyVocabulary):
			b.reply(chatID, "Your vocabulary is empty. Add words with /add word = translation.", false)
		case errors.Is(err, vocab.ErrPersistence):
			b.log.Error("practice stopped on save failure", "session_id", session.ID, "error", err)
			b.reply(chatID, "⚠️ Could not save your progress. Practice stopped.", true)
		default:
			b.log.Error("practice session failed", "session_id", session.ID, "error", err)
		}
	}()
}

func (b *Bot) handleListCommand(chatID int64) {
	words := b.deps.Model.Overview(b.deps.Store, b.now())
	if len(words) == 0 {
		b.reply(chatID, "Your vocabulary is empty. Add words with /add word = translation.", false)
		return
	}

	var sb strings.Builder
	sb.WriteString("📚 *Your words*\n")
	for i, ws := range words {
		if i == b.cfg.ListLimit {
			fmt.Fprintf(&sb, "\n… and %d more", len(words)-i)
			break
		}
		mark := ""
		if ws.Record.IsFavorite {
			mark = "⭐ "
		}
		fmt.Fprintf(&sb, "\n%s%s %s = %s · %d",
			mark, bandIcon(ws.Band), escapeMarkdown(ws.Word), escapeMarkdown(ws.Record.Translation), ws.Effective)
	}
	b.replyMarkdown(chatID, sb.String())
}

func bandIcon(band spaced_repetition.Band) string {
	switch band {
	case spaced_repetition.BandWeak:
		return "🔴"
	case spaced_repetition.BandLearning:
		return "🟡"
	case spaced_repetition.BandGood:
		return "🟢"
	case spaced_repetition.BandStrong:
		return "🔵"
	}
	return "🏆"
}

// parseAddArgs reads "word = translation [= category]"
func parseAddArgs(args string) (word, translation, category string, ok bool) {
	parts := strings.SplitN(args, "=", 3)
	if len(parts) < 2 {
		return "", "", "", false
	}
	word = strings.TrimSpace(parts[0])
	translation = strings.TrimSpace(parts[1])
	if len(parts) == 3 {
		category = strings.TrimSpace(parts[2])
	}
	return word, translation, category, word != "" && translation != ""
}

func (b *Bot) handleAddCommand(ctx context.Context, chatID int64, args string) {
	word, translation, category, ok := parseAddArgs(args)
	if !ok {
		b.reply(chatID, "Usage: /add word = translation [= category]", false)
		return
	}

	if _, err := b.deps.Store.Add(word, translation, category, b.now()); err != nil {
		if errors.Is(err, vocab.ErrWordExists) {
			b.reply(chatID, fmt.Sprintf("%q is already in your vocabulary.", word), false)
			return
		}
		b.reply(chatID, fmt.Sprintf("Could not add %q: %v", word, err), false)
		return
	}
	if !b.save(ctx, chatID) {
		return
	}
	b.reply(chatID, fmt.Sprintf("Added %s = %s", word, translation), false)
}

func (b *Bot) handleRemoveCommand(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /remove word", false)
		return
	}
	if err := b.deps.Store.Remove(args); err != nil {
		b.reply(chatID, fmt.Sprintf("%q is not in your vocabulary.", args), false)
		return
	}
	if !b.save(ctx, chatID) {
		return
	}
	b.reply(chatID, fmt.Sprintf("Removed %s", args), false)
}

func (b *Bot) handleResetCommand(ctx context.Context, chatID int64, args string) {
	if args != "confirm" {
		b.reply(chatID, "This sets every score and streak back to zero. Send /reset confirm to continue.", false)
		return
	}
	b.deps.Store.ResetStats()
	if !b.save(ctx, chatID) {
		return
	}
	b.reply(chatID, "All statistics have been reset.", true)
}

// handleStatsCommand handles the /stats command
func (b *Bot) handleStatsCommand(ctx context.Context, chatID int64) {
	now := b.now()
	words := b.deps.Model.Overview(b.deps.Store, now)

	bands := make(map[spaced_repetition.Band]int)
	due := 0
	for _, ws := range words {
		bands[ws.Band]++
		if ws.Due {
			due++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Statistics*\n\nWords: %d\nDue for practice: %d\n", len(words), due)
	for _, band := range []spaced_repetition.Band{
		spaced_repetition.BandWeak,
		spaced_repetition.BandLearning,
		spaced_repetition.BandGood,
		spaced_repetition.BandStrong,
		spaced_repetition.BandMastered,
	} {
		fmt.Fprintf(&sb, "%s %s: %d\n", bandIcon(band), band, bands[band])
	}

	if b.deps.Results != nil {
		totals, err := b.deps.Results.Totals(ctx)
		if err != nil {
			b.log.Error("failed to get practice totals", "error", err)
		} else {
			fmt.Fprintf(&sb, "\nSessions: %d\nAnswers: %d correct, %d wrong (%.0f%%)",
				totals.Sessions, totals.Correct, totals.Wrong, totals.Accuracy()*100)
		}
	}
	b.replyMarkdown(chatID, sb.String())
}

// save persists the store and tells the user when that fails
func (b *Bot) save(ctx context.Context, chatID int64) bool {
	if err := b.deps.Store.SaveTo(ctx, b.deps.Storage); err != nil {
		b.log.Error("failed to save vocabulary", "error", err)
		b.reply(chatID, "⚠️ Could not save your vocabulary.", false)
		return false
	}
	return true
}

// Busy reports whether a practice session is running
func (b *Bot) Busy() bool {
	return b.sessionRunning()
}

// SendReminder implements the scheduler.Notifier interface
func (b *Bot) SendReminder(ctx context.Context, due int, sample []string) error {
	b.mu.Lock()
	chatID := b.lastChatID
	running := b.session != nil
	b.mu.Unlock()

	if chatID == 0 {
		return errNoChat
	}
	if running {
		b.log.Debug("practice running, skipping reminder")
		return nil
	}

	wordForm := "words"
	if due == 1 {
		wordForm = "word"
	}
	text := fmt.Sprintf("⏰ You have %d %s to practice", due, wordForm)
	if len(sample) > 0 {
		text += ": " + strings.Join(sample, ", ")
		if due > len(sample) {
			text += ", …"
		}
	}
	text += "\nTap Practice to start."

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(MainMenuButtons())
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send reminder to chat %d: %w", chatID, err)
	}
	return nil
}
