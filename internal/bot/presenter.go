package bot

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/example/vocabdrill/internal/practice"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramPresenter asks practice questions in a chat. Answers arrive through
// inbox, fed by the bot's update loop from messages and button presses.
//
// Every prompt gets a sequence number that its buttons carry as "p<seq>:".
// A prompt takes exactly one answer; presses on older keyboards and repeated
// taps are dropped.
type telegramPresenter struct {
	api    API
	chatID int64
	inbox  chan string

	mu      sync.Mutex
	seq     int  // sequence number of the latest prompt
	waiting bool // the latest prompt has no answer yet
}

func newTelegramPresenter(api API, chatID int64) *telegramPresenter {
	return &telegramPresenter{
		api:    api,
		chatID: chatID,
		inbox:  make(chan string, 1),
	}
}

func (p *telegramPresenter) Ask(ctx context.Context, prompt practice.Prompt) (string, error) {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.waiting = true
	select {
	case <-p.inbox:
	default:
	}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.waiting = false
		p.mu.Unlock()
	}()

	msg := tgbotapi.NewMessage(p.chatID, promptText(prompt))
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = createKeyboard(promptButtons(prompt, seq))
	if _, err := p.api.Send(msg); err != nil {
		return "", fmt.Errorf("send prompt: %w", err)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case answer, ok := <-p.inbox:
		if !ok {
			return "", io.EOF
		}
		return answer, nil
	}
}

func (p *telegramPresenter) Show(ctx context.Context, e practice.Event) error {
	text := eventText(e)
	if text == "" {
		return nil
	}
	msg := tgbotapi.NewMessage(p.chatID, text)
	msg.ParseMode = "Markdown"
	if e.Kind == practice.EventSummary {
		msg.ReplyMarkup = createKeyboard(MainMenuButtons())
	}
	_, err := p.api.Send(msg)
	return err
}

// deliver hands an answer to the waiting Ask. Button data must carry the
// latest prompt's tag; typed text goes to whatever prompt is waiting. It
// reports false when the input was dropped.
func (p *telegramPresenter) deliver(input string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if seq, answer, ok := splitTag(input); ok {
		if seq != p.seq {
			return false
		}
		input = answer
	}
	if !p.waiting {
		return false
	}
	select {
	case p.inbox <- input:
		p.waiting = false
		return true
	default:
		return false
	}
}

func tag(seq int, answer string) string {
	return "p" + strconv.Itoa(seq) + ":" + answer
}

// splitTag parses "p<seq>:<answer>" button data.
func splitTag(data string) (int, string, bool) {
	rest, ok := strings.CutPrefix(data, "p")
	if !ok {
		return 0, "", false
	}
	num, answer, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, "", false
	}
	seq, err := strconv.Atoi(num)
	if err != nil {
		return 0, "", false
	}
	return seq, answer, true
}

func promptText(p practice.Prompt) string {
	switch p.Kind {
	case practice.PromptRecall:
		return fmt.Sprintf("*%d/%d*  📖 *%s*  (score %d)\n\nDo you remember it?",
			p.Position, p.Total, escapeMarkdown(p.Word), p.EffectiveScore)
	case practice.PromptMultipleChoice:
		var sb strings.Builder
		fmt.Fprintf(&sb, "Choose the translation of *%s*:\n", escapeMarkdown(p.Word))
		for i, opt := range p.Options {
			fmt.Fprintf(&sb, "\n%d. %s", i+1, escapeMarkdown(opt))
		}
		return sb.String()
	case practice.PromptTrueFalse:
		return fmt.Sprintf("*%s* = %s\n\nIs this right?", escapeMarkdown(p.Word), escapeMarkdown(p.Statement))
	}
	return escapeMarkdown(p.Word)
}

func promptButtons(p practice.Prompt, seq int) [][]MenuButton {
	exit := []MenuButton{{Text: "⏹ Stop", CallbackData: tag(seq, "0")}}

	switch p.Kind {
	case practice.PromptRecall:
		return [][]MenuButton{
			{{Text: "✅ Yes", CallbackData: tag(seq, "y")}, {Text: "❌ No", CallbackData: tag(seq, "n")}},
			exit,
		}
	case practice.PromptMultipleChoice:
		var row []MenuButton
		for i := range p.Options {
			n := strconv.Itoa(i + 1)
			row = append(row, MenuButton{Text: n, CallbackData: tag(seq, n)})
		}
		return [][]MenuButton{row, exit}
	case practice.PromptTrueFalse:
		return [][]MenuButton{
			{{Text: "✅ True", CallbackData: tag(seq, "1")}, {Text: "❌ False", CallbackData: tag(seq, "2")}},
			exit,
		}
	}
	return [][]MenuButton{exit}
}

func eventText(e practice.Event) string {
	switch e.Kind {
	case practice.EventCorrect:
		return fmt.Sprintf("✅ Correct! (score %d, streak %d)", e.Score, e.Streak)
	case practice.EventWrong:
		prefix := "❌ Wrong!"
		if e.Skipped {
			prefix = "🔁"
		} else if e.Invalid {
			prefix = "❌ Not a valid answer."
		}
		return fmt.Sprintf("%s The word for *%s* is *%s*.", prefix, escapeMarkdown(e.Word), escapeMarkdown(e.Answer))
	case practice.EventSummary:
		s := e.Summary
		title := "🏁 Session complete."
		if s.Aborted {
			title = "⏹ Session stopped."
		}
		return fmt.Sprintf("%s\n\n✅ %d correct\n❌ %d wrong\n🎯 %.0f%% of %d words",
			title, s.Correct, s.Wrong, s.Accuracy()*100, s.Total)
	}
	return ""
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
