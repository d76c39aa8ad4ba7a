package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/example/vocabdrill/internal/practice"
)

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	purple = "\033[35m"
	cyan   = "\033[36m"
	white  = "\033[37m"
)

// Presenter runs practice sessions on a line based terminal.
type Presenter struct {
	in    *bufio.Reader
	out   io.Writer
	color bool
}

// NewPresenter reads answers from in and writes prompts to out. ANSI colors
// are used only when color is set.
func NewPresenter(in io.Reader, out io.Writer, color bool) *Presenter {
	return &Presenter{in: bufio.NewReader(in), out: out, color: color}
}

func (p *Presenter) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + reset
}

// ReadLine prints label and returns the next input line without the newline.
// io.EOF is returned once the input is exhausted.
func (p *Presenter) ReadLine(label string) (string, error) {
	if label != "" {
		fmt.Fprint(p.out, label)
	}
	line, err := p.in.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Ask renders the prompt and waits for a line of input.
func (p *Presenter) Ask(ctx context.Context, prompt practice.Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch prompt.Kind {
	case practice.PromptRecall:
		fmt.Fprintf(p.out, "\n[%d/%d] %s  (score %d)\n",
			prompt.Position, prompt.Total, p.paint(bold+purple, prompt.Word), prompt.EffectiveScore)
		return p.ReadLine("Do you remember it? [enter = yes, n = no, 0 = exit] ")

	case practice.PromptMultipleChoice:
		for i, opt := range prompt.Options {
			fmt.Fprintf(p.out, "  %s\n", p.paint(bold+white, fmt.Sprintf("%d = %s", i+1, opt)))
		}
		return p.ReadLine("Answer: ")

	case practice.PromptTrueFalse:
		fmt.Fprintf(p.out, "  %s = %s ?\n", prompt.Word, p.paint(bold+white, prompt.Statement))
		return p.ReadLine("1 = true, 2 = false: ")
	}

	return "", fmt.Errorf("terminal: unknown prompt kind %q", prompt.Kind)
}

// Show renders feedback after an answer and the final summary.
func (p *Presenter) Show(ctx context.Context, e practice.Event) error {
	var err error
	switch e.Kind {
	case practice.EventCorrect:
		_, err = fmt.Fprintf(p.out, "%s (score %d, streak %d)\n", p.paint(green, "Correct!"), e.Score, e.Streak)

	case practice.EventWrong:
		if e.Invalid {
			fmt.Fprintln(p.out, p.paint(yellow, "Not a valid answer."))
		}
		if !e.Skipped {
			fmt.Fprintln(p.out, p.paint(red, "Wrong!"))
		}
		_, err = fmt.Fprintf(p.out, "The word for %s is %s.\n",
			p.paint(bold+white, "'"+e.Word+"'"), p.paint(bold+white, "'"+e.Answer+"'"))

	case practice.EventSummary:
		s := e.Summary
		title := "Session complete."
		if s.Aborted {
			title = "Session stopped."
		}
		_, err = fmt.Fprintf(p.out, "\n%s %d correct, %d wrong of %d words (%.0f%%)\n",
			p.paint(bold, title), s.Correct, s.Wrong, s.Total, s.Accuracy()*100)
	}
	return err
}
