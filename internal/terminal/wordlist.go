package terminal

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/vocabdrill/internal/spaced_repetition"
)

var bandColors = map[spaced_repetition.Band]string{
	spaced_repetition.BandWeak:     red,
	spaced_repetition.BandLearning: yellow,
	spaced_repetition.BandGood:     green,
	spaced_repetition.BandStrong:   cyan,
	spaced_repetition.BandMastered: blue,
}

// PrintWordList writes one aligned line per word, colored by mastery band.
func PrintWordList(out io.Writer, words []spaced_repetition.WordStatus, color bool) error {
	if len(words) == 0 {
		_, err := fmt.Fprintln(out, "The vocabulary is empty. Add some words first.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, ws := range words {
		mark := " "
		if ws.Record.IsFavorite {
			mark = "*"
		}
		due := ""
		if ws.Due {
			due = "due"
		}
		band := string(ws.Band)
		if color {
			band = bandColors[ws.Band] + band + reset
		}
		// Color codes would skew the column widths, so the band goes last.
		fmt.Fprintf(w, "%s %s\t= %s\t%d\t%s\t%s\t%s\n",
			mark, ws.Word, ws.Record.Translation, ws.Effective, ws.Record.Category, due, band)
	}
	return w.Flush()
}
