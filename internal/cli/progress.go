package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/pinbatch/internal/engine/batch"
)

// Progress bar rendering constants.
const (
	progressBarWidth   = 30
	progressFilledChar = "█"
	progressEmptyChar  = "░"
	maxPercentage      = 100
)

// progressReporter draws a single, redrawn progress line.
// Updates arrive serialized from the batch tracker, so it needs no locking.
type progressReporter struct {
	w       io.Writer
	enabled bool
	drawn   bool
}

// newProgressReporter draws only when w is an interactive terminal.
func newProgressReporter(w io.Writer) *progressReporter {
	f, ok := w.(*os.File)
	return &progressReporter{w: w, enabled: ok && isTerminal(f)}
}

// Update is a batch.ProgressCallback.
func (r *progressReporter) Update(p batch.Progress) {
	logger.Debug().
		Int("completed", p.Completed).
		Int("failed", p.Failed).
		Int("total", p.Total).
		Int("percentage", p.Percentage).
		Msg("progress")

	if !r.enabled {
		return
	}
	fmt.Fprintf(r.w, "\r%s %s\033[K", renderProgressBar(p.Percentage, progressBarWidth), p.String())
	r.drawn = true
}

// Finish ends the progress line so later output starts on a fresh line.
func (r *progressReporter) Finish() {
	if r.drawn {
		fmt.Fprintln(r.w)
		r.drawn = false
	}
}

// renderProgressBar renders a horizontal bar for percentage within width characters.
// Percentages outside 0-100 are clamped.
func renderProgressBar(percentage, width int) string {
	capped := max(0, min(percentage, maxPercentage))
	filledWidth := capped * width / maxPercentage
	emptyWidth := width - filledWidth

	filledStyle := lipgloss.NewStyle().Foreground(progressColor(capped))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	filled := filledStyle.Render(strings.Repeat(progressFilledChar, filledWidth))
	empty := emptyStyle.Render(strings.Repeat(progressEmptyChar, emptyWidth))

	return filled + empty
}

// progressColor is yellow while running and green when done.
func progressColor(percentage int) lipgloss.Color {
	if percentage >= maxPercentage {
		return lipgloss.Color("42")
	}
	return lipgloss.Color("220")
}
