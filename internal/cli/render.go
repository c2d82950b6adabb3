package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/pinbatch/internal/config"
	"github.com/rshade/pinbatch/internal/engine/batch"
	"github.com/rshade/pinbatch/internal/pinterest"
)

// tabPadding is the minimum column padding for tabwriter output.
const tabPadding = 2

// table describes how one resource type is printed.
type table[R any] struct {
	headers []string
	row     func(value R) []string
}

var pinTable = table[*pinterest.Pin]{ //nolint:gochecknoglobals // Static column layout
	headers: []string{"TITLE", "BOARD", "LINK"},
	row: func(pin *pinterest.Pin) []string {
		return []string{pin.Title, pin.BoardID, pin.Link}
	},
}

var boardTable = table[*pinterest.Board]{ //nolint:gochecknoglobals // Static column layout
	headers: []string{"NAME", "PRIVACY", "DESCRIPTION"},
	row: func(board *pinterest.Board) []string {
		return []string{board.Name, board.Privacy, board.Description}
	},
}

// jsonReport is the --output json document.
type jsonReport[R any] struct {
	Resource          string        `json:"resource"`
	Operation         string        `json:"operation"`
	Succeeded         []jsonItem[R] `json:"succeeded"`
	Errors            []jsonError   `json:"errors"`
	Progress          jsonProgress  `json:"progress"`
	DuplicatesRemoved int           `json:"duplicates_removed"`
}

type jsonItem[R any] struct {
	ID    string `json:"id"`
	Value R      `json:"value,omitempty"`
}

type jsonError struct {
	ID       string `json:"id"`
	Error    string `json:"error"`
	Attempts int    `json:"attempts"`
}

type jsonProgress struct {
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	Failed     int    `json:"failed"`
	Percentage int    `json:"percentage"`
	Batches    int    `json:"batches"`
	Elapsed    string `json:"elapsed"`
}

// renderResult writes result in the configured format.
func renderResult[R any](
	w io.Writer,
	format string,
	resource string,
	op pinterest.Operation,
	result *batch.Result[string, R],
	layout table[R],
) error {
	if format == config.OutputJSON {
		return renderJSON(w, resource, op, result)
	}
	return renderTable(w, resource, op, result, layout)
}

func renderJSON[R any](w io.Writer, resource string, op pinterest.Operation, result *batch.Result[string, R]) error {
	report := jsonReport[R]{
		Resource:  resource,
		Operation: string(op),
		Succeeded: make([]jsonItem[R], 0, len(result.Succeeded)),
		Errors:    make([]jsonError, 0, len(result.Errors)),
		Progress: jsonProgress{
			Total:      result.Progress.Total,
			Completed:  result.Progress.Completed,
			Failed:     result.Progress.Failed,
			Percentage: result.Progress.Percentage,
			Batches:    result.Progress.TotalBatches,
			Elapsed:    result.Progress.Elapsed.String(),
		},
		DuplicatesRemoved: result.Optimizations.DuplicatesRemoved,
	}
	for _, s := range result.Succeeded {
		report.Succeeded = append(report.Succeeded, jsonItem[R]{ID: s.Item, Value: s.Value})
	}
	for _, e := range result.Errors {
		report.Errors = append(report.Errors, jsonError{ID: e.Item, Error: e.Err.Error(), Attempts: e.Attempt})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

func renderTable[R any](
	w io.Writer,
	resource string,
	op pinterest.Operation,
	result *batch.Result[string, R],
	layout table[R],
) error {
	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)

	if len(result.Succeeded) > 0 {
		headers := []string{"ID", "STATUS"}
		if op != pinterest.OperationDelete {
			headers = append(headers, layout.headers...)
		}
		writeRow(tw, headers)
		writeRow(tw, underline(headers))

		for _, s := range result.Succeeded {
			row := []string{s.Item, statusLabel(op)}
			if op != pinterest.OperationDelete {
				row = append(row, layout.row(s.Value)...)
			}
			writeRow(tw, row)
		}
	}

	if result.HasErrors() {
		if len(result.Succeeded) > 0 {
			fmt.Fprintln(tw)
		}
		headers := []string{"ID", "ATTEMPTS", "ERROR"}
		writeRow(tw, headers)
		writeRow(tw, underline(headers))
		for _, e := range result.Errors {
			writeRow(tw, []string{e.Item, fmt.Sprint(e.Attempt), e.Err.Error()})
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table writer: %w", err)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, renderSummary(resource, op, result.Progress, result.Optimizations))
	return nil
}

// renderSummary formats the one-line run summary with grouped counts.
func renderSummary(resource string, op pinterest.Operation, p batch.Progress, opt batch.Optimizations) string {
	printer := message.NewPrinter(language.English)

	style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	if p.Failed > 0 {
		style = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	}

	summary := printer.Sprintf("%s %s: %d of %d succeeded, %d failed in %d batch(es)",
		resource, op, p.Completed, p.Total, p.Failed, p.TotalBatches)
	if opt.DuplicatesRemoved > 0 {
		summary += printer.Sprintf(", %d duplicate(s) removed", opt.DuplicatesRemoved)
	}
	summary += printer.Sprintf(" (%s)", p.Elapsed.Round(time.Millisecond))
	return style.Render(summary)
}

func statusLabel(op pinterest.Operation) string {
	switch op {
	case pinterest.OperationUpdate:
		return "updated"
	case pinterest.OperationDelete:
		return "deleted"
	default:
		return "ok"
	}
}

func writeRow(w io.Writer, cols []string) {
	fmt.Fprintln(w, strings.Join(cols, "\t"))
}

func underline(headers []string) []string {
	lines := make([]string, len(headers))
	for i, h := range headers {
		lines[i] = strings.Repeat("-", len(h))
	}
	return lines
}
