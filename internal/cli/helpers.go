package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/faizmokh/tanda/internal/stampbook"
)

// parseIndex converts a 1-based CLI index to a collection index.
func parseIndex(value string) (int, error) {
	index, err := strconv.Atoi(value)
	if err != nil || index <= 0 {
		return 0, fmt.Errorf("index must be a positive integer")
	}
	return index - 1, nil
}

// collectNotes joins positional words into one note and appends each --note
// value as a further logical note.
func collectNotes(words, extra []string) string {
	notes := make([]string, 0, len(extra)+1)
	notes = append(notes, strings.Join(words, " "))
	notes = append(notes, extra...)
	return stampbook.JoinNotes(notes)
}

func formatEntry(entry stampbook.Entry) string {
	builder := strings.Builder{}
	builder.Grow(16 + len(entry.Notes))

	builder.WriteString("[")
	builder.WriteString(strings.ToLower(entry.Type.String()))
	builder.WriteString("] ")
	builder.WriteString(entry.Timestamp)

	if entry.Notes != "" {
		builder.WriteString(" ")
		builder.WriteString(entry.DisplayNote())
	}
	return builder.String()
}

func indexOf(entries []stampbook.Entry, ts string) int {
	for i, entry := range entries {
		if entry.Timestamp == ts {
			return i
		}
	}
	return -1
}

// printTable writes entries as aligned columns. Widths are measured in
// terminal cells so the full-width sub-entry marker lines up.
func printTable(out io.Writer, entries []stampbook.Entry) {
	header := []string{"#", "TIME", "NOTE", "ADDED"}
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			entry.Timestamp,
			entry.DisplayNote(),
			entry.Added.Format(stampbook.AddedLayout),
		})
	}

	widths := make([]int, len(header))
	for _, row := range append([][]string{header}, rows...) {
		for col, cell := range row {
			widths[col] = max(widths[col], runewidth.StringWidth(cell))
		}
	}

	writeRow := func(row []string) {
		var b strings.Builder
		for col, cell := range row {
			if col == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[col]))
			b.WriteString("  ")
		}
		fmt.Fprintln(out, strings.TrimRight(b.String(), " "))
	}

	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}
}
