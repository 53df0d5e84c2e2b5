package stampbook

import (
	"bufio"
	"io"
	"strings"
	"time"
)

// SessionHeader opens every session file written by EncodeRoundTrip.
const SessionHeader = "# tanda session: timestamp|notes|added|type"

// ExportOptions tunes Export.
type ExportOptions struct {
	// Header writes a generated-on banner before the entries.
	Header bool
	// ASCIIIndent indents sub-entries with two ASCII spaces instead of Indent.
	ASCIIIndent bool
	// Now is printed in the banner; zero means time.Now.
	Now time.Time
}

// EncodeRoundTrip writes entries in the lossless session format, in the
// order given.
func EncodeRoundTrip(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(SessionHeader + "\n"); err != nil {
		return err
	}
	for _, entry := range entries {
		if _, err := bw.WriteString(entry.RoundTripLine() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Export writes the human-readable listing. Callers pass entries already in
// chronological order.
func Export(w io.Writer, entries []Entry, opts ExportOptions) error {
	bw := bufio.NewWriter(w)
	if opts.Header {
		now := opts.Now
		if now.IsZero() {
			now = time.Now()
		}
		title := "# Timestamp export - generated " + now.Format("2006-01-02 15:04:05")
		banner := "# " + strings.Repeat("=", len(title)-2)
		if _, err := bw.WriteString(title + "\n" + banner + "\n\n"); err != nil {
			return err
		}
	}
	for _, entry := range entries {
		line := entry.ExportLine()
		if opts.ASCIIIndent && entry.Type == TypeSub {
			line = entry.exportLine(ASCIIIndent)
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
