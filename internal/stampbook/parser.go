package stampbook

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// legacyIndents are accepted on read in addition to Indent, longest first.
var legacyIndents = []string{"    ", "\t", ASCIIIndent}

// maxLineBytes bounds a single line; longer lines are skipped.
const maxLineBytes = 1024 * 1024

// legacyBanner starts the header line of exports written by older versions.
const legacyBanner = "timestamp export"

// LineError describes a line that was skipped during Decode.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e LineError) Unwrap() error {
	return e.Err
}

// Decoded is the outcome of reading a session or export file.
type Decoded struct {
	Entries  []Entry
	Accepted int
	Rejected int
	Problems []LineError
}

// DecodeOptions tunes Decode. Zero values are usable.
type DecodeOptions struct {
	// Now stamps entries whose line carries no added time.
	Now time.Time
	// Logger receives one warning per skipped line.
	Logger *slog.Logger
}

// Decode reads entries from r. It understands both the round-trip session
// format (timestamp|notes|added|TYPE) and the export format
// (timestamp notes). Blank lines and # comments are skipped; a line that
// cannot be parsed is counted as rejected and does not stop the read. Only a
// failure of r itself is returned as an error.
func Decode(r io.Reader, opts DecodeOptions) (Decoded, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	var out Decoded
	if r == nil {
		return out, nil
	}

	reader := bufio.NewReader(r)
	lineNo := 0
	for {
		line, tooLong, err := readLine(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			return Decoded{}, err
		}
		lineNo++
		if tooLong {
			problem := LineError{Line: lineNo, Err: fmt.Errorf("%w: line exceeds %d bytes", ErrMalformedLine, maxLineBytes)}
			out.Problems = append(out.Problems, problem)
			out.Rejected++
			if opts.Logger != nil {
				opts.Logger.Warn("skipping line",
					slog.Int("line", lineNo),
					slog.String("error", problem.Err.Error()))
			}
			continue
		}

		raw := strings.TrimRight(line, "\r")
		if lineNo == 1 {
			raw = strings.TrimPrefix(raw, "\uFEFF")
		}
		if skipLine(raw) {
			continue
		}

		entry, err := parseLine(raw, opts.Now)
		if err != nil {
			problem := LineError{Line: lineNo, Text: raw, Err: fmt.Errorf("%w: %v", ErrMalformedLine, err)}
			out.Problems = append(out.Problems, problem)
			out.Rejected++
			if opts.Logger != nil {
				opts.Logger.Warn("skipping line",
					slog.Int("line", lineNo),
					slog.String("text", raw),
					slog.String("error", err.Error()))
			}
			continue
		}
		out.Entries = append(out.Entries, entry)
		out.Accepted++
	}
	return out, nil
}

// readLine returns the next line without its newline. A line longer than
// maxLineBytes is consumed and reported as tooLong with its content dropped.
// io.EOF is returned only when no bytes remain.
func readLine(reader *bufio.Reader) (string, bool, error) {
	var (
		buf     []byte
		tooLong bool
		read    bool
	)
	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF && read {
				return string(buf), tooLong, nil
			}
			return "", false, err
		}
		read = true
		if !tooLong {
			if len(buf)+len(chunk) > maxLineBytes {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

func skipLine(raw string) bool {
	line := strings.TrimSpace(strings.TrimLeft(raw, Indent))
	if line == "" || strings.HasPrefix(line, "#") {
		return true
	}
	if strings.Trim(line, "=") == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(line), legacyBanner)
}

func parseLine(raw string, now time.Time) (Entry, error) {
	line, indented := stripIndent(raw)
	line = strings.TrimSpace(line)

	typ := TypeMain
	if indented {
		typ = TypeSub
	}

	fields := splitFields(line)
	if len(fields) < 2 || strings.ContainsAny(strings.TrimSpace(fields[0]), " \t") {
		// Export form; notes may legitimately contain " | ".
		ts, notes, _ := strings.Cut(line, " ")
		return NewEntry(ts, strings.TrimSpace(notes), typ, now)
	}
	if n := len(fields); n > 4 {
		// Older writers did not escape pipes inside notes.
		fields = []string{fields[0], strings.Join(fields[1:n-2], "|"), fields[n-2], fields[n-1]}
	}

	ts := strings.TrimSpace(fields[0])
	notes := fields[1]
	added := now
	if len(fields) >= 3 {
		value := strings.TrimSpace(fields[2])
		if value != "" {
			parsed, err := time.ParseInLocation(AddedLayout, value, time.Local)
			if err != nil {
				return Entry{}, fmt.Errorf("parse added time %q: %w", value, err)
			}
			added = parsed
		}
	}
	if len(fields) == 4 && strings.TrimSpace(fields[3]) != "" {
		parsed, err := ParseType(fields[3])
		if err != nil {
			return Entry{}, err
		}
		typ = parsed
	}
	return NewEntry(ts, notes, typ, added)
}

func stripIndent(raw string) (string, bool) {
	if strings.HasPrefix(raw, Indent) {
		return raw[len(Indent):], true
	}
	for _, marker := range legacyIndents {
		if strings.HasPrefix(raw, marker) {
			return raw[len(marker):], true
		}
	}
	return raw, false
}
