package stampbook

import (
	"fmt"
	"strings"
	"time"

	"github.com/faizmokh/tanda/internal/timecode"
)

// Type places an entry in the two-level hierarchy.
type Type uint8

const (
	// TypeMain marks top-level entries.
	TypeMain Type = iota
	// TypeSub marks entries nested under the preceding main entry.
	TypeSub
)

// String returns MAIN or SUB, the spelling used in session files.
func (t Type) String() string {
	if t == TypeSub {
		return "SUB"
	}
	return "MAIN"
}

// MarshalText keeps the MAIN/SUB spelling in JSON output.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseType accepts MAIN or SUB in any case.
func ParseType(value string) (Type, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "MAIN":
		return TypeMain, nil
	case "SUB":
		return TypeSub, nil
	default:
		return TypeMain, fmt.Errorf("unknown entry type %q (expected MAIN or SUB)", value)
	}
}

const (
	// Indent prefixes sub-entries on display and in written files.
	Indent = "　　"
	// ASCIIIndent is the legacy marker, still accepted on read.
	ASCIIIndent = "  "

	// NoteSeparator joins several logical notes into one notes field.
	NoteSeparator = " | "

	// AddedLayout formats Entry.Added in session files.
	AddedLayout = "2006-01-02 15:04"
)

// Entry is one recorded offset with its notes.
type Entry struct {
	Timestamp string    `json:"timestamp"`
	Notes     string    `json:"notes"`
	Added     time.Time `json:"added"`
	Type      Type      `json:"type"`
}

// NewEntry validates ts and builds an Entry. A zero added time means now.
func NewEntry(ts, notes string, typ Type, added time.Time) (Entry, error) {
	if !timecode.Valid(ts) {
		return Entry{}, fmt.Errorf("%w: %q", timecode.ErrInvalidFormat, ts)
	}
	if added.IsZero() {
		added = time.Now()
	}
	return Entry{
		Timestamp: ts,
		Notes:     notes,
		Added:     added,
		Type:      typ,
	}, nil
}

// Seconds returns the offset in seconds. Entries are always built from valid
// timestamps so the error is not surfaced.
func (e Entry) Seconds() int {
	total, _ := timecode.ToSeconds(e.Timestamp)
	return total
}

// Prefix returns the indentation for the entry's level.
func (e Entry) Prefix() string {
	if e.Type == TypeSub {
		return Indent
	}
	return ""
}

// DisplayNote returns the notes indented for sub-entries. Empty notes stay empty.
func (e Entry) DisplayNote() string {
	if strings.TrimSpace(e.Notes) == "" {
		return ""
	}
	return e.Prefix() + e.Notes
}

// ExportLine renders the human-readable export form.
func (e Entry) ExportLine() string {
	return e.exportLine(e.Prefix())
}

// flattenLines keeps multi-line notes on one export line.
var flattenLines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func (e Entry) exportLine(prefix string) string {
	var builder strings.Builder
	notes := strings.TrimSpace(flattenLines.Replace(e.Notes))
	builder.Grow(len(prefix) + len(e.Timestamp) + 1 + len(notes))
	builder.WriteString(prefix)
	builder.WriteString(e.Timestamp)
	if notes != "" {
		builder.WriteByte(' ')
		builder.WriteString(notes)
	}
	return builder.String()
}

// RoundTripLine renders the lossless session form:
// indent + timestamp|notes|added|TYPE, with | \ and line breaks in notes escaped.
func (e Entry) RoundTripLine() string {
	return fmt.Sprintf("%s%s|%s|%s|%s",
		e.Prefix(),
		e.Timestamp,
		escapeField(e.Notes),
		e.Added.Format(AddedLayout),
		e.Type,
	)
}

// JoinNotes combines several notes with NoteSeparator, skipping blanks.
func JoinNotes(notes []string) string {
	kept := make([]string, 0, len(notes))
	for _, note := range notes {
		if note = strings.TrimSpace(note); note != "" {
			kept = append(kept, note)
		}
	}
	return strings.Join(kept, NoteSeparator)
}

// SplitNotes reverses JoinNotes.
func SplitNotes(notes string) []string {
	var out []string
	for _, part := range strings.Split(notes, strings.TrimSpace(NoteSeparator)) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func escapeField(value string) string {
	if !strings.ContainsAny(value, "|\\\n\r") {
		return value
	}
	var builder strings.Builder
	builder.Grow(len(value) + 4)
	for _, r := range value {
		switch r {
		case '|', '\\':
			builder.WriteByte('\\')
			builder.WriteRune(r)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		default:
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// splitFields splits on unescaped pipes. \|, \\, \n and \r are unescaped;
// any other backslash is kept as written.
func splitFields(line string) []string {
	var (
		fields  []string
		current strings.Builder
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			switch r {
			case '|', '\\':
				current.WriteRune(r)
			case 'n':
				current.WriteByte('\n')
			case 'r':
				current.WriteByte('\r')
			default:
				current.WriteByte('\\')
				current.WriteRune(r)
			}
			escaped = false
		case r == '\\':
			escaped = true
		case r == '|':
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if escaped {
		current.WriteByte('\\')
	}
	return append(fields, current.String())
}
