package stampbook

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

var decodeNow = time.Date(2025, time.November, 20, 18, 0, 0, 0, time.Local)

func TestDecodeRoundTripLines(t *testing.T) {
	input := `# tanda session: timestamp|notes|added|type
00:05|intro|2025-11-02 09:45|MAIN
　　00:40|guest \| host|2025-11-02 09:46|SUB

1:00:00|outro|2025-11-02 09:50
`

	decoded, err := Decode(strings.NewReader(input), DecodeOptions{Now: decodeNow})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Accepted != 3 || decoded.Rejected != 0 {
		t.Fatalf("accepted/rejected = %d/%d, want 3/0", decoded.Accepted, decoded.Rejected)
	}

	first := decoded.Entries[0]
	wantAdded := time.Date(2025, time.November, 2, 9, 45, 0, 0, time.Local)
	if !first.Added.Equal(wantAdded) {
		t.Fatalf("first.Added = %s, want %s", first.Added, wantAdded)
	}

	second := decoded.Entries[1]
	if second.Type != TypeSub {
		t.Fatalf("second.Type = %v, want TypeSub", second.Type)
	}
	if second.Notes != "guest | host" {
		t.Fatalf("second.Notes = %q, want %q", second.Notes, "guest | host")
	}

	third := decoded.Entries[2]
	if third.Type != TypeMain {
		t.Fatalf("third.Type = %v, want TypeMain when the field is missing", third.Type)
	}
}

func TestDecodeLegacyTwoFieldLine(t *testing.T) {
	input := "# header\n00:10|hello\n"

	decoded, err := Decode(strings.NewReader(input), DecodeOptions{Now: decodeNow})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(decoded.Entries))
	}
	entry := decoded.Entries[0]
	if entry.Type != TypeMain {
		t.Fatalf("entry.Type = %v, want TypeMain", entry.Type)
	}
	if entry.Notes != "hello" {
		t.Fatalf("entry.Notes = %q, want hello", entry.Notes)
	}
	if !entry.Added.Equal(decodeNow) {
		t.Fatalf("entry.Added = %s, want synthesized %s", entry.Added, decodeNow)
	}
}

func TestDecodeExportLines(t *testing.T) {
	input := `Timestamp Export - Generated on 2025-11-02 10:00:00
======================================================

00:05 Intro | warm up
　　00:20 First point
    00:30 Legacy four-space sub
  00:45 Legacy two-space sub
01:00
`

	decoded, err := Decode(strings.NewReader(input), DecodeOptions{Now: decodeNow})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Accepted != 5 || decoded.Rejected != 0 {
		t.Fatalf("accepted/rejected = %d/%d, want 5/0: %v", decoded.Accepted, decoded.Rejected, decoded.Problems)
	}

	wantTypes := []Type{TypeMain, TypeSub, TypeSub, TypeSub, TypeMain}
	for i, want := range wantTypes {
		if decoded.Entries[i].Type != want {
			t.Fatalf("entry %d type = %v, want %v", i, decoded.Entries[i].Type, want)
		}
	}
	if decoded.Entries[0].Notes != "Intro | warm up" {
		t.Fatalf("entry 0 notes = %q", decoded.Entries[0].Notes)
	}
	if decoded.Entries[4].Notes != "" {
		t.Fatalf("entry 4 notes = %q, want empty", decoded.Entries[4].Notes)
	}
}

func TestDecodeSkipsMalformedLinesAndLogs(t *testing.T) {
	input := `00:05|ok|2025-11-02 09:45|MAIN
1:5|bad timestamp
00:06|bad date|yesterday|MAIN
00:07|bad type|2025-11-02 09:45|CHILD
random words
00:08 fine
`
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	decoded, err := Decode(strings.NewReader(input), DecodeOptions{Now: decodeNow, Logger: logger})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Accepted != 2 || decoded.Rejected != 4 {
		t.Fatalf("accepted/rejected = %d/%d, want 2/4", decoded.Accepted, decoded.Rejected)
	}
	if decoded.Problems[0].Line != 2 {
		t.Fatalf("first problem line = %d, want 2", decoded.Problems[0].Line)
	}
	for _, problem := range decoded.Problems {
		if !errors.Is(problem, ErrMalformedLine) {
			t.Fatalf("problem %v does not wrap ErrMalformedLine", problem)
		}
	}
	if strings.Count(logs.String(), "skipping line") != 4 {
		t.Fatalf("expected 4 warnings, got %q", logs.String())
	}
}

func TestDecodeUnescapedPipesFromOlderWriters(t *testing.T) {
	input := "00:05|intro | guest|2025-11-02 09:45|SUB\n"

	decoded, err := Decode(strings.NewReader(input), DecodeOptions{Now: decodeNow})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Accepted != 1 {
		t.Fatalf("accepted = %d, want 1: %v", decoded.Accepted, decoded.Problems)
	}
	entry := decoded.Entries[0]
	if entry.Notes != "intro | guest" || entry.Type != TypeSub {
		t.Fatalf("entry = %#v", entry)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestDecodeReturnsReadErrors(t *testing.T) {
	if _, err := Decode(failingReader{}, DecodeOptions{}); err == nil {
		t.Fatalf("Decode expected error from failing reader")
	}
}

func TestDecodeWithNilReader(t *testing.T) {
	decoded, err := Decode(nil, DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode(nil): %v", err)
	}
	if len(decoded.Entries) != 0 {
		t.Fatalf("Decode(nil) entries = %d, want 0", len(decoded.Entries))
	}
}

func TestDecodeStripsByteOrderMark(t *testing.T) {
	input := "\uFEFF00:05|intro|2025-11-02 09:45|MAIN\n"

	decoded, err := Decode(strings.NewReader(input), DecodeOptions{Now: decodeNow})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Accepted != 1 || decoded.Rejected != 0 {
		t.Fatalf("accepted/rejected = %d/%d, want 1/0", decoded.Accepted, decoded.Rejected)
	}
	if got := decoded.Entries[0].Timestamp; got != "00:05" {
		t.Fatalf("timestamp = %q, want 00:05", got)
	}
}

func TestDecodeSkipsOverlongLine(t *testing.T) {
	var input strings.Builder
	input.WriteString("00:05|intro|2025-11-02 09:45|MAIN\n")
	input.WriteString("00:06|" + strings.Repeat("x", 2*maxLineBytes) + "|2025-11-02 09:45|MAIN\n")
	input.WriteString("00:07|outro|2025-11-02 09:46|MAIN")

	decoded, err := Decode(strings.NewReader(input.String()), DecodeOptions{Now: decodeNow})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Accepted != 2 || decoded.Rejected != 1 {
		t.Fatalf("accepted/rejected = %d/%d, want 2/1", decoded.Accepted, decoded.Rejected)
	}
	if got := decoded.Problems[0].Line; got != 2 {
		t.Fatalf("problem line = %d, want 2", got)
	}
	if !errors.Is(decoded.Problems[0], ErrMalformedLine) {
		t.Fatalf("problem = %v, want ErrMalformedLine", decoded.Problems[0])
	}
	if got := decoded.Entries[1].Timestamp; got != "00:07" {
		t.Fatalf("last timestamp = %q, want 00:07", got)
	}
}
