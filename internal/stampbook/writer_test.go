package stampbook

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func sampleEntries() []Entry {
	added := time.Date(2025, time.November, 2, 9, 45, 0, 0, time.Local)
	return []Entry{
		{Timestamp: "00:05", Notes: "Intro", Added: added, Type: TypeMain},
		{Timestamp: "00:40", Notes: "detail", Added: added, Type: TypeSub},
		{Timestamp: "1:00:00", Notes: "Outro | credits", Added: added, Type: TypeMain},
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeRoundTrip(&buf, sampleEntries()); err != nil {
		t.Fatalf("EncodeRoundTrip: %v", err)
	}

	want := strings.TrimLeft(`
# tanda session: timestamp|notes|added|type
00:05|Intro|2025-11-02 09:45|MAIN
　　00:40|detail|2025-11-02 09:45|SUB
1:00:00|Outro \| credits|2025-11-02 09:45|MAIN
`, "\n")
	if buf.String() != want {
		t.Fatalf("encoded = %q, want %q", buf.String(), want)
	}
}

func TestEncodeRoundTripThenDecode(t *testing.T) {
	var buf bytes.Buffer
	entries := sampleEntries()
	if err := EncodeRoundTrip(&buf, entries); err != nil {
		t.Fatalf("EncodeRoundTrip: %v", err)
	}

	decoded, err := Decode(&buf, DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded.Entries) != len(entries) {
		t.Fatalf("decoded %d entries, want %d", len(decoded.Entries), len(entries))
	}
	for i, got := range decoded.Entries {
		want := entries[i]
		if got.Timestamp != want.Timestamp || got.Notes != want.Notes || got.Type != want.Type || !got.Added.Equal(want.Added) {
			t.Fatalf("entry %d = %#v, want %#v", i, got, want)
		}
	}
}

func TestExportWithHeader(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2025, time.November, 2, 10, 0, 0, 0, time.Local)
	if err := Export(&buf, sampleEntries(), ExportOptions{Header: true, Now: now}); err != nil {
		t.Fatalf("Export: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if lines[0] != "# Timestamp export - generated 2025-11-02 10:00:00" {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "# ===") {
		t.Fatalf("banner = %q", lines[1])
	}
	if lines[2] != "" {
		t.Fatalf("expected blank line after banner, got %q", lines[2])
	}
	body := lines[3:]
	want := []string{"00:05 Intro", "　　00:40 detail", "1:00:00 Outro | credits"}
	if strings.Join(body, "\n") != strings.Join(want, "\n") {
		t.Fatalf("body = %q, want %q", body, want)
	}
}

func TestExportASCIIIndentWithoutHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, sampleEntries(), ExportOptions{ASCIIIndent: true}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	want := "00:05 Intro\n  00:40 detail\n1:00:00 Outro | credits\n"
	if buf.String() != want {
		t.Fatalf("export = %q, want %q", buf.String(), want)
	}
}

func TestExportIsReadableBack(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, sampleEntries(), ExportOptions{Header: true}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	decoded, err := Decode(&buf, DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Accepted != 3 || decoded.Rejected != 0 {
		t.Fatalf("accepted/rejected = %d/%d, want 3/0", decoded.Accepted, decoded.Rejected)
	}
	if decoded.Entries[1].Type != TypeSub {
		t.Fatalf("entry 1 type = %v, want TypeSub", decoded.Entries[1].Type)
	}
}

func TestEncodeRoundTripKeepsMultiLineNotes(t *testing.T) {
	c := NewCollection()
	if err := c.Add("00:10", "first line\nsecond|x", TypeMain); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.Add("00:20", "windows\r\nbreak", TypeSub); err != nil {
		t.Fatalf("Add: %v", err)
	}

	var buf bytes.Buffer
	if err := EncodeRoundTrip(&buf, c.List()); err != nil {
		t.Fatalf("EncodeRoundTrip: %v", err)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 3 {
		t.Fatalf("encoded %d lines, want 3:\n%s", lines, buf.String())
	}

	loaded := NewCollection()
	report, err := loaded.Load(&buf, DecodeOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if report.Accepted != 2 || report.Rejected != 0 {
		t.Fatalf("accepted/rejected = %d/%d, want 2/0", report.Accepted, report.Rejected)
	}
	for i, want := range c.List() {
		got, _ := loaded.At(i)
		if got.Notes != want.Notes || got.Type != want.Type {
			t.Fatalf("entry %d = %#v, want %#v", i, got, want)
		}
		if got.Added.Format(AddedLayout) != want.Added.Format(AddedLayout) {
			t.Fatalf("entry %d added = %s, want %s", i, got.Added, want.Added)
		}
	}
}

func TestExportFlattensMultiLineNotes(t *testing.T) {
	entry, err := NewEntry("00:10", "first line\nsecond", TypeMain, time.Now())
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	if got := entry.ExportLine(); got != "00:10 first line second" {
		t.Fatalf("ExportLine = %q", got)
	}
}
