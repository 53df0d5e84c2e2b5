package stampbook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// LoadReport summarizes a load into a Collection.
type LoadReport struct {
	Accepted   int
	Rejected   int
	Duplicates []Entry
	Problems   []LineError
}

// Load decodes r completely and only then replaces the collection's entries.
// Lines that fail to parse and entries that collide with an earlier one are
// counted as rejected. On a read error the collection is left unchanged.
func (c *Collection) Load(r io.Reader, opts DecodeOptions) (LoadReport, error) {
	return c.load(r, opts, false)
}

// LoadMerge is Load without discarding the current entries.
func (c *Collection) LoadMerge(r io.Reader, opts DecodeOptions) (LoadReport, error) {
	return c.load(r, opts, true)
}

func (c *Collection) load(r io.Reader, opts DecodeOptions, merge bool) (LoadReport, error) {
	decoded, err := Decode(r, opts)
	if err != nil {
		return LoadReport{}, fmt.Errorf("read entries: %w", err)
	}

	var dups []Entry
	if merge {
		dups = c.Merge(decoded.Entries)
	} else {
		dups = c.ReplaceAll(decoded.Entries)
	}
	if opts.Logger != nil {
		for _, dup := range dups {
			opts.Logger.Warn("skipping duplicate timestamp", slog.String("timestamp", dup.Timestamp))
		}
	}
	return LoadReport{
		Accepted:   decoded.Accepted - len(dups),
		Rejected:   decoded.Rejected + len(dups),
		Duplicates: dups,
		Problems:   decoded.Problems,
	}, nil
}

// Store reads and writes session and export files.
type Store struct {
	logger *slog.Logger
}

// NewStore wires a Store. A nil logger discards output.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{logger: logger}
}

// Open loads the session at path into a new Collection. A missing file yields
// an empty collection.
func (s *Store) Open(ctx context.Context, path string) (*Collection, LoadReport, error) {
	c := NewCollection()
	report, err := s.LoadInto(ctx, c, path, false)
	if errors.Is(err, fs.ErrNotExist) {
		return c, LoadReport{}, nil
	}
	if err != nil {
		return nil, LoadReport{}, err
	}
	return c, report, nil
}

// LoadInto reads path into c, replacing its entries unless merge is set.
func (s *Store) LoadInto(ctx context.Context, c *Collection, path string, merge bool) (LoadReport, error) {
	if err := ctx.Err(); err != nil {
		return LoadReport{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		return LoadReport{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	opts := DecodeOptions{Now: time.Now(), Logger: s.logger.With(slog.String("path", path))}
	load := c.Load
	if merge {
		load = c.LoadMerge
	}
	report, err := load(file, opts)
	if err != nil {
		return LoadReport{}, fmt.Errorf("load %s: %w", path, err)
	}
	s.logger.Debug("loaded entries",
		slog.String("path", path),
		slog.Int("accepted", report.Accepted),
		slog.Int("rejected", report.Rejected))
	return report, nil
}

// Save writes the collection to path in the session format.
func (s *Store) Save(ctx context.Context, path string, c *Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := EncodeRoundTrip(&buf, c.List()); err != nil {
		return err
	}
	if err := writeFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	s.logger.Debug("saved session", slog.String("path", path), slog.Int("entries", c.Len()))
	return nil
}

// ExportFile writes the export listing of entries to path.
func (s *Store) ExportFile(ctx context.Context, path string, entries []Entry, opts ExportOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Export(&buf, entries, opts); err != nil {
		return err
	}
	if err := writeFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	s.logger.Debug("exported entries", slog.String("path", path), slog.Int("entries", len(entries)))
	return nil
}

// writeFile replaces path atomically via a temp file in the same directory.
func writeFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	temp, err := os.CreateTemp(dir, "tanda-*")
	if err != nil {
		return err
	}
	defer os.Remove(temp.Name())

	if _, err := temp.Write(content); err != nil {
		temp.Close()
		return err
	}
	if err := temp.Sync(); err != nil {
		temp.Close()
		return err
	}
	if err := temp.Close(); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err == nil {
		if err := os.Chmod(temp.Name(), info.Mode()); err != nil {
			return err
		}
	} else if err := os.Chmod(temp.Name(), 0o644); err != nil {
		return err
	}

	return os.Rename(temp.Name(), path)
}
