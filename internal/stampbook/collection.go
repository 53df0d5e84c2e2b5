package stampbook

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/faizmokh/tanda/internal/timecode"
)

// EventKind names a successful mutation of a Collection.
type EventKind uint8

const (
	// EventAdded follows a successful Add.
	EventAdded EventKind = iota
	// EventRemoved follows a Remove that found its index.
	EventRemoved
	// EventNoteUpdated follows an UpdateNote that found its index.
	EventNoteUpdated
	// EventCleared follows ClearAll.
	EventCleared
	// EventLoaded follows ReplaceAll or Merge, including loads from disk.
	EventLoaded
)

// String returns the lower-case name used in log output.
func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventNoteUpdated:
		return "note-updated"
	case EventCleared:
		return "cleared"
	case EventLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after a mutation. Index is the position in
// List order and is -1 for whole-collection events.
type Event struct {
	Kind  EventKind
	Index int
	Entry Entry
}

// Collection owns the recorded entries of one session. Entries are kept in
// chronological order; equal offsets keep insertion order. At most one entry
// exists per timestamp string.
type Collection struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time

	subs   map[int]func(Event)
	nextID int
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{now: time.Now}
}

// Subscribe registers fn for change events and returns a function that
// removes it. Callbacks run on the mutating goroutine after the collection
// lock is released.
func (c *Collection) Subscribe(fn func(Event)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs == nil {
		c.subs = make(map[int]func(Event))
	}
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Add records a new entry. It fails with timecode.ErrInvalidFormat or
// ErrDuplicate and leaves the collection untouched in that case.
func (c *Collection) Add(ts, notes string, typ Type) error {
	c.mu.Lock()
	entry, err := NewEntry(ts, notes, typ, c.clock())
	if err != nil {
		c.mu.Unlock()
		return err
	}
	index, err := c.insertLocked(entry)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.publish(Event{Kind: EventAdded, Index: index, Entry: entry})
	return nil
}

// Remove deletes the entry at index in List order.
func (c *Collection) Remove(index int) bool {
	c.mu.Lock()
	if index < 0 || index >= len(c.entries) {
		c.mu.Unlock()
		return false
	}
	removed := c.entries[index]
	c.entries = append(c.entries[:index], c.entries[index+1:]...)
	c.mu.Unlock()

	c.publish(Event{Kind: EventRemoved, Index: index, Entry: removed})
	return true
}

// UpdateNote replaces the notes of the entry at index in List order. The
// timestamp is not re-validated.
func (c *Collection) UpdateNote(index int, note string) bool {
	c.mu.Lock()
	if index < 0 || index >= len(c.entries) {
		c.mu.Unlock()
		return false
	}
	c.entries[index].Notes = note
	updated := c.entries[index]
	c.mu.Unlock()

	c.publish(Event{Kind: EventNoteUpdated, Index: index, Entry: updated})
	return true
}

// ClearAll empties the collection.
func (c *Collection) ClearAll() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()

	c.publish(Event{Kind: EventCleared, Index: -1})
}

// List returns a chronological snapshot.
func (c *Collection) List() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// At returns the entry at index in List order.
func (c *Collection) At(index int) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.entries) {
		return Entry{}, false
	}
	return c.entries[index], true
}

// Exists reports whether an entry with exactly this timestamp string is
// recorded. Invalid input is never present.
func (c *Collection) Exists(ts string) bool {
	if !timecode.Valid(ts) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexOfLocked(ts) >= 0
}

// Shift moves ts by delta seconds; see timecode.Shift.
func (c *Collection) Shift(ts string, delta int) string {
	return timecode.Shift(ts, delta)
}

// ReplaceAll discards the current entries and installs the given ones. Each
// entry goes through the same checks as Add; the ones that fail are returned.
func (c *Collection) ReplaceAll(entries []Entry) (rejected []Entry) {
	c.mu.Lock()
	c.entries = nil
	rejected = c.mergeLocked(entries)
	c.mu.Unlock()

	c.publish(Event{Kind: EventLoaded, Index: -1})
	return rejected
}

// Merge adds the given entries to the current ones, returning the rejected ones.
func (c *Collection) Merge(entries []Entry) (rejected []Entry) {
	c.mu.Lock()
	rejected = c.mergeLocked(entries)
	c.mu.Unlock()

	c.publish(Event{Kind: EventLoaded, Index: -1})
	return rejected
}

func (c *Collection) mergeLocked(entries []Entry) []Entry {
	var rejected []Entry
	for _, entry := range entries {
		if !timecode.Valid(entry.Timestamp) {
			rejected = append(rejected, entry)
			continue
		}
		if entry.Added.IsZero() {
			entry.Added = c.clock()
		}
		if _, err := c.insertLocked(entry); err != nil {
			rejected = append(rejected, entry)
		}
	}
	return rejected
}

// insertLocked places entry after every entry with an equal or earlier offset.
func (c *Collection) insertLocked(entry Entry) (int, error) {
	if c.indexOfLocked(entry.Timestamp) >= 0 {
		return -1, fmt.Errorf("%w: %s", ErrDuplicate, entry.Timestamp)
	}
	seconds := entry.Seconds()
	index := sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].Seconds() > seconds
	})
	c.entries = append(c.entries, Entry{})
	copy(c.entries[index+1:], c.entries[index:])
	c.entries[index] = entry
	return index, nil
}

func (c *Collection) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

func (c *Collection) indexOfLocked(ts string) int {
	for i, entry := range c.entries {
		if entry.Timestamp == ts {
			return i
		}
	}
	return -1
}

func (c *Collection) publish(ev Event) {
	c.mu.Lock()
	subs := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
