package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/faizmokh/tanda/internal/stampbook"
	"github.com/faizmokh/tanda/internal/timecode"
)

// DefaultShiftStep is used when Options.ShiftStep is not positive.
const DefaultShiftStep = 5

const eventBuffer = 64

// Options wires the model to one session file.
type Options struct {
	Store     *stampbook.Store
	Path      string
	ShiftStep int
	Logger    *slog.Logger
}

// Model owns Bubble Tea state for the session editor.
type Model struct {
	ctx    context.Context
	store  *stampbook.Store
	path   string
	step   int
	logger *slog.Logger

	collection  *stampbook.Collection
	events      chan stampbook.Event
	unsubscribe func()

	table table.Model
	input textinput.Model

	mode         mode
	inputLabel   string
	warning      string
	editingIndex int

	loading bool
	// At most one save runs at a time; dirty asks for another once it lands.
	saving     bool
	dirty      bool
	statusLine string
	errorLine  string
}

type mode uint8

const (
	modeNormal mode = iota
	modeAddMain
	modeAddSub
	modeEditNote
	modeConfirmDelete
	modeConfirmClear
)

type loadedMsg struct {
	report stampbook.LoadReport
	err    error
}

type savedMsg struct {
	err error
}

type changeMsg struct {
	event stampbook.Event
}

// NewModel seeds a Bubble Tea model for the session at opts.Path. The session
// is read by Init; every later change is saved back in the background.
func NewModel(ctx context.Context, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	store := opts.Store
	if store == nil {
		store = stampbook.NewStore(logger)
	}
	step := opts.ShiftStep
	if step <= 0 {
		step = DefaultShiftStep
	}

	collection := stampbook.NewCollection()
	events := make(chan stampbook.Event, eventBuffer)
	unsubscribe := collection.Subscribe(func(ev stampbook.Event) {
		select {
		case events <- ev:
		default:
			// A queued event already triggers a full save.
			logger.Debug("ui: change event dropped", slog.String("event", ev.Kind.String()))
		}
	})

	t := table.New(
		table.WithColumns(columns(48)),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(tableStyles())

	input := textinput.New()
	input.Prompt = "> "

	return Model{
		ctx:          ctx,
		store:        store,
		path:         opts.Path,
		step:         step,
		logger:       logger,
		collection:   collection,
		events:       events,
		unsubscribe:  unsubscribe,
		table:        t,
		input:        input,
		mode:         modeNormal,
		editingIndex: -1,
		loading:      true,
		statusLine:   "Loading session...",
	}
}

func columns(noteWidth int) []table.Column {
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Time", Width: 10},
		{Title: "Note", Width: noteWidth},
		{Title: "Added", Width: 16},
	}
}

// Collection returns the entries being edited.
func (m Model) Collection() *stampbook.Collection {
	return m.collection
}

// Close stops change delivery to the model.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init loads the session and starts listening for changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.waitForChange())
}

// Update wires TUI state transitions from user input and async commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case changeMsg:
		return m.handleChange(msg)
	case loadedMsg:
		return m.handleLoaded(msg)
	case savedMsg:
		return m.handleSaved(msg)
	default:
		return m, nil
	}
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	// Fixed columns plus one cell of padding on each side of every column.
	noteWidth := max(msg.Width-4-10-16-8, 20)
	m.table.SetColumns(columns(noteWidth))
	m.table.SetHeight(max(msg.Height-12, 5))
	m.input.Width = max(msg.Width-4, 20)
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNormal {
		return m.handleInputKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		return m.reload()
	case "a":
		return m.beginAdd(stampbook.TypeMain)
	case "s":
		return m.beginAdd(stampbook.TypeSub)
	case "e":
		return m.beginEdit()
	case "d":
		return m.beginConfirm(modeConfirmDelete)
	case "C":
		return m.beginConfirm(modeConfirmClear)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeConfirmDelete, modeConfirmClear:
		switch msg.String() {
		case "y", "Y":
			return m.confirm()
		case "n", "N", "esc":
			return m.cancelInput("Cancelled.")
		case "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "enter":
		return m.submitInput()
	case "esc":
		return m.cancelInput("Cancelled.")
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+up", "alt+=":
		return m.shiftInput(m.step), nil
	case "ctrl+down", "alt+-":
		return m.shiftInput(-m.step), nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.warning = m.inputWarning()
	return m, cmd
}

func (m Model) beginAdd(typ stampbook.Type) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	m.mode = modeAddMain
	m.inputLabel = "New entry (timestamp, then notes separated by |; Enter to save, Esc to cancel):"
	if typ == stampbook.TypeSub {
		m.mode = modeAddSub
		m.inputLabel = "New sub-entry (timestamp, then notes separated by |; Enter to save, Esc to cancel):"
	}
	m.input.SetValue("")
	m.input.Placeholder = "1:23 note | another note"
	m.warning = ""
	m.statusLine = ""
	m.errorLine = ""
	m.editingIndex = -1
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) beginEdit() (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	index := m.table.Cursor()
	entry, ok := m.collection.At(index)
	if !ok {
		return m, nil
	}

	m.mode = modeEditNote
	m.editingIndex = index
	m.inputLabel = fmt.Sprintf("Edit note for entry %d at %s (Enter to save, Esc to cancel):", index+1, entry.Timestamp)
	m.input.SetValue(entry.Notes)
	m.input.CursorEnd()
	m.input.Placeholder = ""
	m.warning = ""
	m.statusLine = ""
	m.errorLine = ""
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) beginConfirm(next mode) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	if m.collection.Len() == 0 {
		m.statusLine = "Nothing to remove."
		return m, nil
	}
	m.mode = next
	m.editingIndex = m.table.Cursor()
	m.statusLine = ""
	m.errorLine = ""
	return m, nil
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeAddMain, modeAddSub:
		ts, rest := splitLead(m.input.Value())
		if ts == "" {
			m.errorLine = "Timestamp cannot be empty."
			return m, nil
		}
		typ := stampbook.TypeMain
		if m.mode == modeAddSub {
			typ = stampbook.TypeSub
		}
		notes := stampbook.JoinNotes(stampbook.SplitNotes(rest))
		if err := m.collection.Add(ts, notes, typ); err != nil {
			m.errorLine = describeAddError(ts, err)
			return m, nil
		}
		m = m.resetInput()
		m.statusLine = fmt.Sprintf("Added %s.", ts)
		return m, nil
	case modeEditNote:
		index := m.editingIndex
		if !m.collection.UpdateNote(index, strings.TrimSpace(m.input.Value())) {
			return m.cancelInput("Entry no longer exists.")
		}
		m = m.resetInput()
		m.statusLine = fmt.Sprintf("Updated entry %d.", index+1)
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) confirm() (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeConfirmDelete:
		index := m.editingIndex
		entry, ok := m.collection.At(index)
		if !ok || !m.collection.Remove(index) {
			return m.cancelInput("Entry no longer exists.")
		}
		m = m.resetInput()
		m.statusLine = fmt.Sprintf("Deleted entry %d (%s).", index+1, entry.Timestamp)
	case modeConfirmClear:
		count := m.collection.Len()
		m.collection.ClearAll()
		m = m.resetInput()
		m.statusLine = fmt.Sprintf("Cleared %d entr%s.", count, plural(count))
	}
	return m, nil
}

func (m Model) cancelInput(message string) (tea.Model, tea.Cmd) {
	m = m.resetInput()
	if message != "" {
		m.statusLine = message
	}
	return m, nil
}

func (m Model) resetInput() Model {
	m.mode = modeNormal
	m.input.Blur()
	m.input.SetValue("")
	m.inputLabel = ""
	m.warning = ""
	m.errorLine = ""
	m.editingIndex = -1
	return m
}

// shiftInput moves the timestamp typed at the start of the input by delta
// seconds, keeping whatever follows it.
func (m Model) shiftInput(delta int) Model {
	if m.mode != modeAddMain && m.mode != modeAddSub {
		return m
	}
	ts, rest := splitLead(m.input.Value())
	if ts == "" {
		ts = "00:00"
	}
	if !timecode.Valid(ts) {
		m.warning = fmt.Sprintf("Cannot shift %q: not a timestamp.", ts)
		return m
	}
	m.input.SetValue(timecode.Shift(ts, delta) + rest)
	m.input.CursorEnd()
	m.warning = m.inputWarning()
	return m
}

func (m Model) inputWarning() string {
	if m.mode != modeAddMain && m.mode != modeAddSub {
		return ""
	}
	ts, _ := splitLead(m.input.Value())
	switch {
	case ts == "":
		return ""
	case !timecode.Valid(ts):
		return "Not a valid timestamp (mm:ss or h:mm:ss)."
	case m.collection.Exists(ts):
		return fmt.Sprintf("%s is already recorded.", ts)
	default:
		return ""
	}
}

func (m Model) handleChange(msg changeMsg) (tea.Model, tea.Cmd) {
	m.refreshRows()
	if msg.event.Kind == stampbook.EventAdded {
		m.table.SetCursor(msg.event.Index)
	}

	cmds := []tea.Cmd{m.waitForChange()}
	// Loads come from the file; writing them straight back is pointless.
	switch {
	case msg.event.Kind == stampbook.EventLoaded:
	case m.saving:
		m.dirty = true
	default:
		m.saving = true
		cmds = append(cmds, m.saveCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleLoaded(msg loadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.refreshRows()
	switch {
	case errors.Is(msg.err, fs.ErrNotExist):
		m.errorLine = ""
		m.statusLine = fmt.Sprintf("New session %s.", m.path)
	case msg.err != nil:
		m.errorLine = fmt.Sprintf("Failed to load %s: %v", m.path, msg.err)
		m.statusLine = ""
	default:
		m.errorLine = ""
		m.statusLine = fmt.Sprintf("Loaded %d entr%s.", msg.report.Accepted, plural(msg.report.Accepted))
		if msg.report.Rejected > 0 {
			m.statusLine += fmt.Sprintf(" Skipped %d unreadable line%s.", msg.report.Rejected, pluralS(msg.report.Rejected))
		}
	}
	return m, nil
}

func (m Model) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.errorLine = fmt.Sprintf("Save failed: %v", msg.err)
		m.logger.Error("ui: save failed", slog.String("path", m.path), slog.String("error", msg.err.Error()))
	}
	if m.dirty {
		m.dirty = false
		return m, m.saveCmd()
	}
	m.saving = false
	return m, nil
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	m.loading = true
	m.statusLine = "Reloading session..."
	m.errorLine = ""
	return m, m.loadCmd()
}

func (m *Model) refreshRows() {
	entries := m.collection.List()
	rows := make([]table.Row, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			entry.Timestamp,
			entry.DisplayNote(),
			entry.Added.Format(stampbook.AddedLayout),
		})
	}
	m.table.SetRows(rows)
	if len(rows) == 0 {
		return
	}
	switch cursor := m.table.Cursor(); {
	case cursor < 0:
		m.table.SetCursor(0)
	case cursor >= len(rows):
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m Model) loadCmd() tea.Cmd {
	ctx, store, path, collection := m.ctx, m.store, m.path, m.collection
	return func() tea.Msg {
		report, err := store.LoadInto(ctx, collection, path, false)
		return loadedMsg{report: report, err: err}
	}
}

func (m Model) saveCmd() tea.Cmd {
	ctx, store, path, collection := m.ctx, m.store, m.path, m.collection
	return func() tea.Msg {
		return savedMsg{err: store.Save(ctx, path, collection)}
	}
}

func (m Model) waitForChange() tea.Cmd {
	ctx, events := m.ctx, m.events
	return func() tea.Msg {
		select {
		case ev := <-events:
			return changeMsg{event: ev}
		case <-ctx.Done():
			return nil
		}
	}
}

// View renders the frame.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("tanda " + filepath.Base(m.path)))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString("Loading...\n")
	case m.collection.Len() == 0:
		b.WriteString("(no entries)\n")
	default:
		b.WriteString(m.table.View())
		b.WriteByte('\n')
	}

	if m.errorLine != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("! " + m.errorLine))
		b.WriteByte('\n')
	} else if m.statusLine != "" || m.saving {
		line := m.statusLine
		if m.saving {
			line = strings.TrimSpace(line + " Saving...")
		}
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(line))
		b.WriteByte('\n')
	}

	switch m.mode {
	case modeAddMain, modeAddSub, modeEditNote:
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(m.inputLabel))
		b.WriteByte('\n')
		b.WriteString(m.input.View())
		b.WriteByte('\n')
		if m.warning != "" {
			b.WriteString(warningStyle.Render(m.warning))
			b.WriteByte('\n')
		}
	case modeConfirmDelete:
		b.WriteString("\n")
		fmt.Fprintf(&b, "Delete entry %d? (y/n, Esc to cancel)", m.editingIndex+1)
		b.WriteByte('\n')
	case modeConfirmClear:
		b.WriteString("\n")
		fmt.Fprintf(&b, "Clear all %d entries? (y/n, Esc to cancel)", m.collection.Len())
		b.WriteByte('\n')
	}

	b.WriteString("\n")
	if m.mode == modeAddMain || m.mode == modeAddSub {
		b.WriteString(helpStyle.Render(fmt.Sprintf("ctrl+up/alt+= +%ds  ctrl+down/alt+- -%ds  enter save  esc cancel", m.step, m.step)))
	} else {
		b.WriteString(helpStyle.Render("j/k select  a add  s add sub  e edit note  d delete  C clear  r reload  q quit"))
	}
	b.WriteByte('\n')

	return b.String()
}

// splitLead separates the leading timestamp from the rest of the input. The
// rest keeps its leading whitespace.
func splitLead(value string) (string, string) {
	value = strings.TrimLeftFunc(value, unicode.IsSpace)
	i := strings.IndexFunc(value, unicode.IsSpace)
	if i < 0 {
		return value, ""
	}
	return value[:i], value[i:]
}

func describeAddError(ts string, err error) string {
	switch {
	case errors.Is(err, stampbook.ErrDuplicate):
		return fmt.Sprintf("%s is already recorded.", ts)
	case errors.Is(err, timecode.ErrInvalidFormat):
		return fmt.Sprintf("Invalid timestamp %q (expected mm:ss or h:mm:ss).", ts)
	default:
		return fmt.Sprintf("Add failed: %v", err)
	}
}

func plural(count int) string {
	if count == 1 {
		return "y"
	}
	return "ies"
}

func pluralS(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
