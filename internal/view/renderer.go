// Package view holds the rendered dashboard: a fixed set of named slots and
// tables that every other component writes through.
package view

import (
	"reflect"
	"sort"
	"sync"
	"time"
)

// Placeholder is the initial content of every slot
const Placeholder = "--"

// DefaultPulseDuration is how long a changed slot stays highlighted
const DefaultPulseDuration = 600 * time.Millisecond

// Cell is one table cell
type Cell struct {
	Text  string `json:"text"`
	Class string `json:"class,omitempty"`
}

// Slot is the exported state of a scalar slot
type Slot struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Classes   []string  `json:"classes,omitempty"`
	Pulsing   bool      `json:"pulsing"`
	Revision  uint64    `json:"revision"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Table is the exported state of a table slot. Rows is empty when the table
// shows EmptyMessage instead.
type Table struct {
	ID           string    `json:"id"`
	Columns      int       `json:"columns"`
	Rows         [][]Cell  `json:"rows"`
	EmptyMessage string    `json:"empty_message,omitempty"`
	Revision     uint64    `json:"revision"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// Snapshot is a consistent copy of the whole view
type Snapshot struct {
	Revision uint64           `json:"revision"`
	Slots    map[string]Slot  `json:"slots"`
	Tables   map[string]Table `json:"tables"`
	TakenAt  time.Time        `json:"taken_at"`
}

// ChangeKind says which part of a slot changed
type ChangeKind string

const (
	ChangeText    ChangeKind = "text"
	ChangeClasses ChangeKind = "classes"
	ChangeTable   ChangeKind = "table"
)

// Change is emitted once per effective write. Pulse is set for text changes,
// the only kind viewers animate. Subscribers receive changes in increasing
// Revision order; a viewer that started from a Snapshot drops changes at or
// below the snapshot's Revision.
type Change struct {
	Slot     string     `json:"slot"`
	Kind     ChangeKind `json:"kind"`
	Text     string     `json:"text,omitempty"`
	Classes  []string   `json:"classes,omitempty"`
	Table    *Table     `json:"table,omitempty"`
	Pulse    bool       `json:"pulse"`
	Revision uint64     `json:"revision"`
}

type slotState struct {
	text      string
	classes   map[string]bool
	pulsing   bool
	pulseGen  uint64
	revision  uint64
	updatedAt time.Time
}

// Renderer is the only mutation path for displayed values. A write that does
// not change anything is dropped without an event.
type Renderer struct {
	pubMu    sync.Mutex
	mu       sync.RWMutex
	slots    map[string]*slotState
	tables   map[string]*Table
	revision uint64

	pulseDuration time.Duration
	afterFunc     func(time.Duration, func())
	now           func() time.Time

	subMu       sync.RWMutex
	subscribers map[int]func(Change)
	nextSubID   int
}

// Option customises a Renderer
type Option func(*Renderer)

// WithPulseDuration overrides DefaultPulseDuration
func WithPulseDuration(d time.Duration) Option {
	return func(r *Renderer) { r.pulseDuration = d }
}

// WithAfterFunc replaces time.AfterFunc for pulse expiry
func WithAfterFunc(fn func(time.Duration, func())) Option {
	return func(r *Renderer) { r.afterFunc = fn }
}

// NewRenderer builds a renderer accepting writes for the slots of layout
func NewRenderer(layout Layout, opts ...Option) *Renderer {
	r := &Renderer{
		slots:         make(map[string]*slotState, len(layout.Slots)),
		tables:        make(map[string]*Table, len(layout.Tables)),
		pulseDuration: DefaultPulseDuration,
		afterFunc:     func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		now:           time.Now,
		subscribers:   make(map[int]func(Change)),
	}
	for _, id := range layout.Slots {
		r.slots[id] = &slotState{text: Placeholder, classes: map[string]bool{}}
	}
	for _, spec := range layout.Tables {
		r.tables[spec.ID] = &Table{ID: spec.ID, Columns: spec.Columns, Rows: [][]Cell{}}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Writer applies writes inside an Update batch
type Writer struct {
	r       *Renderer
	changes []Change
	pulses  map[string]uint64
}

// Update runs fn with the view locked. Readers see either none or all of the
// batch; change events are delivered after the batch commits, and batches
// publish one at a time in revision order.
func (r *Renderer) Update(fn func(w *Writer)) {
	w := &Writer{r: r, pulses: map[string]uint64{}}

	r.pubMu.Lock()
	defer r.pubMu.Unlock()

	func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		fn(w)
	}()

	for id, gen := range w.pulses {
		id, gen := id, gen
		r.afterFunc(r.pulseDuration, func() { r.clearPulse(id, gen) })
	}
	r.publish(w.changes)
}

// SetSlot writes text into a slot, see Writer.SetSlot
func (r *Renderer) SetSlot(id, text string) bool {
	var changed bool
	r.Update(func(w *Writer) { changed = w.SetSlot(id, text) })
	return changed
}

// SetClasses toggles classes on a slot, see Writer.SetClasses
func (r *Renderer) SetClasses(id string, classes map[string]bool) bool {
	var changed bool
	r.Update(func(w *Writer) { changed = w.SetClasses(id, classes) })
	return changed
}

// SetTable replaces a table, see Writer.SetTable
func (r *Renderer) SetTable(id string, rows [][]Cell, emptyMessage string) bool {
	var changed bool
	r.Update(func(w *Writer) { changed = w.SetTable(id, rows, emptyMessage) })
	return changed
}

// SetSlot replaces the slot text and starts a pulse. Writing the current text,
// or writing to an unknown slot, does nothing.
func (w *Writer) SetSlot(id, text string) bool {
	s, ok := w.r.slots[id]
	if !ok || s.text == text {
		return false
	}
	rev := w.r.bump()
	s.text = text
	s.pulsing = true
	s.pulseGen++
	s.revision = rev
	s.updatedAt = w.r.now()
	w.pulses[id] = s.pulseGen
	w.changes = append(w.changes, Change{
		Slot:     id,
		Kind:     ChangeText,
		Text:     text,
		Classes:  sortedClasses(s.classes),
		Pulse:    true,
		Revision: rev,
	})
	return true
}

// SetClasses turns each named class on or off. Classes not named keep their
// state.
func (w *Writer) SetClasses(id string, classes map[string]bool) bool {
	s, ok := w.r.slots[id]
	if !ok {
		return false
	}
	changed := false
	for class, on := range classes {
		if s.classes[class] == on {
			continue
		}
		changed = true
		if on {
			s.classes[class] = true
		} else {
			delete(s.classes, class)
		}
	}
	if !changed {
		return false
	}
	rev := w.r.bump()
	s.revision = rev
	s.updatedAt = w.r.now()
	w.changes = append(w.changes, Change{
		Slot:     id,
		Kind:     ChangeClasses,
		Text:     s.text,
		Classes:  sortedClasses(s.classes),
		Revision: rev,
	})
	return true
}

// SetTable replaces the rows of a table. An empty rows slice shows
// emptyMessage instead.
func (w *Writer) SetTable(id string, rows [][]Cell, emptyMessage string) bool {
	t, ok := w.r.tables[id]
	if !ok {
		return false
	}
	if rows == nil {
		rows = [][]Cell{}
	}
	if len(rows) > 0 {
		emptyMessage = ""
	}
	if t.EmptyMessage == emptyMessage && reflect.DeepEqual(t.Rows, rows) {
		return false
	}
	rev := w.r.bump()
	t.Rows = rows
	t.EmptyMessage = emptyMessage
	t.Revision = rev
	t.UpdatedAt = w.r.now()
	copied := copyTable(t)
	w.changes = append(w.changes, Change{
		Slot:     id,
		Kind:     ChangeTable,
		Table:    &copied,
		Revision: rev,
	})
	return true
}

// Slot returns one slot
func (r *Renderer) Slot(id string) (Slot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[id]
	if !ok {
		return Slot{}, false
	}
	return exportSlot(id, s), true
}

// Table returns one table
func (r *Renderer) Table(id string) (Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[id]
	if !ok {
		return Table{}, false
	}
	return copyTable(t), true
}

// Snapshot copies the whole view
func (r *Renderer) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := Snapshot{
		Revision: r.revision,
		Slots:    make(map[string]Slot, len(r.slots)),
		Tables:   make(map[string]Table, len(r.tables)),
		TakenAt:  r.now(),
	}
	for id, s := range r.slots {
		snap.Slots[id] = exportSlot(id, s)
	}
	for id, t := range r.tables {
		snap.Tables[id] = copyTable(t)
	}
	return snap
}

// Subscribe registers fn for change events and returns a cancel func. fn runs
// on the writer's goroutine, must not block and must not write to the
// renderer.
func (r *Renderer) Subscribe(fn func(Change)) func() {
	r.subMu.Lock()
	id := r.nextSubID
	r.nextSubID++
	r.subscribers[id] = fn
	r.subMu.Unlock()

	return func() {
		r.subMu.Lock()
		delete(r.subscribers, id)
		r.subMu.Unlock()
	}
}

func (r *Renderer) publish(changes []Change) {
	if len(changes) == 0 {
		return
	}
	r.subMu.RLock()
	subs := make([]func(Change), 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		subs = append(subs, fn)
	}
	r.subMu.RUnlock()

	for _, c := range changes {
		for _, fn := range subs {
			fn(c)
		}
	}
}

func (r *Renderer) clearPulse(id string, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.slots[id]; ok && s.pulseGen == gen {
		s.pulsing = false
	}
}

// bump must be called with mu held
func (r *Renderer) bump() uint64 {
	r.revision++
	return r.revision
}

func exportSlot(id string, s *slotState) Slot {
	return Slot{
		ID:        id,
		Text:      s.text,
		Classes:   sortedClasses(s.classes),
		Pulsing:   s.pulsing,
		Revision:  s.revision,
		UpdatedAt: s.updatedAt,
	}
}

func copyTable(t *Table) Table {
	c := *t
	c.Rows = make([][]Cell, len(t.Rows))
	for i, row := range t.Rows {
		c.Rows[i] = append([]Cell(nil), row...)
	}
	return c
}

func sortedClasses(classes map[string]bool) []string {
	if len(classes) == 0 {
		return nil
	}
	out := make([]string, 0, len(classes))
	for c := range classes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
