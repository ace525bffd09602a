// Package history keeps the linear undo/redo log of scene snapshots.
package history

import "github.com/sketchify/sketchify/backend-go/internal/scene"

// Log is a linear sequence of scene snapshots with a cursor. entries[:cursor+1]
// is the past and present, entries[cursor+1:] the redo-able future. A Log is
// not safe for concurrent use.
type Log struct {
	entries []*scene.Scene
	cursor  int
	limit   int
}

// New creates an empty log. A positive limit caps the number of retained
// entries by dropping the oldest; zero keeps everything.
func New(limit int) *Log {
	return &Log{cursor: -1, limit: max(limit, 0)}
}

// Commit snapshots s, discarding any redo tail.
func (l *Log) Commit(s *scene.Scene) {
	l.entries = append(l.entries[:l.cursor+1], s.Clone())
	if l.limit > 0 && len(l.entries) > l.limit {
		drop := len(l.entries) - l.limit
		clear(l.entries[:drop])
		l.entries = l.entries[drop:]
	}
	l.cursor = len(l.entries) - 1
}

// Undo steps back one entry and returns a copy of it. It is a no-op at the
// first entry.
func (l *Log) Undo() (*scene.Scene, bool) {
	if !l.CanUndo() {
		return nil, false
	}
	l.cursor--
	return l.entries[l.cursor].Clone(), true
}

// Redo steps forward one entry and returns a copy of it. It is a no-op at the
// last entry.
func (l *Log) Redo() (*scene.Scene, bool) {
	if !l.CanRedo() {
		return nil, false
	}
	l.cursor++
	return l.entries[l.cursor].Clone(), true
}

func (l *Log) CanUndo() bool { return l.cursor > 0 }

func (l *Log) CanRedo() bool { return l.cursor >= 0 && l.cursor < len(l.entries)-1 }

// Current returns a copy of the entry under the cursor.
func (l *Log) Current() (*scene.Scene, bool) {
	if l.cursor < 0 {
		return nil, false
	}
	return l.entries[l.cursor].Clone(), true
}

func (l *Log) Len() int { return len(l.entries) }

func (l *Log) Cursor() int { return l.cursor }

// State summarises the log for clients deciding whether undo/redo buttons are
// enabled.
type State struct {
	Cursor  int  `json:"cursor"`
	Length  int  `json:"length"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

func (l *Log) State() State {
	return State{Cursor: l.cursor, Length: len(l.entries), CanUndo: l.CanUndo(), CanRedo: l.CanRedo()}
}
