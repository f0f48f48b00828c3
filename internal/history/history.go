// Package history keeps the linear undo/redo log of document snapshots.
package history

import "github.com/inamate/pagemark/internal/document"

// Log is a list of snapshots with a cursor at the current state. Pushing
// after an undo discards everything past the cursor.
type Log struct {
	entries []document.Snapshot
	cursor  int
	limit   int
}

// New returns a log holding at most limit entries; zero means unbounded.
func New(limit int) *Log {
	return &Log{cursor: -1, limit: limit}
}

// Reset seeds the log with the state the document was opened in, so the
// first recorded change can be undone.
func (l *Log) Reset(initial document.Snapshot) {
	l.entries = []document.Snapshot{initial.Clone()}
	l.cursor = 0
}

func (l *Log) Push(s document.Snapshot) {
	l.entries = append(l.entries[:l.cursor+1], s.Clone())
	l.cursor = len(l.entries) - 1
	if l.limit > 0 && len(l.entries) > l.limit {
		drop := len(l.entries) - l.limit
		l.entries = append([]document.Snapshot(nil), l.entries[drop:]...)
		l.cursor -= drop
	}
}

// Undo steps back one entry and returns the state to restore.
func (l *Log) Undo() (document.Snapshot, bool) {
	if !l.CanUndo() {
		return nil, false
	}
	l.cursor--
	return l.entries[l.cursor].Clone(), true
}

// Redo steps forward one entry and returns the state to restore.
func (l *Log) Redo() (document.Snapshot, bool) {
	if !l.CanRedo() {
		return nil, false
	}
	l.cursor++
	return l.entries[l.cursor].Clone(), true
}

func (l *Log) CanUndo() bool { return l.cursor > 0 }
func (l *Log) CanRedo() bool { return l.cursor >= 0 && l.cursor < len(l.entries)-1 }
func (l *Log) Len() int      { return len(l.entries) }
func (l *Log) Cursor() int   { return l.cursor }
