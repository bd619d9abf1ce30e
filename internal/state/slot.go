// Package state holds the single currently loaded record. There is one
// writer (a successful load) and many readers; a write always replaces the
// whole snapshot.
package state

import (
	"sync/atomic"
	"time"

	"taxreview/internal/taxrecord"
)

// Snapshot is an immutable view of the slot.
type Snapshot struct {
	Record   *taxrecord.Record
	Path     string // file the record was loaded from
	Version  uint64 // increments on every replacement
	LoadedAt time.Time
}

// Empty reports whether no record has been loaded.
func (s *Snapshot) Empty() bool { return s == nil || s.Record == nil }

// Slot is safe for concurrent use.
type Slot struct {
	cur atomic.Pointer[Snapshot]
}

// NewSlot returns an empty slot.
func NewSlot() *Slot {
	s := &Slot{}
	s.cur.Store(&Snapshot{})
	return s
}

// Load returns the current snapshot. It is never nil.
func (s *Slot) Load() *Snapshot {
	return s.cur.Load()
}

// Replace installs rec as the current record and returns the new snapshot.
// A nil rec is ignored so a failed load can never clear the slot.
func (s *Slot) Replace(rec *taxrecord.Record, path string) *Snapshot {
	for {
		old := s.cur.Load()
		if rec == nil {
			return old
		}
		next := &Snapshot{
			Record:   rec,
			Path:     path,
			Version:  old.Version + 1,
			LoadedAt: time.Now(),
		}
		if s.cur.CompareAndSwap(old, next) {
			return next
		}
	}
}
