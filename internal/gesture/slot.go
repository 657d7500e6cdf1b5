package gesture

import (
	"sync"

	"github.com/ayusman/exoform/internal/spell"
)

// Slot holds at most one resolved spell record for display.
//
// Writers take a ticket before starting work and publish with it later. Clear
// and Close invalidate outstanding tickets, so a result that resolves after
// its hold ended or after teardown is dropped.
type Slot struct {
	mu     sync.Mutex
	record spell.Record
	held   bool
	gen    uint64
	closed bool
}

// NewSlot creates an empty Slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Ticket returns the current publish ticket.
func (s *Slot) Ticket() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Publish stores rec if ticket is still current and the slot is open.
// It reports whether the record was stored.
func (s *Slot) Publish(ticket uint64, rec spell.Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || ticket != s.gen {
		return false
	}
	s.record = rec
	s.held = true
	return true
}

// Get returns the held record, if any.
func (s *Slot) Get() (spell.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record, s.held
}

// Held reports whether a record is currently held.
func (s *Slot) Held() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held
}

// Clear drops the held record and invalidates outstanding tickets.
func (s *Slot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record = spell.Record{}
	s.held = false
	s.gen++
}

// Close clears the slot and rejects every later Publish.
func (s *Slot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record = spell.Record{}
	s.held = false
	s.closed = true
	s.gen++
}

// Closed reports whether Close was called.
func (s *Slot) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
