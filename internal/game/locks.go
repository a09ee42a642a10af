package game

import "sync"

// RoomLocks provides per-room mutual exclusion. Every multi-step
// read-modify-write sequence touching a room's state runs under that room's
// lock; actions on different rooms proceed concurrently. Timer callbacks
// acquire the same lock, so a timer firing concurrently with a submission can
// never interleave with it.
type RoomLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRoomLocks creates an empty lock table.
func NewRoomLocks() *RoomLocks {
	return &RoomLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock for the named room, creating it on first use, and
// returns the unlock function. Lock entries are never removed; the table
// grows with the set of room names seen, which is bounded in practice by
// room-name reuse.
func (l *RoomLocks) Lock(room string) func() {
	l.mu.Lock()
	m, ok := l.locks[room]
	if !ok {
		m = &sync.Mutex{}
		l.locks[room] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
