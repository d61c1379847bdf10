package bot

import "sync"

// userLocks serializes update handling per user. Telegram can deliver a
// command and a free-text message from the same user back to back; without
// this, both could observe the same session state and race on the
// active_command slot.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLockEntry
}

type userLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*userLockEntry)}
}

// lock acquires the per-user mutex and returns its release function.
// Entries are reference counted so the map does not grow without bound.
func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	e, ok := l.locks[userID]
	if !ok {
		e = &userLockEntry{}
		l.locks[userID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
