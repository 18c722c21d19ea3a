// Package keylock provides optional per-key mutual exclusion for
// read-modify-write sequences on stored documents.
//
// The default is Nop: concurrent edits of the same document are not
// serialized and the last writer wins.
package keylock

import "sync"

// Locker serializes callers that lock the same key.
type Locker interface {
	// Lock blocks until key is free and returns the function that releases it.
	Lock(key string) (unlock func())
}

type nop struct{}

func (nop) Lock(string) func() { return func() {} }

// Nop returns a Locker that never blocks.
func Nop() Locker { return nop{} }

type entry struct {
	mu   sync.Mutex
	refs int
}

// Map is a Locker holding one mutex per key in use. Entries are dropped
// once no caller holds or waits on them.
type Map struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// New returns an empty Map.
func New() *Map {
	return &Map{locks: make(map[string]*entry)}
}

func (m *Map) Lock(key string) func() {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			m.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(m.locks, key)
			}
			m.mu.Unlock()
		})
	}
}

// Len returns the number of keys currently held or awaited.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// Scoped prefixes every key with scope, so one Locker can be shared by
// several collections without collisions.
func Scoped(l Locker, scope string) Locker {
	return scoped{l: l, prefix: scope + "/"}
}

type scoped struct {
	l      Locker
	prefix string
}

func (s scoped) Lock(key string) func() { return s.l.Lock(s.prefix + key) }
