// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package concurrent

import (
	"iter"
	"maps"
	"sync"
	"sync/atomic"
)

// Snapshot is a copy-on-write map. Reads load the currently published map
// without locking; writes serialize on a mutex, copy the map, apply the change
// and publish the copy atomically. Readers therefore never observe a partially
// applied write.
//
// The zero value is an empty Snapshot ready for use.
type Snapshot[K comparable, V any] struct {
	mu  sync.Mutex
	cur atomic.Pointer[map[K]V]
}

// Load returns the value stored under k in the current snapshot.
func (s *Snapshot[K, V]) Load(k K) (V, bool) {
	m := s.cur.Load()
	if m == nil {
		var zero V
		return zero, false
	}
	v, ok := (*m)[k]
	return v, ok
}

// StoreIfAbsent publishes a new snapshot containing k → v unless k is
// already present, in which case it reports false and nothing changes.
func (s *Snapshot[K, V]) StoreIfAbsent(k K, v V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.cur.Load()
	if old != nil {
		if _, exists := (*old)[k]; exists {
			return false
		}
	}

	next := s.clone(old, 1)
	next[k] = v
	s.cur.Store(&next)
	return true
}

// Update atomically replaces the value under k with the result of f. f sees
// the current value (and whether it exists) and may veto the write by
// returning an error, which Update returns unchanged.
func (s *Snapshot[K, V]) Update(k K, f func(V, bool) (V, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.cur.Load()
	var (
		cur V
		ok  bool
	)
	if old != nil {
		cur, ok = (*old)[k]
	}

	v, err := f(cur, ok)
	if err != nil {
		return err
	}

	next := s.clone(old, 1)
	next[k] = v
	s.cur.Store(&next)
	return nil
}

// Len returns the number of entries in the current snapshot.
func (s *Snapshot[K, V]) Len() int {
	m := s.cur.Load()
	if m == nil {
		return 0
	}
	return len(*m)
}

// All iterates over the entries of the snapshot current at the time of the call.
// Iteration order is unspecified.
func (s *Snapshot[K, V]) All() iter.Seq2[K, V] {
	m := s.cur.Load()
	return func(yield func(K, V) bool) {
		if m == nil {
			return
		}
		for k, v := range *m {
			if !yield(k, v) {
				return
			}
		}
	}
}

func (s *Snapshot[K, V]) clone(old *map[K]V, extra int) map[K]V {
	if old == nil {
		return make(map[K]V, extra)
	}
	next := make(map[K]V, len(*old)+extra)
	maps.Copy(next, *old)
	return next
}
