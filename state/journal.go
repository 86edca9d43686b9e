// Package state holds the engine's arena storage. Every mutation is recorded
// in a journal so a failed operation can be rolled back to its snapshot.
package state

// Journal is a list of undo steps. It is not safe for concurrent use.
type Journal struct {
	entries []func()
}

// Snapshot returns an id usable with RevertToSnapshot.
func (j *Journal) Snapshot() int {
	return len(j.entries)
}

// RevertToSnapshot undoes every change recorded after id, newest first.
func (j *Journal) RevertToSnapshot(id int) {
	if id < 0 || id > len(j.entries) {
		return
	}
	for i := len(j.entries) - 1; i >= id; i-- {
		j.entries[i]()
	}
	j.entries = j.entries[:id]
}

// Commit forgets all undo steps.
func (j *Journal) Commit() {
	clear(j.entries)
	j.entries = j.entries[:0]
}

// Len is the number of pending undo steps.
func (j *Journal) Len() int {
	return len(j.entries)
}

// Append records an arbitrary undo step.
func (j *Journal) Append(undo func()) {
	j.entries = append(j.entries, undo)
}

// Put writes m[k] = v and records how to restore the previous entry.
func Put[K comparable, V any](j *Journal, m map[K]V, k K, v V) {
	prev, existed := m[k]
	j.Append(func() {
		if existed {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
	m[k] = v
}

// Delete removes m[k] and records how to restore it.
func Delete[K comparable, V any](j *Journal, m map[K]V, k K) {
	prev, existed := m[k]
	if !existed {
		return
	}
	j.Append(func() { m[k] = prev })
	delete(m, k)
}

// Set assigns *p = v and records the previous value.
func Set[T any](j *Journal, p *T, v T) {
	prev := *p
	j.Append(func() { *p = prev })
	*p = v
}
