package match

import "time"

// waitingQueue holds clients seeking a partner in FIFO insertion order.
//
// The linear scan in findMatch is fine at single-process scale; a larger
// deployment would index entries by mode and interest token.
type waitingQueue struct {
	entries []waitingEntry
}

// enqueue appends an entry for id unless one already exists.
func (q *waitingQueue) enqueue(id ClientID, interests []string, mode Mode, now time.Time) bool {
	if q.contains(id) {
		return false
	}
	q.entries = append(q.entries, waitingEntry{
		id:         id,
		interests:  interests,
		mode:       mode,
		enqueuedAt: now,
	})
	return true
}

// findMatch returns the oldest entry with the same mode whose interests
// qualify, skipping the requester's own entry.
//
// The interest test is deliberately one-directional: the requester matches
// when it has no interests at all, or when at least one of its interests
// appears in the entry's interests. The waiting entry's own interest list is
// not required to overlap symmetrically.
func (q *waitingQueue) findMatch(requester ClientID, interests []string, mode Mode) (waitingEntry, bool) {
	for _, entry := range q.entries {
		if entry.id == requester || entry.mode != mode {
			continue
		}
		if len(interests) == 0 || intersects(interests, entry.interests) {
			return entry, true
		}
	}
	return waitingEntry{}, false
}

// remove deletes the entry for id if present.
func (q *waitingQueue) remove(id ClientID) bool {
	for i, entry := range q.entries {
		if entry.id == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (q *waitingQueue) contains(id ClientID) bool {
	for _, entry := range q.entries {
		if entry.id == id {
			return true
		}
	}
	return false
}

func (q *waitingQueue) len() int { return len(q.entries) }

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
