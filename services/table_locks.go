package services

import (
	"sort"
	"sync"
)

// tableLocks hands out one mutex per table id. Entries are dropped once no
// caller holds or waits on them.
type tableLocks struct {
	mu    sync.Mutex
	locks map[uint]*tableLock
}

type tableLock struct {
	mu   sync.Mutex
	refs int
}

func newTableLocks() *tableLocks {
	return &tableLocks{locks: make(map[uint]*tableLock)}
}

// lock acquires every id in ascending order and returns the matching unlock.
// Calling unlock more than once is a no-op.
func (tl *tableLocks) lock(ids ...uint) func() {
	ids = uniqueSorted(ids)

	held := make([]*tableLock, 0, len(ids))
	for _, id := range ids {
		tl.mu.Lock()
		l, ok := tl.locks[id]
		if !ok {
			l = &tableLock{}
			tl.locks[id] = l
		}
		l.refs++
		tl.mu.Unlock()

		l.mu.Lock()
		held = append(held, l)
	}

	var once sync.Once
	return func() { once.Do(func() { tl.release(ids, held) }) }
}

func (tl *tableLocks) release(ids []uint, held []*tableLock) {
	for i := len(held) - 1; i >= 0; i-- {
		held[i].mu.Unlock()

		tl.mu.Lock()
		held[i].refs--
		if held[i].refs == 0 {
			delete(tl.locks, ids[i])
		}
		tl.mu.Unlock()
	}
}

func uniqueSorted(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
