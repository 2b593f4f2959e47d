package engine

import (
	"hash/fnv"
	"sync"
)

// lockStripes is the number of series lock stripes.
const lockStripes = 64

// stripedLock maps series keys onto a fixed set of mutexes.
type stripedLock struct {
	stripes [lockStripes]sync.Mutex
}

func stripeIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % lockStripes)
}

// lock acquires the stripe for key and returns its release function.
func (l *stripedLock) lock(key string) func() {
	m := &l.stripes[stripeIndex(key)]
	m.Lock()
	return m.Unlock
}

// lockAll acquires every stripe in index order.
func (l *stripedLock) lockAll() func() {
	for i := range l.stripes {
		l.stripes[i].Lock()
	}
	return func() {
		for i := len(l.stripes) - 1; i >= 0; i-- {
			l.stripes[i].Unlock()
		}
	}
}
