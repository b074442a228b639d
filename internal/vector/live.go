package vector

import "sync"

// Live holds the index currently serving queries. Ingestion builds a
// fresh index off to the side and swaps it in whole, so readers never see
// a partially built one.
type Live struct {
	mu sync.RWMutex
	ix *Index
}

// Swap installs a new index. Searches in flight keep the old one.
func (l *Live) Swap(ix *Index) {
	l.mu.Lock()
	l.ix = ix
	l.mu.Unlock()
}

// Current returns the serving index, or nil when nothing has been
// ingested yet.
func (l *Live) Current() *Index {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ix
}
