package utils

import (
	"sort"
	"sync"
	"time"
)

// LatencyTracker keeps the most recent duration samples in a ring and
// reports percentiles over them.
type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	next    int
	full    bool
}

// LatencySnapshot summarises the samples held at one moment.
type LatencySnapshot struct {
	Count int           `json:"count"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	Max   time.Duration `json:"max"`
}

// NewLatencyTracker creates a tracker holding up to size samples.
func NewLatencyTracker(size int) *LatencyTracker {
	if size <= 0 {
		size = 512
	}
	return &LatencyTracker{samples: make([]time.Duration, size)}
}

// Observe records d, overwriting the oldest sample once the ring is full.
func (l *LatencyTracker) Observe(d time.Duration) {
	if d < 0 {
		d = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples[l.next] = d
	l.next = (l.next + 1) % len(l.samples)
	if l.next == 0 {
		l.full = true
	}
}

// Snapshot returns count, median, p95 and max of the held samples.
func (l *LatencyTracker) Snapshot() LatencySnapshot {
	l.mu.Lock()
	n := l.next
	if l.full {
		n = len(l.samples)
	}
	sorted := append([]time.Duration(nil), l.samples[:n]...)
	l.mu.Unlock()

	if n == 0 {
		return LatencySnapshot{}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return LatencySnapshot{
		Count: n,
		P50:   nearestRank(sorted, 50),
		P95:   nearestRank(sorted, 95),
		Max:   sorted[n-1],
	}
}

func nearestRank(sorted []time.Duration, p float64) time.Duration {
	idx := int(p/100*float64(len(sorted)-1) + 0.5)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
