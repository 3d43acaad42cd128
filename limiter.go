package riverpress

import (
	"sync"
	"time"
)

// LoginLimiter counts failed admin logins per client IP within a sliding
// window.
type LoginLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	max      int
	window   time.Duration
	stop     chan struct{}
	once     sync.Once
}

// NewLoginLimiter creates a LoginLimiter that blocks an IP after max failed
// attempts inside window. Call Close to stop the background sweep.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	l := &LoginLimiter{
		failures: make(map[string][]time.Time),
		max:      max,
		window:   window,
		stop:     make(chan struct{}),
	}
	go l.sweep()
	return l
}

func (l *LoginLimiter) sweep() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-l.window)
			l.mu.Lock()
			for ip, hits := range l.failures {
				if kept := recent(hits, cutoff); len(kept) == 0 {
					delete(l.failures, ip)
				} else {
					l.failures[ip] = kept
				}
			}
			l.mu.Unlock()
		}
	}
}

func recent(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Check returns true if ip may attempt another login.
func (l *LoginLimiter) Check(ip string) bool {
	cutoff := time.Now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	hits, ok := l.failures[ip]
	if !ok {
		return true
	}
	kept := recent(hits, cutoff)
	l.failures[ip] = kept
	return len(kept) < l.max
}

// Record registers a failed login attempt for ip.
func (l *LoginLimiter) Record(ip string) {
	l.mu.Lock()
	l.failures[ip] = append(l.failures[ip], time.Now())
	l.mu.Unlock()
}

// Reset forgets the failures of ip, after a successful login.
func (l *LoginLimiter) Reset(ip string) {
	l.mu.Lock()
	delete(l.failures, ip)
	l.mu.Unlock()
}

// Close stops the background sweep.
func (l *LoginLimiter) Close() {
	l.once.Do(func() { close(l.stop) })
}
