package http

import (
	"sync"
	"time"
)

const (
	rateLimitPerWindow = 60
	rateLimitWindow    = time.Minute
	visitorMaxIdle     = 10 * time.Minute
)

// rateLimiter counts mutating requests per client IP over a fixed window.
// Entries for idle clients are swept in the background.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	done     chan struct{}
	once     sync.Once
}

type visitor struct {
	windowStart time.Time
	count       int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		done:     make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// allow records one request for the client and reports whether the
// current window still has room for it.
func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.visitors[clientIP]
	if !ok || now.Sub(v.windowStart) > rateLimitWindow {
		rl.visitors[clientIP] = &visitor{windowStart: now, count: 1}
		return true
	}

	v.count++
	return v.count <= rateLimitPerWindow
}

func (rl *rateLimiter) sweep() {
	ticker := time.NewTicker(visitorMaxIdle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-visitorMaxIdle)
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if v.windowStart.Before(cutoff) {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.done:
			return
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() {
		close(rl.done)
	})
}
