package feed

import (
	"sync"

	"golang.org/x/time/rate"
)

// ClientLimiter hands out one frame limiter per connected renderer.
type ClientLimiter struct {
	clients map[string]*rate.Limiter
	mu      sync.Mutex
	r       rate.Limit
	b       int
}

func NewClientLimiter(r rate.Limit, b int) *ClientLimiter {
	return &ClientLimiter{
		clients: make(map[string]*rate.Limiter),
		r:       r,
		b:       b,
	}
}

// GetLimiter returns the limiter for key, creating it on first use.
func (l *ClientLimiter) GetLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.clients[key]
	if !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.clients[key] = limiter
	}

	return limiter
}

// Forget drops the limiter for a client that has disconnected.
func (l *ClientLimiter) Forget(key string) {
	l.mu.Lock()
	delete(l.clients, key)
	l.mu.Unlock()
}

func (l *ClientLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
