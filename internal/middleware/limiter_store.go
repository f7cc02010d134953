package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterStore keeps per-key token buckets in memory. It backs RateLimit when
// Redis is unreachable so limits still apply per instance.
type LimiterStore struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*limiterEntry
	idleTTL time.Duration
	stopCh  chan struct{}
	stopped sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiterStore allows limit events per window per key with the given burst.
// Entries idle for longer than idleTTL are swept every cleanupInterval.
func NewLimiterStore(limit int, window time.Duration, burst int, cleanupInterval, idleTTL time.Duration) *LimiterStore {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	if burst <= 0 {
		burst = limit
	}
	s := &LimiterStore{
		limit:   rate.Every(window / time.Duration(limit)),
		burst:   burst,
		clients: map[string]*limiterEntry{},
		idleTTL: idleTTL,
		stopCh:  make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.cleanupLoop(cleanupInterval)
	}
	return s
}

func (s *LimiterStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep(time.Now())
		case <-s.stopCh:
			return
		}
	}
}

func (s *LimiterStore) sweep(now time.Time) {
	cutoff := now.Add(-s.idleTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.clients {
		if v.lastSeen.Before(cutoff) {
			delete(s.clients, k)
		}
	}
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (s *LimiterStore) Stop() {
	s.stopped.Do(func() { close(s.stopCh) })
}

func (s *LimiterStore) getLimiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.clients[key]; ok {
		e.lastSeen = time.Now()
		return e.limiter
	}
	limiter := rate.NewLimiter(s.limit, s.burst)
	s.clients[key] = &limiterEntry{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

// Allow checks whether an event for the given key is permitted.
func (s *LimiterStore) Allow(key string) bool {
	return s.getLimiter(key).Allow()
}

// Len returns the number of tracked keys.
func (s *LimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
