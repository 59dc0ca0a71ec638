// Package ratelimit provides fixed-window request limiting keyed by client, backed by memory or
// Redis.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/andrasnagy-data/bizops/internal/shared/apperr"
	"github.com/andrasnagy-data/bizops/internal/shared/httpx"
)

// CodeLimited is returned when a client exceeds its window budget.
const CodeLimited = "R01-01"

const sweepInterval = 5 * time.Minute

type (
	Limiter interface {
		Allow(ctx context.Context, key string) Decision
		Close() error
	}

	Decision struct {
		Allowed   bool
		Count     int
		WindowEnd time.Time
	}

	Memory struct {
		limit  int
		window time.Duration
		now    func() time.Time

		mu      sync.Mutex
		entries map[string]Decision
		stop    chan struct{}
		once    sync.Once
	}
)

// NewMemory returns an in-process limiter. A limit of zero or less allows everything.
func NewMemory(limit int, window time.Duration) *Memory {
	if window <= 0 {
		window = time.Minute
	}
	m := &Memory{
		limit:   limit,
		window:  window,
		now:     time.Now,
		entries: make(map[string]Decision),
		stop:    make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

func (m *Memory) Allow(_ context.Context, key string) Decision {
	if m.limit <= 0 {
		return Decision{Allowed: true}
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.entries[key]
	if !ok || now.After(state.WindowEnd) {
		state = Decision{Allowed: true, Count: 1, WindowEnd: now.Add(m.window)}
		m.entries[key] = state
		return state
	}
	if state.Count >= m.limit {
		state.Allowed = false
		return state
	}
	state.Count++
	state.Allowed = true
	m.entries[key] = state
	return state
}

func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *Memory) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweep(m.now())
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, state := range m.entries {
		if now.After(state.WindowEnd) {
			delete(m.entries, key)
		}
	}
}

// Middleware limits requests per client IP under the given scope.
func Middleware(l Limiter, scope string, rp *httpx.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := l.Allow(r.Context(), scope+":"+clientIP(r))
			if !d.Allowed {
				if !d.WindowEnd.IsZero() {
					retry := int(time.Until(d.WindowEnd).Seconds()) + 1
					w.Header().Set("Retry-After", strconv.Itoa(retry))
				}
				rp.Error(w, r, apperr.New(apperr.TooManyRequests, CodeLimited))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
