// Package flood rate limits API clients over a rolling one-minute window.
package flood

import (
	"sync"
	"time"
)

const (
	window        = time.Minute
	sweepInterval = 5 * time.Minute
)

// Floodgate admits at most limitPerMinute requests per client within any
// rolling minute. A limit of zero or less admits everything.
type Floodgate struct {
	limitPerMinute int
	now            func() time.Time

	mutex   sync.Mutex
	clients map[string]*history

	stopSweep chan struct{}
	stopOnce  sync.Once
}

// history is a ring of the most recent request times of one client. Once full,
// next points at the oldest entry.
type history struct {
	times []time.Time
	next  int
}

func (h *history) oldest() time.Time {
	return h.times[h.next]
}

func (h *history) newest() time.Time {
	if h.next == 0 {
		return h.times[len(h.times)-1]
	}
	return h.times[h.next-1]
}

// Option configures a Floodgate.
type Option func(*Floodgate)

// WithClock replaces time.Now as the source of request times.
func WithClock(now func() time.Time) Option {
	return func(fg *Floodgate) {
		fg.now = now
	}
}

// New creates a Floodgate. The expiry sweep only runs when limiting is enabled.
func New(limitPerMinute int, opts ...Option) *Floodgate {
	fg := &Floodgate{
		limitPerMinute: limitPerMinute,
		now:            time.Now,
		clients:        make(map[string]*history),
		stopSweep:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(fg)
	}

	if fg.Enabled() {
		go fg.sweep()
	}
	return fg
}

// Stop ends the expiry sweep. It is safe to call more than once.
func (fg *Floodgate) Stop() {
	fg.stopOnce.Do(func() {
		close(fg.stopSweep)
	})
}

// Enabled reports whether requests are limited at all.
func (fg *Floodgate) Enabled() bool {
	return fg.limitPerMinute > 0
}

// Allow records a request from clientID and reports whether it was admitted.
func (fg *Floodgate) Allow(clientID string) bool {
	_, ok := fg.Reserve(clientID)
	return ok
}

// Reserve records a request from clientID. When the client is over its limit
// the request is not recorded and retryAfter tells when the next one would be
// admitted.
func (fg *Floodgate) Reserve(clientID string) (retryAfter time.Duration, ok bool) {
	if !fg.Enabled() {
		return 0, true
	}

	now := fg.now()

	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	h, exists := fg.clients[clientID]
	if !exists {
		h = &history{times: make([]time.Time, 0, fg.limitPerMinute)}
		fg.clients[clientID] = h
	}

	if len(h.times) < fg.limitPerMinute {
		h.times = append(h.times, now)
		return 0, true
	}

	if expiry := h.oldest().Add(window); now.Before(expiry) {
		return expiry.Sub(now), false
	}

	h.times[h.next] = now
	h.next = (h.next + 1) % fg.limitPerMinute
	return 0, true
}

func (fg *Floodgate) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fg.performSweep()
		case <-fg.stopSweep:
			return
		}
	}
}

// performSweep forgets clients whose every request has left the window.
func (fg *Floodgate) performSweep() {
	cutoff := fg.now().Add(-window)

	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	for clientID, h := range fg.clients {
		if !h.newest().After(cutoff) {
			delete(fg.clients, clientID)
		}
	}
}

// GetStats returns statistics about the floodgate for monitoring/debugging
func (fg *Floodgate) GetStats() Stats {
	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	return Stats{
		ActiveClients:  len(fg.clients),
		LimitPerMinute: fg.limitPerMinute,
		WindowSeconds:  int(window.Seconds()),
	}
}

// Stats contains floodgate statistics
type Stats struct {
	ActiveClients  int `json:"active_clients"`
	LimitPerMinute int `json:"limit_per_minute"`
	WindowSeconds  int `json:"window_seconds"`
}
