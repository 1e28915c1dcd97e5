package flood

import (
	"sync"
	"testing"
	"time"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestFloodgate_Allow_NormalUsage(t *testing.T) {
	fg := New(3)
	defer fg.Stop()

	for i := 0; i < 3; i++ {
		if !fg.Allow("10.0.0.1") {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	if fg.Allow("10.0.0.1") {
		t.Error("4th request should be blocked")
	}
}

func TestFloodgate_Allow_SlidingWindow(t *testing.T) {
	clock := newTestClock()
	fg := New(2, WithClock(clock.Now))
	defer fg.Stop()

	client := "10.0.0.1"
	if !fg.Allow(client) || !fg.Allow(client) {
		t.Fatal("First two requests should be allowed")
	}
	if fg.Allow(client) {
		t.Error("Third request should be blocked")
	}

	clock.Advance(window + time.Second)
	if !fg.Allow(client) {
		t.Error("Request after window slide should be allowed")
	}
}

func TestFloodgate_Reserve_RetryAfter(t *testing.T) {
	clock := newTestClock()
	fg := New(2, WithClock(clock.Now))
	defer fg.Stop()

	fg.Allow("a")
	clock.Advance(10 * time.Second)
	fg.Allow("a")
	clock.Advance(10 * time.Second)

	retryAfter, ok := fg.Reserve("a")
	if ok {
		t.Fatal("Third request within the window should be blocked")
	}
	if retryAfter != 40*time.Second {
		t.Errorf("retryAfter = %v, expected 40s", retryAfter)
	}

	// The oldest request leaves the window exactly one minute after it was made
	clock.Advance(40 * time.Second)
	if _, ok := fg.Reserve("a"); !ok {
		t.Fatal("Request should be allowed once the oldest one expired")
	}

	retryAfter, ok = fg.Reserve("a")
	if ok {
		t.Fatal("Window is full again and the request should be blocked")
	}
	if retryAfter != 10*time.Second {
		t.Errorf("retryAfter = %v, expected 10s", retryAfter)
	}
}

func TestFloodgate_Reserve_BlockedRequestsAreNotRecorded(t *testing.T) {
	clock := newTestClock()
	fg := New(1, WithClock(clock.Now))
	defer fg.Stop()

	fg.Allow("a")
	for i := 0; i < 5; i++ {
		clock.Advance(10 * time.Second)
		fg.Allow("a")
	}

	clock.Advance(10 * time.Second)
	if !fg.Allow("a") {
		t.Error("Rejected requests should not extend the window")
	}
}

func TestFloodgate_Allow_PerClient(t *testing.T) {
	fg := New(1)
	defer fg.Stop()

	if !fg.Allow("a") || !fg.Allow("b") {
		t.Fatal("First request of each client should be allowed")
	}
	if fg.Allow("a") {
		t.Error("Second request from a should be blocked")
	}
	if fg.Allow("b") {
		t.Error("Second request from b should be blocked")
	}
}

func TestFloodgate_Disabled(t *testing.T) {
	fg := New(0)
	defer fg.Stop()

	if fg.Enabled() {
		t.Error("Zero limit should disable the floodgate")
	}
	for i := 0; i < 100; i++ {
		if retryAfter, ok := fg.Reserve("a"); !ok || retryAfter != 0 {
			t.Fatalf("Request %d should be allowed when disabled", i+1)
		}
	}
	if stats := fg.GetStats(); stats.ActiveClients != 0 {
		t.Errorf("Disabled floodgate should not track clients, got %d", stats.ActiveClients)
	}
}

func TestFloodgate_GetStats(t *testing.T) {
	fg := New(5)
	defer fg.Stop()

	stats := fg.GetStats()
	if stats.ActiveClients != 0 {
		t.Errorf("Expected 0 active clients initially, got %d", stats.ActiveClients)
	}
	if stats.LimitPerMinute != 5 {
		t.Errorf("Expected limit per minute 5, got %d", stats.LimitPerMinute)
	}
	if stats.WindowSeconds != 60 {
		t.Errorf("Expected window seconds 60, got %d", stats.WindowSeconds)
	}

	fg.Allow("a")
	fg.Allow("b")
	fg.Allow("a")

	if stats = fg.GetStats(); stats.ActiveClients != 2 {
		t.Errorf("Expected 2 active clients, got %d", stats.ActiveClients)
	}
}

func TestFloodgate_Sweep(t *testing.T) {
	clock := newTestClock()
	fg := New(3, WithClock(clock.Now))
	defer fg.Stop()

	fg.Allow("idle")
	clock.Advance(50 * time.Second)
	fg.Allow("active")
	clock.Advance(20 * time.Second)

	fg.performSweep()
	if stats := fg.GetStats(); stats.ActiveClients != 1 {
		t.Fatalf("Expected only the idle client to be removed, got %d clients", stats.ActiveClients)
	}

	clock.Advance(40 * time.Second)
	fg.performSweep()
	if stats := fg.GetStats(); stats.ActiveClients != 0 {
		t.Errorf("Expected every client to be removed, got %d", stats.ActiveClients)
	}
}

func TestFloodgate_StopTwice(t *testing.T) {
	fg := New(1)
	fg.Stop()
	fg.Stop()
}

func TestFloodgate_ConcurrentAccess(t *testing.T) {
	fg := New(10)
	defer fg.Stop()

	done := make(chan bool, 10)
	allowed := make(chan bool, 50)

	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 5; j++ {
				allowed <- fg.Allow("shared")
				fg.GetStats()
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	if count != 10 {
		t.Errorf("Expected exactly 10 allowed requests, got %d", count)
	}
}
