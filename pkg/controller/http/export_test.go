package http

import "time"

// RateLimiterForTest exposes the per-address limiter for testing purposes
type RateLimiterForTest struct {
	l *ipRateLimiter
}

func NewRateLimiterForTest(rps float64, burst, capacity int, now func() time.Time) *RateLimiterForTest {
	return &RateLimiterForTest{l: newIPRateLimiter(rps, burst, capacity, now)}
}

func (x *RateLimiterForTest) Allow(ip string) bool {
	return x.l.allow(ip)
}

func (x *RateLimiterForTest) Size() int {
	x.l.mu.Lock()
	defer x.l.mu.Unlock()
	return len(x.l.limiters)
}
