package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const ipLimiterTTL = 1 * time.Hour

// ipLimiterEntry: tracks a rate limiter and its last use time
type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimit: connection attempts per IP address
type IPRateLimit struct {
	limiters map[string]*ipLimiterEntry
	every    time.Duration
	burst    int
	mu       sync.Mutex
}

// NewIPRateLimit: 10 connections per minute, burst of 5
func NewIPRateLimit() *IPRateLimit {
	return NewIPRateLimitWith(6*time.Second, 5)
}

func NewIPRateLimitWith(every time.Duration, burst int) *IPRateLimit {
	return &IPRateLimit{
		limiters: make(map[string]*ipLimiterEntry),
		every:    every,
		burst:    burst,
	}
}

// Allow: checks if an IP is allowed to open another connection
func (iprl *IPRateLimit) Allow(ip string) bool {
	iprl.mu.Lock()
	defer iprl.mu.Unlock()

	entry, exists := iprl.limiters[ip]
	if !exists {
		entry = &ipLimiterEntry{limiter: rate.NewLimiter(rate.Every(iprl.every), iprl.burst)}
		iprl.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()

	return entry.limiter.Allow()
}

// Cleanup: removes limiters unused for an hour
func (iprl *IPRateLimit) Cleanup() {
	iprl.cleanup(time.Now())
}

func (iprl *IPRateLimit) cleanup(now time.Time) {
	iprl.mu.Lock()
	defer iprl.mu.Unlock()

	for ip, entry := range iprl.limiters {
		if now.Sub(entry.lastSeen) > ipLimiterTTL {
			delete(iprl.limiters, ip)
		}
	}
}
