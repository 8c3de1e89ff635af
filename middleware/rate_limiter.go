package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"giftbot/utils"
)

// IPRateLimiter implements per-IP fixed-window counters. Webhook and login
// routes sit behind it; everything else is unmetered.
type IPRateLimiter struct {
	max    int
	window time.Duration

	mu    sync.Mutex
	state map[string][]int64

	trustedProxies []string
}

func NewIPRateLimiter(max int, window time.Duration) *IPRateLimiter {
	l := &IPRateLimiter{
		max:    max,
		window: window,
		state:  make(map[string][]int64),
	}
	go l.cleanupLoop()
	return l
}

// TrustProxies sets the proxy addresses whose X-Forwarded-For header is
// believed.
func (l *IPRateLimiter) TrustProxies(proxies []string) *IPRateLimiter {
	l.trustedProxies = proxies
	return l
}

func (l *IPRateLimiter) cleanupLoop() {
	for range time.Tick(5 * time.Minute) {
		cutoff := time.Now().Add(-l.window).UnixNano()
		l.mu.Lock()
		for ip, stamps := range l.state {
			kept := stamps[:0]
			for _, s := range stamps {
				if s > cutoff {
					kept = append(kept, s)
				}
			}
			if len(kept) == 0 {
				delete(l.state, ip)
			} else {
				l.state[ip] = kept
			}
		}
		l.mu.Unlock()
	}
}

func (l *IPRateLimiter) allow(ip string) bool {
	now := time.Now().UnixNano()
	cutoff := now - l.window.Nanoseconds()

	l.mu.Lock()
	defer l.mu.Unlock()

	stamps := l.state[ip]
	kept := stamps[:0]
	for _, s := range stamps {
		if s > cutoff {
			kept = append(kept, s)
		}
	}
	if len(kept) >= l.max {
		l.state[ip] = kept
		return false
	}
	l.state[ip] = append(kept, now)
	return true
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r, l.trustedProxies)
		if !l.allow(ip) {
			w.Header().Set("Retry-After", l.window.String())
			utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
				Success: false,
				Message: "Too many requests",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP resolves the caller address. X-Forwarded-For is only honored
// when the direct peer is a trusted proxy; otherwise the header is
// spoofable.
func clientIP(r *http.Request, trustedProxies []string) string {
	remote := r.RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}

	trusted := false
	for _, p := range trustedProxies {
		if p == remote {
			trusted = true
			break
		}
	}
	if !trusted {
		return remote
	}

	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return remote
	}
	parts := strings.Split(xff, ",")
	if first := strings.TrimSpace(parts[0]); first != "" {
		return first
	}
	return remote
}
