package httpx

import (
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginRateLimiter throttles credential submissions per client IP.
type LoginRateLimiter struct {
	interval time.Duration
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
	trusted  []netip.Prefix

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginRateLimiter allows perMinute attempts per IP with the given burst.
// Forwarded client addresses are honored only on connections from a trusted
// proxy. A non-positive perMinute disables limiting.
func NewLoginRateLimiter(perMinute, burst int, trusted ...netip.Prefix) *LoginRateLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	interval := time.Minute / time.Duration(perMinute)
	return &LoginRateLimiter{
		interval: interval,
		limit:    rate.Every(interval),
		burst:    burst,
		idle:     10 * time.Minute,
		now:      time.Now,
		trusted:  trusted,
		visitors: make(map[string]*visitor),
	}
}

// Allow reports whether ip may attempt a login now.
func (l *LoginRateLimiter) Allow(ip string) bool {
	if l == nil {
		return true
	}
	now := l.now()
	l.mu.Lock()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	l.mu.Unlock()
	return v.limiter.AllowN(now, 1)
}

// Sweep forgets visitors idle longer than the retention window.
func (l *LoginRateLimiter) Sweep() int {
	if l == nil {
		return 0
	}
	cutoff := l.now().Add(-l.idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
			removed++
		}
	}
	return removed
}

// Middleware rejects over-limit requests with 429 and a Retry-After hint.
func (l *LoginRateLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	retry := strconv.Itoa(int(math.Ceil(l.interval.Seconds())))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(l.clientIP(r)) {
			w.Header().Set("Retry-After", retry)
			http.Error(w, "Too many login attempts. Please wait and try again.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the address the limiter keys on. The connection address
// is used unless it belongs to a trusted proxy, in which case the first
// X-Forwarded-For hop or X-Real-IP is taken when it parses as an IP.
func (l *LoginRateLimiter) clientIP(r *http.Request) string {
	conn := remoteIP(r.RemoteAddr)
	if !l.fromTrustedProxy(conn) {
		return conn
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip
	}
	return conn
}

func (l *LoginRateLimiter) fromTrustedProxy(ip string) bool {
	if len(l.trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range l.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
