package middleware

import (
	"net/http"
	"sync"
	"time"

	"chicpos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Per-IP fixed window limiter ───────────────────────────────────────────────

type window struct {
	count int
	end   time.Time
}

type limiter struct {
	name   string
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*window
	purged  time.Time
}

func newLimiter(name string, limit int, period time.Duration) *limiter {
	return &limiter{name: name, limit: limit, period: period, now: time.Now, clients: make(map[string]*window)}
}

// allow counts one hit for ip and reports whether it is within the limit,
// plus the end of the current window.
func (l *limiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.purged) >= purgeInterval {
		l.purgeLocked(now)
	}

	w, ok := l.clients[ip]
	if !ok || now.After(w.end) {
		w = &window{end: now.Add(l.period)}
		l.clients[ip] = w
	}
	w.count++
	return w.count <= l.limit, w.end
}

// purgeLocked drops expired windows so IPs that never return do not accumulate.
func (l *limiter) purgeLocked(now time.Time) {
	purged := 0
	for ip, w := range l.clients {
		if now.After(w.end) {
			delete(l.clients, ip)
			purged++
		}
	}
	l.purged = now
	if purged > 0 {
		log.Debug().Str("limiter", l.name).Int("purged", purged).Int("remaining", len(l.clients)).
			Msg("rate limiter entries purged")
	}
}

func (l *limiter) handler(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, end := l.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", end.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

const purgeInterval = 5 * time.Minute

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return newLimiter("login", 20, time.Minute).
		handler("Muitas tentativas de login. Tente novamente em 1 minuto.")
}

// RateLimiter limits every request to limit per window per IP.
func RateLimiter(limit int, period time.Duration) gin.HandlerFunc {
	return newLimiter("api", limit, period).
		handler("Muitas requisições. Tente novamente em instantes.")
}
