package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Limit is a request budget per client IP over Window.
type Limit struct {
	Requests int
	Window   time.Duration
	Message  string
}

var (
	// APILimit applies to every /api route.
	APILimit = Limit{Requests: 300, Window: 15 * time.Minute, Message: "Too many requests. Try again later."}
	// AuthLimit guards the login and register endpoints.
	AuthLimit = Limit{Requests: 20, Window: 15 * time.Minute, Message: "Too many attempts. Try again later."}
	// OrderLimit guards order placement and customer order lookups.
	OrderLimit = Limit{Requests: 60, Window: 10 * time.Minute, Message: "Too many requests. Try again later."}
)

const idleClientTTL = 30 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	limit   Limit
	mu      sync.Mutex
	clients map[string]*client
	now     func() time.Time
}

// NewRateLimiter builds a limiter whose bucket holds limit.Requests tokens
// and refills them evenly over limit.Window.
func NewRateLimiter(limit Limit) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

// Allow reports whether ip may make one more request now.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[ip]
	if !ok {
		every := rl.limit.Window / time.Duration(rl.limit.Requests)
		c = &client{limiter: rate.NewLimiter(rate.Every(every), rl.limit.Requests)}
		rl.clients[ip] = c
	}
	c.lastSeen = now

	rl.sweep(now)
	return c.limiter.AllowN(now, 1)
}

// sweep drops clients idle for longer than idleClientTTL. Callers hold mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for ip, c := range rl.clients {
		if now.Sub(c.lastSeen) > idleClientTTL {
			delete(rl.clients, ip)
		}
	}
}

// Middleware answers 429 once the caller's bucket is empty.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": rl.limit.Message})
			return
		}
		c.Next()
	}
}

// RateLimit is shorthand for NewRateLimiter(limit).Middleware().
func RateLimit(limit Limit) gin.HandlerFunc {
	return NewRateLimiter(limit).Middleware()
}
