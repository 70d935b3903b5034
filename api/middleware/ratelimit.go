package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/use-agent/serpent/models"
)

// RateLimit returns per-client token-bucket rate limiting middleware.
// Clients are identified by API key when authenticated, falling back to
// the remote IP. Idle limiters are evicted after an hour.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	type entry struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		mu      sync.Mutex
		clients = make(map[string]*entry)
	)

	// Periodic sweep so the client map does not grow without bound.
	go func() {
		for range time.Tick(10 * time.Minute) {
			mu.Lock()
			for id, e := range clients {
				if time.Since(e.lastSeen) > time.Hour {
					delete(clients, id)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		id := c.ClientIP()
		if key, ok := c.Get("api_key"); ok {
			id = key.(string)
		}

		mu.Lock()
		e, ok := clients[id]
		if !ok {
			e = &entry{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			clients[id] = e
		}
		e.lastSeen = time.Now()
		mu.Unlock()

		if !e.limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, slow down",
				},
			})
			return
		}

		c.Next()
	}
}
