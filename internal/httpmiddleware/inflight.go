package httpmiddleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// InFlight allows one running request per client. A second request from the
// same client is rejected rather than queued.
type InFlight struct {
	mu      sync.Mutex
	running map[string]struct{}
	message string
}

// NewInFlight creates a guard that answers rejected requests with message.
func NewInFlight(message string) *InFlight {
	if message == "" {
		message = "request already in progress"
	}
	return &InFlight{running: make(map[string]struct{}), message: message}
}

// Acquire marks key busy. It returns false when key is already busy.
func (g *InFlight) Acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.running[key]; busy {
		return false
	}
	g.running[key] = struct{}{}
	return true
}

// Release frees key.
func (g *InFlight) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, key)
}

// GinMiddleware guards the wrapped routes per client IP.
func (g *InFlight) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientKey(c)
		if !g.Acquire(key) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": g.message})
			return
		}
		defer g.Release(key)
		c.Next()
	}
}
