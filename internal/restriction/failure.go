// Package restriction rate limits abuse-prone endpoints, either by
// counting failed attempts per client or by requiring a reCAPTCHA
// response.
package restriction

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"accounts-service/internal/web"

	"github.com/gin-gonic/gin"
)

// FailureSettings tune the failure-aware blocker.
type FailureSettings struct {
	// AttemptWindow is the duration failures are counted over.
	AttemptWindow time.Duration

	// AttemptCount is the number of failures allowed inside the window.
	AttemptCount int

	// BlockDuration is how long a client stays blocked.
	BlockDuration time.Duration
}

type failureRecord struct {
	failures     []time.Time
	blockedUntil time.Time
}

// Failure intercepts requests per client IP: after AttemptCount non-200
// responses inside AttemptWindow, further requests are rejected for
// BlockDuration. A nil settings disables the middleware.
//
// State is in-process only; distributed rate limiting is a collaborator
// concern.
func Failure(settings *FailureSettings) gin.HandlerFunc {
	if settings == nil {
		return func(c *gin.Context) { c.Next() }
	}

	window := settings.AttemptWindow
	if window <= 0 {
		window = time.Minute
	}
	count := settings.AttemptCount
	if count <= 0 {
		count = 5
	}
	blockFor := settings.BlockDuration
	if blockFor <= 0 {
		blockFor = 5 * time.Minute
	}

	var mu sync.Mutex
	records := make(map[string]*failureRecord)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		rec := records[ip]
		if rec == nil {
			rec = &failureRecord{}
			records[ip] = rec
		}
		if now.Before(rec.blockedUntil) {
			remaining := rec.blockedUntil.Sub(now)
			mu.Unlock()
			web.Error(c, fmt.Sprintf(
				"Operation is disabled due to too many failed attempts. Please try again in %d seconds",
				int(remaining.Round(time.Second).Seconds()),
			))
			c.Abort()
			return
		}
		mu.Unlock()

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			return
		}

		mu.Lock()
		defer mu.Unlock()
		kept := rec.failures[:0]
		for _, t := range rec.failures {
			if now.Sub(t) < window {
				kept = append(kept, t)
			}
		}
		rec.failures = append(kept, now)
		if len(rec.failures) >= count {
			rec.blockedUntil = now.Add(blockFor)
			rec.failures = nil
		}
	}
}
