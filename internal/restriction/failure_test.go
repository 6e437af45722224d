package restriction

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"accounts-service/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func failingRouter(settings *FailureSettings) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", Failure(settings), func(c *gin.Context) {
		if c.Query("ok") == "1" {
			c.JSON(http.StatusOK, gin.H{"success": "ok"})
			return
		}
		web.Error(c, "nope")
	})
	return r
}

func post(r *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.RemoteAddr = "198.51.100.7:4242"
	r.ServeHTTP(rec, req)
	return rec
}

func TestFailureBlocksAfterRepeatedFailures(t *testing.T) {
	r := failingRouter(&FailureSettings{
		AttemptWindow: time.Minute,
		AttemptCount:  3,
		BlockDuration: 5 * time.Minute,
	})

	for i := 0; i < 3; i++ {
		rec := post(r, "/login")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "nope")
	}

	// fourth attempt is rejected by the blocker, not the handler
	rec := post(r, "/login")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Operation is disabled due to too many failed attempts")
}

func TestFailureIgnoresSuccesses(t *testing.T) {
	r := failingRouter(&FailureSettings{
		AttemptWindow: time.Minute,
		AttemptCount:  2,
		BlockDuration: 5 * time.Minute,
	})

	for i := 0; i < 5; i++ {
		rec := post(r, "/login?ok=1")
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := post(r, "/login")
	assert.Contains(t, rec.Body.String(), "nope")
}

func TestFailureNilSettingsPassThrough(t *testing.T) {
	r := failingRouter(nil)

	for i := 0; i < 10; i++ {
		rec := post(r, "/login")
		assert.Contains(t, rec.Body.String(), "nope")
	}
}
