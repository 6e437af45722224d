// Package web holds the uniform response contract: successes are
// {"success": ...} with HTTP 200, errors are {"error": ...} with HTTP 400.
package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success writes a 200 response. A string message is wrapped in a success
// envelope; any other payload is returned as-is.
func Success(c *gin.Context, message any) {
	if s, ok := message.(string); ok {
		c.JSON(http.StatusOK, gin.H{"success": s})
		return
	}
	c.JSON(http.StatusOK, message)
}

// Error writes a 400 response with the error envelope.
func Error(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
