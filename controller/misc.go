package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health answers liveness probes. It is intentionally unauthenticated and
// does not touch AWS.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
