package common

import (
	"github.com/gin-gonic/gin"
)

// SetEventStreamHeaders marks the response as a Server-Sent Events stream.
// Must be called before the first body write.
func SetEventStreamHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
}

// WriteSSE writes raw SSE bytes (already framed as "data: ...\n\n" or a
// ": comment\n\n" line) and flushes so the client sees them immediately.
func WriteSSE(c *gin.Context, data string) error {
	if _, err := c.Writer.WriteString(data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}
