package helper

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RequestIdKey = "X-Request-Id"
)

// GenRequestID returns a sortable per-request identifier.
func GenRequestID() string {
	now := time.Now()
	return fmt.Sprintf("%s%d", now.Format("20060102150405"), now.UnixNano()%1e9)
}

// GenChatCompletionID mints an OpenAI-style completion id when the upstream
// response carries none.
func GenChatCompletionID() string {
	return "chatcmpl-" + uuid.NewString()
}
