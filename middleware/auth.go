package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/bedrock-relay/common/config"
	relaymodel "github.com/fuchsia74/bedrock-relay/relay/model"
)

// APIKeyAuth guards the /v1 surface with the static API key. The key travels
// as "Authorization: Bearer <key>" or, for Anthropic-style clients, as the
// x-api-key header.
func APIKeyAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if key == "" {
			key = c.GetHeader("x-api-key")
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(config.APIKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"message": "invalid API key",
					"type":    relaymodel.ErrTypeInvalidRequest,
					"code":    relaymodel.ErrCodeInvalidAPIKey,
				},
			})
			return
		}
		c.Next()
	}
}
