package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/fuchsia74/bedrock-relay/common/config"
)

func runAuth(t *testing.T, decorate func(*http.Request)) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var reached bool
	router := gin.New()
	router.GET("/v1/models", APIKeyAuth(), func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	decorate(req)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder, reached
}

func TestAPIKeyAuth(t *testing.T) {
	old := config.APIKey
	config.APIKey = "test-key"
	defer func() { config.APIKey = old }()

	t.Run("bearer token accepted", func(t *testing.T) {
		recorder, reached := runAuth(t, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer test-key")
		})
		require.Equal(t, http.StatusOK, recorder.Code)
		require.True(t, reached)
	})

	t.Run("x-api-key accepted", func(t *testing.T) {
		recorder, reached := runAuth(t, func(req *http.Request) {
			req.Header.Set("x-api-key", "test-key")
		})
		require.Equal(t, http.StatusOK, recorder.Code)
		require.True(t, reached)
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		recorder, reached := runAuth(t, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer nope")
		})
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
		require.False(t, reached)
		require.Contains(t, recorder.Body.String(), "invalid_api_key")
	})

	t.Run("missing key rejected", func(t *testing.T) {
		recorder, reached := runAuth(t, func(req *http.Request) {})
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
		require.False(t, reached)
	})
}
