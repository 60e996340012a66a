package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fuchsia74/bedrock-relay/controller"
	"github.com/fuchsia74/bedrock-relay/middleware"
)

// SetRouter registers every route of the relay.
func SetRouter(server *gin.Engine) {
	server.Use(middleware.CORS())

	server.GET("/health", controller.Health)
	server.GET("/metrics", middleware.APIKeyAuth(), gin.WrapH(promhttp.Handler()))

	v1 := server.Group("/v1")
	v1.Use(middleware.APIKeyAuth())
	{
		v1.GET("/models", controller.ListModels)
		v1.GET("/models/:model", controller.RetrieveModel)
		v1.POST("/chat/completions", controller.RelayChatCompletions)
	}
}
