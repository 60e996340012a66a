package controller

import (
	"context"
	"net/http"

	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/fuchsia74/bedrock-relay/common/config"
	"github.com/fuchsia74/bedrock-relay/relay/adaptor/aws"
	relaymodel "github.com/fuchsia74/bedrock-relay/relay/model"
)

// ListModels handles GET /v1/models with the Anthropic models currently
// active on Bedrock, newest first.
func ListModels(c *gin.Context) {
	ctx, cancel := context.WithTimeout(gmw.Ctx(c), config.ModelsTimeout)
	defer cancel()

	models, err := aws.Models.List(ctx)
	if err != nil {
		gmw.GetLogger(c).Error("failed to list models", zap.Error(err))
		abortWithOpenAIError(c, openAIError(http.StatusInternalServerError,
			"failed to list models: "+err.Error(),
			relaymodel.ErrTypeServer, relaymodel.ErrCodeServerError))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   models,
	})
}

// RetrieveModel handles GET /v1/models/:model.
func RetrieveModel(c *gin.Context) {
	ctx, cancel := context.WithTimeout(gmw.Ctx(c), config.ModelsTimeout)
	defer cancel()

	modelID := c.Param("model")
	model, ok := aws.Models.Get(ctx, modelID)
	if !ok {
		abortWithOpenAIError(c, openAIError(http.StatusNotFound,
			"model not found: "+modelID,
			relaymodel.ErrTypeInvalidRequest, relaymodel.ErrCodeModelNotFound))
		return
	}
	c.JSON(http.StatusOK, model)
}
