package main

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"github.com/fuchsia74/bedrock-relay/common"
	"github.com/fuchsia74/bedrock-relay/common/client"
	"github.com/fuchsia74/bedrock-relay/common/config"
	"github.com/fuchsia74/bedrock-relay/common/graceful"
	"github.com/fuchsia74/bedrock-relay/common/logger"
	"github.com/fuchsia74/bedrock-relay/middleware"
	"github.com/fuchsia74/bedrock-relay/relay/adaptor/aws"
	"github.com/fuchsia74/bedrock-relay/router"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	common.Init()

	logger.Logger.Info("bedrock relay starting", zap.String("version", common.Version))

	if config.APIKey == "" {
		logger.Logger.Fatal("API_KEY must be set")
	}

	if !config.DebugEnabled {
		gin.SetMode(gin.ReleaseMode)
	}

	client.Init()
	if err := aws.Init(ctx); err != nil {
		logger.Logger.Fatal("failed to initialize AWS", zap.Error(err))
	}

	server := gin.New()
	server.RedirectTrailingSlash = false
	server.Use(
		gin.Recovery(),
		gmw.NewLoggerMiddleware(
			gmw.WithLoggerMwColored(),
			gmw.WithLevel(logger.Level().String()),
			gmw.WithLogger(logger.Logger.Named("gin")),
		),
	)
	server.Use(middleware.RequestId())
	router.SetRouter(server)

	addr := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	srv := &http.Server{
		Addr:    addr,
		Handler: server,
	}

	go func() {
		logger.Logger.Info("server started", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()
	logger.Logger.Info("shutdown signal received, draining...")
	graceful.SetDraining()

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(config.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("HTTP server shutdown", zap.Error(err))
	}
	if err := graceful.Drain(shutdownCtx); err != nil {
		logger.Logger.Error("failed to drain in-flight requests", zap.Error(err))
	}
	client.CloseIdleConnections()
	logger.Logger.Info("bedrock relay stopped")
}
