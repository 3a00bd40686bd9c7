// Command api runs the connection graph service as a standalone HTTP
// server, for local development and container deployments.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"kinship-backend/internal/di"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.NewContainer(ctx)
	if err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}
	logger := container.Logger

	go container.Hub.Run()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", container.Config.Server.Port),
		Handler:      container.Router,
		ReadTimeout:  container.Config.Server.ReadTimeout,
		WriteTimeout: container.Config.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server listening",
			zap.String("addr", server.Addr),
			zap.String("environment", string(container.Config.Environment)))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), container.Config.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.Error("container shutdown failed", zap.Error(err))
	}
}
