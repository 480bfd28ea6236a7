package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/voxlate/internal/api"
	"github.com/satriahrh/voxlate/internal/bootstrap"
	"github.com/satriahrh/voxlate/internal/config"
	"github.com/satriahrh/voxlate/internal/websocket"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	envPath := flag.String("env", ".env", "path to a dotenv file (skipped when missing)")
	flag.Parse()

	cfg, err := config.Load(config.Options{ConfigPath: *configPath, DotEnvPath: *envPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := bootstrap.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app, err := bootstrap.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer app.Close()

	app.Janitor.Start()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	hub := websocket.NewHub(app.Service, websocket.Options{
		RequestTimeout:  cfg.Pipeline.RequestTimeout,
		MaxMessageBytes: int64(cfg.Server.MaxUploadMB) << 21, // base64 overhead
	}, logger)
	go hub.Run()

	// Initialize API routes
	api.InitRoutes(e, app.Service, app.OutputStore, hub, app.Metrics, api.Options{
		MaxUploadMB:    cfg.Server.MaxUploadMB,
		RequestTimeout: cfg.Pipeline.RequestTimeout,
	}, logger)

	addr := cfg.Server.Address + ":" + strconv.Itoa(cfg.Server.Port)

	// Graceful shutdown
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("address", addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	hub.Shutdown()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
