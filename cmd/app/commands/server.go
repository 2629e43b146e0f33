package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/fieldsrv/guardpost/internal/app"
	"github.com/fieldsrv/guardpost/internal/config"
	cryptoUsecase "github.com/fieldsrv/guardpost/internal/crypto/usecase"
	internalHTTP "github.com/fieldsrv/guardpost/internal/http"
)

// RunServer starts the HTTP server with graceful shutdown support.
// Loads configuration, initializes the DI container, and starts the Gin HTTP server
// plus the key rotation worker. Blocks until receiving SIGINT/SIGTERM or encountering
// a fatal error.
func RunServer(ctx context.Context, version string) error {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Set Gin mode based on log level
	gin.SetMode(cfg.GetGinMode())

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	// Get HTTP server from container (this initializes all dependencies)
	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	// Get Metrics server from container
	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	// Get encryption use case for the key rotation worker
	encryptionUseCase, err := container.EncryptionUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize encryption use case: %w", err)
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Start the servers and the rotation worker; any server error cancels
	// the group context and tears the rest down.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(gctx); err != nil {
			return fmt.Errorf("api server error: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		g.Go(func() error {
			if err := metricsServer.Start(gctx); err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		runRotationWorker(gctx, encryptionUseCase, cfg.KeyRotationCheckInterval, logger)
		return nil
	})

	// Wait for shutdown signal or server error
	<-gctx.Done()
	logger.Info("shutting down", slog.Any("cause", context.Cause(gctx)))

	shutdownErr := shutdownServers(server, metricsServer, cfg.DBConnMaxLifetime)
	if err := g.Wait(); err != nil {
		return errors.Join(err, shutdownErr)
	}
	return shutdownErr
}

// runRotationWorker runs a rotation pass on every tick. The pass only
// mints a new primary when a key has outlived its rotation period, so the
// check interval can be much shorter than the period itself. Rotation
// failures are logged and retried on the next tick.
func runRotationWorker(
	ctx context.Context,
	encryptionUseCase cryptoUsecase.EncryptionUseCase,
	interval time.Duration,
	logger *slog.Logger,
) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := encryptionUseCase.Rotate(ctx)
			if err != nil {
				logger.Error("key rotation failed", slog.Any("error", err))
				continue
			}
			if report.NewKeyID == nil {
				continue
			}
			logger.Info("key rotation completed",
				slog.String("new_key_id", report.NewKeyID.String()),
				slog.Int("archived_keys", len(report.ArchivedKeys)),
			)
		}
	}
}

// shutdownServers gracefully stops both servers within the given timeout.
func shutdownServers(
	server *internalHTTP.Server,
	metricsServer *internalHTTP.MetricsServer,
	timeout time.Duration,
) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var shutdownErrors []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return errors.Join(shutdownErrors...)
	}
	return nil
}
