package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ARYAN-095/GuardianWeb/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run GuardianWeb as a REST API service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appCfg.Server

		app, err := getAppContext(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		jobManager := api.NewJobManager(app.Scans.Analyze, logger)
		defer jobManager.Close()

		server := api.NewServer(api.Config{
			Scans:         app.Scans,
			Health:        &healthAPIService{ready: app.Ready},
			Jobs:          jobManager,
			AuthToken:     cfg.AuthToken,
			Logger:        logger,
			CORSOrigins:   cfg.CORSOrigins,
			ReadLimit:     api.Limit{Rate: cfg.RateLimit, Burst: cfg.RateBurst},
			ScanLimit:     api.Limit{Rate: cfg.ScanRateLimit, Burst: cfg.ScanRateBurst},
			ScreenshotDir: app.ScreenshotDir,
		})

		// no WriteTimeout: scans and the job stream can outlast any fixed value
		httpServer := &http.Server{
			Addr:              cfg.Addr,
			Handler:           server,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		// Channel to listen for errors from the server
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s API server listening on %s (storage: %s)\n", colorInfo("→"), cfg.Addr, appCfg.Storage.Driver)
			fmt.Fprintf(cmd.OutOrStdout(), "%s Press Ctrl+C to gracefully shutdown\n", colorInfo("→"))
			serverErrors <- httpServer.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
		case sig := <-shutdown:
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s Received signal %v, initiating graceful shutdown...\n", colorInfo("→"), sig)
			logger.Info("shutting down", zap.String("signal", sig.String()))

			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(ctx); err != nil {
				// Force close if graceful shutdown fails
				if closeErr := httpServer.Close(); closeErr != nil {
					return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
				}
				return fmt.Errorf("failed to gracefully shutdown server: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Server shutdown complete\n", colorInfo("✓"))
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "address for the API server (default :8000)")
	serveCmd.Flags().String("auth-token", "", "shared secret required in X-Auth-Token")
	serveCmd.Flags().StringSlice("cors-origins", nil, "allowed CORS origins (empty = allow all)")
	serveCmd.Flags().Float64("rate-limit", 0, "report and history reads per second per client IP (0 = disabled)")
	serveCmd.Flags().Int("rate-burst", 0, "read rate limit burst size")
	serveCmd.Flags().Float64("scan-rate-limit", 0, "scans started per second per client IP (0 = disabled)")
	serveCmd.Flags().Int("scan-rate-burst", 0, "scan rate limit burst size")
	serveCmd.Flags().Duration("shutdown-wait", 0, "graceful shutdown timeout")
	serveCmd.Flags().Bool("screenshot", true, "capture screenshots during scans")
	serveCmd.Flags().String("narrative", "", "summary provider: rules, gemini or http")
	serveCmd.Flags().Bool("threat-intel", false, "query reputation feeds during scans")
}

type healthAPIService struct {
	ready func(context.Context) error
}

func (s *healthAPIService) Check(ctx context.Context) error {
	return nil
}

func (s *healthAPIService) Ready(ctx context.Context) error {
	if s.ready == nil {
		return nil
	}
	return s.ready(ctx)
}
