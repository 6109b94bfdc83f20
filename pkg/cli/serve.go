package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/hrmonitor/hrmonitor/pkg/cli/config"
	httpctrl "github.com/hrmonitor/hrmonitor/pkg/controller/http"
	"github.com/hrmonitor/hrmonitor/pkg/usecase"
	"github.com/hrmonitor/hrmonitor/pkg/utils/async"
	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe(version string) *cli.Command {
	var addr string
	var corsOrigins []string
	var reportRateLimit float64
	var reportRateBurst int
	var trustProxy bool
	var repoCfg config.Repository
	var storageCfg config.Storage
	var geocoderCfg config.Geocoder
	var accountsCfg config.Accounts
	var slackCfg config.Slack
	var sentryCfg config.Sentry

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("HRMONITOR_ADDR"),
			Destination: &addr,
		},
		&cli.StringSliceFlag{
			Name:        "cors-origin",
			Usage:       "Origin allowed to call the API from a browser (repeatable, \"*\" for any)",
			Sources:     cli.EnvVars("HRMONITOR_CORS_ORIGIN"),
			Destination: &corsOrigins,
		},
		&cli.FloatFlag{
			Name:        "report-rate-limit",
			Usage:       "Per-IP requests per second for report submission and login (0 disables)",
			Value:       httpctrl.DefaultReportRateLimit,
			Sources:     cli.EnvVars("HRMONITOR_REPORT_RATE_LIMIT"),
			Destination: &reportRateLimit,
		},
		&cli.IntFlag{
			Name:        "report-rate-burst",
			Usage:       "Per-IP burst for report submission and login",
			Value:       httpctrl.DefaultReportRateBurst,
			Sources:     cli.EnvVars("HRMONITOR_REPORT_RATE_BURST"),
			Destination: &reportRateBurst,
		},
		&cli.BoolFlag{
			Name:        "trust-proxy",
			Usage:       "Take the client address from X-Forwarded-For and X-Real-IP (only behind a reverse proxy)",
			Sources:     cli.EnvVars("HRMONITOR_TRUST_PROXY"),
			Destination: &trustProxy,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, geocoderCfg.Flags()...)
	flags = append(flags, accountsCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("Serve configuration",
				"addr", addr,
				"cors_origins", corsOrigins,
				"trust_proxy", trustProxy,
				"repository", repoCfg,
				"storage", storageCfg,
				"geocoder", geocoderCfg,
				"slack", slackCfg,
				"sentry", sentryCfg,
			)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return err
			}
			defer flush()

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			blobs, closeBlobs, err := storageCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer closeBlobs()

			geocoder, err := geocoderCfg.Configure()
			if err != nil {
				return err
			}

			ucOpts := []usecase.Option{
				usecase.WithBlobStore(blobs),
				usecase.WithGeocoder(geocoder),
				usecase.WithMaxUploadSize(storageCfg.MaxUploadSize()),
			}

			authenticator, err := accountsCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if authenticator != nil {
				ucOpts = append(ucOpts, usecase.WithAuthenticator(authenticator))
			}

			notifier, err := slackCfg.Configure()
			if err != nil {
				return err
			}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
			}

			uc := usecase.New(repo, ucOpts...)

			httpOpts := []httpctrl.Options{
				httpctrl.WithRateLimit(reportRateLimit, reportRateBurst),
				httpctrl.WithTrustProxy(trustProxy),
			}
			if len(corsOrigins) > 0 {
				httpOpts = append(httpOpts, httpctrl.WithCORSOrigins(corsOrigins))
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Create shutdown context with timeout
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				// Attempt graceful shutdown
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				// Let pending notifications finish before the clients close
				async.Wait()

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
