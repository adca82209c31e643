package api

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gopass/dashboard/pkg/api/stats"
	"github.com/gopass/dashboard/pkg/config"
	"github.com/gopass/dashboard/pkg/dashboard"
	"github.com/gopass/dashboard/pkg/live"
	"github.com/gopass/dashboard/pkg/redis_client"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI(settings *config.Settings) *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the admin dashboard API and the live tracking socket",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "listen target for the web server, overrides http.listen",
					},
					&cli.StringFlag{
						Name:  "live-listen",
						Usage: "listen target for the live tracking socket, overrides http.live_listen",
					},
					&cli.DurationFlag{
						Name:  "capture-timeout",
						Value: 5 * time.Second,
						Usage: "how long GET /tracking waits for the feed when nobody is watching",
					},
				},
				Action: func(c *cli.Context) error {
					ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
					defer stop()

					d, err := dashboard.Setup(ctx, *settings)
					if err != nil {
						return err
					}
					if err := d.SetupTracking(ctx); err != nil {
						return err
					}

					listen := settings.HTTP.Listen
					if c.String("listen") != "" {
						listen = c.String("listen")
					}
					liveListen := settings.HTTP.LiveListen
					if c.String("live-listen") != "" {
						liveListen = c.String("live-listen")
					}

					return Serve(ctx, Dependencies{
						API:            d.API,
						Session:        d.Session,
						Validator:      d.Validator,
						View:           d.View,
						Stats:          stats.NewCache(redis_client.Client, settings.HTTP.StatsTTL),
						CaptureTimeout: c.Duration("capture-timeout"),
						AllowedOrigins: settings.HTTP.AllowedOrigins,
					}, listen, liveListen)
				},
			},
		},
	}
}

// Serve runs the fiber app and the live socket server until ctx is cancelled
func Serve(ctx context.Context, deps Dependencies, listen string, liveListen string) error {
	webApp := NewApp(deps)
	liveServer := live.NewServer(liveListen, live.NewHub(ctx, deps.View, live.SessionAuthorizer(deps.Session), deps.AllowedOrigins))

	errs := make(chan error, 2)

	go func() {
		log.Info().Str("listen", listen).Msg("Starting web api")
		errs <- webApp.Listen(listen)
	}()

	go func() {
		log.Info().Str("listen", liveListen).Msg("Starting live tracking socket")
		if err := liveServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
			return
		}
		errs <- nil
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errs:
	}

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := liveServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Live tracking socket shutdown")
	}
	if err := webApp.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Web api shutdown")
	}

	deps.View.Deactivate()

	return serveErr
}
