package feed

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gopass/dashboard/pkg/config"
	"github.com/gopass/dashboard/pkg/redis_client"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI(settings *config.Settings) *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "Inspect and drive the vehicle location feed",
		Subcommands: []*cli.Command{
			{
				Name:  "watch",
				Usage: "log every snapshot received from the configured feed",
				Action: func(c *cli.Context) error {
					ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
					defer stop()

					if settings.Feed.Kind == "redis" {
						if err := redis_client.Connect(settings.Redis); err != nil {
							return err
						}
					}

					source, err := NewSource(ctx, *settings)
					if err != nil {
						return err
					}

					subscription := Subscribe(ctx, source, settings.Feed.Path, ReconnectFrom(settings.Feed))
					defer subscription.Close()

					for {
						select {
						case <-ctx.Done():
							return nil
						case snapshot, ok := <-subscription.Snapshots():
							if !ok {
								return nil
							}
							log.Info().
								Str("path", snapshot.Path).
								Bool("exists", snapshot.Exists).
								Int("records", len(snapshot.Records)).
								Msg("Snapshot")
						case err, ok := <-subscription.Errors():
							if !ok {
								return nil
							}
							log.Error().Err(err).Msg("Feed error")
							if errors.Is(err, ErrClosed) {
								return err
							}
						}
					}
				},
			},
			{
				Name:      "publish",
				Usage:     "publish a JSON document as the current redis feed snapshot",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return errors.New("publish takes exactly one file argument")
					}

					data, err := os.ReadFile(c.Args().First())
					if err != nil {
						return err
					}

					if err := redis_client.Connect(settings.Redis); err != nil {
						return err
					}

					if err := Publish(c.Context, redis_client.Client, settings.Feed.Path, data); err != nil {
						return err
					}

					log.Info().Str("path", settings.Feed.Path).Msg("Published feed snapshot")
					return nil
				},
			},
		},
	}
}
