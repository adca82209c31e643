package main

import (
	"os"

	"github.com/gopass/dashboard/pkg/api"
	"github.com/gopass/dashboard/pkg/config"
	"github.com/gopass/dashboard/pkg/dashboard"
	"github.com/gopass/dashboard/pkg/events"
	"github.com/gopass/dashboard/pkg/feed"
	"github.com/gopass/dashboard/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	var settings config.Settings

	commands := []*cli.Command{
		api.RegisterCLI(&settings),
		events.RegisterCLI(&settings),
		feed.RegisterCLI(&settings),
	}
	commands = append(commands, dashboard.RegisterCLI(&settings)...)

	app := &cli.App{
		Name:        "gopass-dashboard",
		Description: "Admin dashboard backend for the GoPass bus network",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				EnvVars: []string{config.EnvironmentPrefix + "CONFIG"},
				Usage:   "path to a YAML settings file",
			},
		},
		Before: func(c *cli.Context) error {
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				log.Warn().Err(err).Msg("Could not read .env")
			}

			loaded, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			settings = loaded

			logger.Setup(settings.Log)

			return nil
		},
		Commands: commands,
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
