package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/gopass/dashboard/pkg/config"
	"github.com/gopass/dashboard/pkg/session"
	"github.com/gopass/dashboard/pkg/tracking"
	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI(settings *config.Settings) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "login",
			Usage: "log the operator in and persist the session",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "email",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "password",
					EnvVars:  []string{"GOPASS_PASSWORD"},
					Required: true,
				},
			},
			Action: func(c *cli.Context) error {
				d, err := Setup(c.Context, *settings)
				if err != nil {
					return err
				}

				user, err := d.Session.Login(c.Context, c.String("email"), c.String("password"))
				if err != nil {
					return err
				}

				if !user.IsAdmin() {
					log.Warn().Msg("This account is not an admin, the dashboard routes will refuse it")
				}

				return nil
			},
		},
		{
			Name:  "logout",
			Usage: "log the operator out and clear the persisted session",
			Action: func(c *cli.Context) error {
				d, err := Setup(c.Context, *settings)
				if err != nil {
					return err
				}

				if err := d.Session.Logout(c.Context); err != nil {
					return err
				}

				log.Info().Msg("Logged out")

				return nil
			},
		},
		{
			Name:  "whoami",
			Usage: "print the persisted operator",
			Action: func(c *cli.Context) error {
				d, err := Setup(c.Context, *settings)
				if err != nil {
					return err
				}

				user := d.Session.User()
				if user == nil {
					return session.ErrNotAuthenticated
				}

				pretty.Println(user)

				return nil
			},
		},
		{
			Name:  "tracking",
			Usage: "Fleet tracking",
			Subcommands: []*cli.Command{
				{
					Name:  "dump",
					Usage: "activate the tracking view once and print the board",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "format",
							Value: "pretty",
							Usage: "pretty, json or csv",
						},
						&cli.DurationFlag{
							Name:  "timeout",
							Value: 10 * time.Second,
							Usage: "how long to wait for the roster and the first snapshot",
						},
					},
					Action: func(c *cli.Context) error {
						d, err := Setup(c.Context, *settings)
						if err != nil {
							return err
						}
						if err := d.Session.RequireAdmin(); err != nil {
							return err
						}
						if err := d.SetupTracking(c.Context); err != nil {
							return err
						}

						board := tracking.Capture(c.Context, d.View, c.Duration("timeout"))

						return WriteBoard(c.App.Writer, board, c.String("format"))
					},
				},
			},
		},
	}
}

// WriteBoard prints the board in one of the dump formats
func WriteBoard(w io.Writer, board tracking.Board, format string) error {
	switch format {
	case "pretty":
		_, err := pretty.Fprintf(w, "%# v\n", board)
		return err
	case "json":
		reduced, err := tracking.Reduce(board, tracking.GroupDetailed)
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(reduced)
	case "csv":
		if len(board.Cards) == 0 {
			return errors.New("no vehicles on the board")
		}
		return gocsv.Marshal(&board.Cards, w)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
