package events

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gopass/dashboard/pkg/config"
	"github.com/gopass/dashboard/pkg/consumer"
	"github.com/gopass/dashboard/pkg/redis_client"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func connectQueue(settings *config.Settings) error {
	if settings.Tracking.EventQueue == "" {
		return errors.New("tracking.event_queue is not configured")
	}

	if err := redis_client.Connect(settings.Redis); err != nil {
		return err
	}

	return redis_client.ConnectQueue()
}

func RegisterCLI(settings *config.Settings) *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Tracking transition events",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "consume the tracking events queue and log every event",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "consumers",
						Value: 2,
						Usage: "number of batch consumers",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Value: 20,
						Usage: "deliveries per batch",
					},
					&cli.StringFlag{
						Name:  "stats-listen",
						Usage: "listen target for the queue stats server, disabled when empty",
					},
					&cli.StringFlag{
						Name:  "push-topic",
						Usage: "also send every event to this Firebase Cloud Messaging topic",
					},
				},
				Action: func(c *cli.Context) error {
					if err := connectQueue(settings); err != nil {
						return err
					}

					handle := logEvent
					if topic := c.String("push-topic"); topic != "" {
						notifier, err := NewPushNotifier(c.Context, settings.Feed.FirebaseServiceAccount, topic)
						if err != nil {
							return err
						}

						handle = func(event VehicleTransitionEvent) {
							logEvent(event)
							notifier.Send(event)
						}
					}

					redisConsumer := consumer.RedisConsumer{
						Connection:      redis_client.QueueConnection,
						QueueName:       settings.Tracking.EventQueue,
						NumberConsumers: c.Int("consumers"),
						BatchSize:       c.Int("batch-size"),
						Timeout:         2 * time.Second,
						Consumer:        NewBatchConsumer(handle),
						StatsListen:     c.String("stats-listen"),
					}
					if err := redisConsumer.Setup(); err != nil {
						return err
					}

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

					return nil
				},
			},
			{
				Name:  "test-event",
				Usage: "publish a test transition event",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "vehicle",
						Value: "bus-test",
					},
					&cli.StringFlag{
						Name:  "plate",
						Value: "RAD123B",
					},
					&cli.BoolFlag{
						Name:  "offline",
						Usage: "publish a VehicleOffline event instead of VehicleLive",
					},
				},
				Action: func(c *cli.Context) error {
					if err := connectQueue(settings); err != nil {
						return err
					}

					sink, err := NewQueueSink(redis_client.QueueConnection, settings.Tracking.EventQueue)
					if err != nil {
						return err
					}

					event := VehicleTransitionEvent{
						Type:        EventTypeVehicleLive,
						VehicleID:   c.String("vehicle"),
						PlateNumber: c.String("plate"),
						Timestamp:   time.Now(),
					}
					if c.Bool("offline") {
						event.Type = EventTypeVehicleOffline
					}

					if err := sink.PublishEvent(event); err != nil {
						return err
					}

					log.Info().Str("queue", settings.Tracking.EventQueue).Msg(event.Message())

					return nil
				},
			},
		},
	}
}
