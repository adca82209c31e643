package dashboard

import (
	"context"

	"github.com/gopass/dashboard/pkg/apiclient"
	"github.com/gopass/dashboard/pkg/config"
	"github.com/gopass/dashboard/pkg/events"
	"github.com/gopass/dashboard/pkg/feed"
	"github.com/gopass/dashboard/pkg/redis_client"
	"github.com/gopass/dashboard/pkg/session"
	"github.com/gopass/dashboard/pkg/tracking"
	"github.com/rs/zerolog/log"
)

// Dashboard is everything a command needs to act on behalf of the logged in operator
type Dashboard struct {
	Settings  config.Settings
	API       *apiclient.Client
	Session   *session.Session
	Validator session.TokenValidator
	View      *tracking.View
}

// Setup connects to redis, restores the persisted session and wires the API client to it.
// A 401 from the API clears the session.
func Setup(ctx context.Context, settings config.Settings) (*Dashboard, error) {
	if err := redis_client.Connect(settings.Redis); err != nil {
		return nil, err
	}

	tokenValidator, err := session.NewTokenValidator(settings.Session)
	if err != nil {
		return nil, err
	}

	client := apiclient.New(settings.API)
	store := &session.RedisStore{
		Client: redis_client.Client,
		Prefix: settings.Session.KeyPrefix,
	}
	operatorSession := session.New(client, store, tokenValidator)

	client.SetTokenProvider(operatorSession)
	client.OnUnauthorized(operatorSession.Clear)

	if err := operatorSession.Hydrate(ctx); err != nil {
		return nil, err
	}

	return &Dashboard{
		Settings:  settings,
		API:       client,
		Session:   operatorSession,
		Validator: tokenValidator,
	}, nil
}

// SetupTracking builds the fleet view on the configured feed. Transitions are queued when an
// event queue is configured.
func (d *Dashboard) SetupTracking(ctx context.Context) error {
	source, err := feed.NewSource(ctx, d.Settings)
	if err != nil {
		return err
	}

	options := tracking.OptionsFrom(d.Settings)

	if d.Settings.Tracking.EventQueue != "" {
		if err := redis_client.ConnectQueue(); err != nil {
			return err
		}

		sink, err := events.NewQueueSink(redis_client.QueueConnection, d.Settings.Tracking.EventQueue)
		if err != nil {
			return err
		}
		options.Sink = sink
	}

	d.View = tracking.NewView(d.API, source, options)

	log.Info().
		Str("feed", d.Settings.Feed.Kind).
		Str("path", d.Settings.Feed.Path).
		Str("event_queue", d.Settings.Tracking.EventQueue).
		Msg("Tracking view ready")

	return nil
}
