package feed

import (
	"context"
	"fmt"

	"github.com/gopass/dashboard/pkg/config"
	"github.com/gopass/dashboard/pkg/redis_client"
)

// NewSource builds the transport selected by feed.kind. The redis kind uses the shared
// connection so redis_client.Connect must have been called first.
func NewSource(ctx context.Context, settings config.Settings) (Source, error) {
	if err := settings.Feed.ValidateSource(); err != nil {
		return nil, err
	}

	switch settings.Feed.Kind {
	case "firebase":
		return NewFirebaseSource(ctx, settings.Feed)
	case "redis":
		if redis_client.Client == nil {
			return nil, fmt.Errorf("redis feed requires a redis connection")
		}
		return &RedisSource{Client: redis_client.Client}, nil
	case "gtfsrt":
		return NewGTFSRTSource(settings.Feed, settings.API.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown feed kind %q", settings.Feed.Kind)
	}
}

func ReconnectFrom(settings config.FeedSettings) ReconnectOptions {
	return ReconnectOptions{
		InitialInterval: settings.ReconnectInitialInterval,
		MaxInterval:     settings.ReconnectMaxInterval,
		MaxElapsedTime:  settings.ReconnectMaxElapsedTime,
	}
}
