package tracking

import (
	"context"
	"time"

	"github.com/gopass/dashboard/pkg/config"
	"github.com/gopass/dashboard/pkg/feed"
	"github.com/gopass/dashboard/pkg/transit"
)

const (
	SpeedUnitMetersPerSecond = "mps"
	SpeedUnitKmh             = "kmh"
)

// Roster is the REST side of the view, satisfied by *apiclient.Client
type Roster interface {
	ListBuses(ctx context.Context) ([]transit.Bus, error)
	ListRoutes(ctx context.Context) ([]transit.Route, error)
}

type Options struct {
	Path           string
	SpeedUnit      string
	FreshThreshold time.Duration
	MapCenter      Point
	Reconnect      feed.ReconnectOptions

	// Optional, receives vehicles going live or offline
	Sink TransitionSink
}

func OptionsFrom(settings config.Settings) Options {
	return Options{
		Path:           settings.Feed.Path,
		SpeedUnit:      settings.Tracking.SpeedUnit,
		FreshThreshold: settings.Tracking.FreshThreshold,
		MapCenter: Point{
			Latitude:  settings.Tracking.MapCenterLat,
			Longitude: settings.Tracking.MapCenterLng,
		},
		Reconnect: feed.ReconnectFrom(settings.Feed),
	}
}

func (o Options) toMetersPerSecond(speed float64) float64 {
	if o.SpeedUnit == SpeedUnitKmh {
		return speed / transit.MetersPerSecondToKmh
	}

	return speed
}
