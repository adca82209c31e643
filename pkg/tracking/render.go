package tracking

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/gopass/dashboard/pkg/transit"
	"github.com/gopass/dashboard/pkg/util"
	"golang.org/x/exp/slices"
)

type CardState string

const (
	CardStateLive    CardState = "live"
	CardStateStale   CardState = "stale"
	CardStateOffline CardState = "offline"
)

func (s CardState) order() int {
	switch s {
	case CardStateLive:
		return 0
	case CardStateStale:
		return 1
	default:
		return 2
	}
}

type Point struct {
	Latitude  float64 `json:"latitude" groups:"basic,detailed"`
	Longitude float64 `json:"longitude" groups:"basic,detailed"`
}

// Card is one vehicle on the board. Offline cards carry no position.
type Card struct {
	VehicleID   string    `json:"vehicleId" groups:"basic,detailed" csv:"vehicle_id"`
	PlateNumber string    `json:"plateNumber" groups:"basic,detailed" csv:"plate_number"`
	RouteLabel  string    `json:"routeLabel" groups:"basic,detailed" csv:"route"`
	State       CardState `json:"state" groups:"basic,detailed" csv:"state"`
	Speed       string    `json:"speed" groups:"basic,detailed" csv:"speed"`
	LastUpdate  string    `json:"lastUpdate" groups:"basic,detailed" csv:"last_update"`

	Position   *Point     `json:"position,omitempty" groups:"detailed" csv:"-"`
	Latitude   float64    `json:"-" csv:"latitude"`
	Longitude  float64    `json:"-" csv:"longitude"`
	SpeedKmh   float64    `json:"speedKmh" groups:"detailed" csv:"speed_kmh"`
	Heading    float64    `json:"heading" groups:"detailed" csv:"heading"`
	Accuracy   float64    `json:"accuracy" groups:"detailed" csv:"accuracy"`
	DriverName string     `json:"driverName,omitempty" groups:"detailed" csv:"driver"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty" groups:"detailed" csv:"-"`
	AgeSeconds int64      `json:"ageSeconds" groups:"detailed" csv:"age_seconds"`
}

type Board struct {
	Cards          []Card    `json:"cards" groups:"basic,detailed"`
	ActiveTracking int       `json:"activeTracking" groups:"basic,detailed"`
	BusesOnRoute   int       `json:"busesOnRoute" groups:"basic,detailed"`
	MapCenter      Point     `json:"mapCenter" groups:"detailed"`
	GeneratedAt    time.Time `json:"generatedAt" groups:"basic,detailed"`
}

func FormatSpeed(kmh float64) string {
	return fmt.Sprintf("%.1f km/h", kmh)
}

func (v *View) Render(now time.Time) Board {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.renderLocked(now)
}

func (v *View) renderLocked(now time.Time) Board {
	board := Board{
		Cards:        []Card{},
		BusesOnRoute: len(v.buses),
		MapCenter:    v.options.MapCenter,
		GeneratedAt:  now,
	}

	for vehicleID, tracked := range v.locations {
		if !v.isDisplayed(vehicleID, tracked) {
			continue
		}

		board.Cards = append(board.Cards, v.locationCard(vehicleID, tracked, now))
	}
	board.ActiveTracking = len(board.Cards)

	for vehicleID, bus := range v.buses {
		if _, reporting := v.locations[vehicleID]; reporting {
			continue
		}

		board.Cards = append(board.Cards, Card{
			VehicleID:   vehicleID,
			PlateNumber: fallback(bus.PlateNumber, vehicleID),
			RouteLabel:  v.routeLabel(bus.RouteID, ""),
			State:       CardStateOffline,
			LastUpdate:  util.ClockTime(time.Time{}),
			AgeSeconds:  -1,
		})
	}

	slices.SortFunc(board.Cards, func(a, b Card) int {
		return cmp.Or(
			cmp.Compare(a.State.order(), b.State.order()),
			strings.Compare(a.PlateNumber, b.PlateNumber),
			strings.Compare(a.VehicleID, b.VehicleID),
		)
	})

	return board
}

func (v *View) locationCard(vehicleID string, tracked trackedVehicle, now time.Time) Card {
	location := tracked.Location
	bus, inRoster := v.buses[vehicleID]

	plate := tracked.PlateNumber
	routeID := tracked.RouteID
	if inRoster {
		plate = fallback(bus.PlateNumber, plate)
		routeID = fallback(bus.RouteID, routeID)
	}

	age := location.Age(now)
	state := CardStateLive
	if age > v.options.FreshThreshold {
		state = CardStateStale
	}

	ageSeconds := int64(-1)
	var updatedAt *time.Time
	if t := location.UpdatedAt(); !t.IsZero() {
		updatedAt = &t
		ageSeconds = int64(age / time.Second)
	}

	speedKmh := location.SpeedKmh()

	return Card{
		VehicleID:   vehicleID,
		PlateNumber: fallback(plate, vehicleID),
		RouteLabel:  v.routeLabel(routeID, tracked.RouteName),
		State:       state,
		Speed:       FormatSpeed(speedKmh),
		LastUpdate:  util.ClockTime(location.UpdatedAt()),
		Position:    &Point{Latitude: location.Latitude, Longitude: location.Longitude},
		Latitude:    location.Latitude,
		Longitude:   location.Longitude,
		SpeedKmh:    speedKmh,
		Heading:     location.Heading,
		Accuracy:    location.Accuracy,
		DriverName:  tracked.DriverName,
		UpdatedAt:   updatedAt,
		AgeSeconds:  ageSeconds,
	}
}

func (v *View) routeLabel(routeID string, feedRouteName string) string {
	if route, ok := v.routes[routeID]; ok {
		return route.Label()
	}

	if name := strings.TrimSpace(feedRouteName); name != "" {
		return name
	}

	return transit.UnknownRouteLabel
}

func fallback(value string, otherwise string) string {
	if strings.TrimSpace(value) == "" {
		return otherwise
	}

	return value
}
