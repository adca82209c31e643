package apiclient

import (
	"github.com/gopass/dashboard/pkg/transit"
	"github.com/jinzhu/copier"
)

// BusInput is the writable subset of a bus. Zero values are left out so the same type
// serves both create and partial update.
type BusInput struct {
	PlateNumber string            `json:"plateNumber,omitempty"`
	Capacity    int               `json:"capacity,omitempty"`
	Status      transit.BusStatus `json:"status,omitempty"`
	RouteID     string            `json:"routeId,omitempty"`
	DriverID    string            `json:"driverId,omitempty"`
}

type RouteInput struct {
	Name              string      `json:"name,omitempty"`
	Origin            string      `json:"origin,omitempty"`
	Destination       string      `json:"destination,omitempty"`
	Distance          float64     `json:"distance,omitempty"`
	EstimatedDuration string      `json:"estimatedDuration,omitempty"`
	Price             float64     `json:"price,omitempty"`
	IsActive          *bool       `json:"isActive,omitempty"`
	Waypoints         interface{} `json:"waypoints,omitempty"`
}

type UserInput struct {
	Name     string           `json:"name,omitempty"`
	Email    string           `json:"email,omitempty"`
	Phone    string           `json:"phone,omitempty"`
	Role     transit.UserRole `json:"role,omitempty"`
	Password string           `json:"password,omitempty"`
}

type BookingInput struct {
	UserID     string   `json:"userId,omitempty"`
	RouteID    string   `json:"routeId,omitempty"`
	BusID      string   `json:"busId,omitempty"`
	Seats      []string `json:"seats,omitempty"`
	TravelDate string   `json:"travelDate,omitempty"`
}

func BusInputFrom(bus transit.Bus) (BusInput, error) {
	var input BusInput
	err := copier.CopyWithOption(&input, &bus, copier.Option{IgnoreEmpty: true})

	return input, err
}

func RouteInputFrom(route transit.Route) (RouteInput, error) {
	var input RouteInput
	err := copier.CopyWithOption(&input, &route, copier.Option{IgnoreEmpty: true})

	if len(route.Waypoints) > 0 {
		input.Waypoints = route.Waypoints
	} else {
		input.Waypoints = nil
	}

	return input, err
}

func UserInputFrom(user transit.User) (UserInput, error) {
	var input UserInput
	err := copier.CopyWithOption(&input, &user, copier.Option{IgnoreEmpty: true})

	return input, err
}
