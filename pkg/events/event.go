package events

import (
	"fmt"
	"time"

	"github.com/gopass/dashboard/pkg/tracking"
)

type EventType string

const (
	EventTypeVehicleLive    EventType = "VehicleLive"
	EventTypeVehicleOffline EventType = "VehicleOffline"
)

// VehicleTransitionEvent is the queue payload for a vehicle starting or stopping to report
type VehicleTransitionEvent struct {
	Type        EventType `json:"type"`
	VehicleID   string    `json:"vehicleId"`
	PlateNumber string    `json:"plateNumber"`
	Timestamp   time.Time `json:"timestamp"`
}

func EventFromTransition(transition tracking.Transition) VehicleTransitionEvent {
	return VehicleTransitionEvent{
		Type:        EventType(transition.Type),
		VehicleID:   transition.VehicleID,
		PlateNumber: transition.PlateNumber,
		Timestamp:   transition.Timestamp,
	}
}

// Message is the operator facing text for the event
func (e *VehicleTransitionEvent) Message() string {
	vehicle := e.PlateNumber
	if vehicle == "" {
		vehicle = e.VehicleID
	}

	switch e.Type {
	case EventTypeVehicleLive:
		return fmt.Sprintf("%s started reporting its location", vehicle)
	case EventTypeVehicleOffline:
		return fmt.Sprintf("%s stopped reporting its location", vehicle)
	default:
		return fmt.Sprintf("%s: %s", vehicle, e.Type)
	}
}
