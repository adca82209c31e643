package tracking

import (
	"time"

	"github.com/rs/zerolog/log"
)

type TransitionType string

const (
	TransitionVehicleLive    TransitionType = "VehicleLive"
	TransitionVehicleOffline TransitionType = "VehicleOffline"
)

// Transition is a vehicle starting or stopping to report its location
type Transition struct {
	Type        TransitionType
	VehicleID   string
	PlateNumber string
	Timestamp   time.Time
}

type TransitionSink interface {
	Publish(transition Transition) error
}

// transitionsLocked compares the vehicles reporting on board with the previous board. The
// first board of an activation only sets the baseline.
func (v *View) transitionsLocked(board Board) []Transition {
	reporting := map[string]string{}
	for _, card := range board.Cards {
		if card.State != CardStateOffline {
			reporting[card.VehicleID] = card.PlateNumber
		}
	}

	previous, hadBaseline := v.reporting, v.hasBaseline
	v.reporting = reporting
	v.hasBaseline = true

	if !hadBaseline || v.options.Sink == nil {
		return nil
	}

	var transitions []Transition
	for vehicleID, plate := range reporting {
		if _, ok := previous[vehicleID]; !ok {
			transitions = append(transitions, Transition{
				Type:        TransitionVehicleLive,
				VehicleID:   vehicleID,
				PlateNumber: plate,
				Timestamp:   board.GeneratedAt,
			})
		}
	}
	for vehicleID, plate := range previous {
		if _, ok := reporting[vehicleID]; !ok {
			transitions = append(transitions, Transition{
				Type:        TransitionVehicleOffline,
				VehicleID:   vehicleID,
				PlateNumber: plate,
				Timestamp:   board.GeneratedAt,
			})
		}
	}

	return transitions
}

func (v *View) publishTransitions(transitions []Transition) {
	for _, transition := range transitions {
		if err := v.options.Sink.Publish(transition); err != nil {
			log.Error().Err(err).Str("vehicle", transition.VehicleID).Str("type", string(transition.Type)).Msg("Failed to publish tracking transition")
		}
	}
}
