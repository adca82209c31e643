package events

import (
	"encoding/json"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
)

// BatchConsumer logs every transition event it receives. Payloads that are not events are
// rejected so they end up in the rejected list instead of being retried.
type BatchConsumer struct {
	handle func(event VehicleTransitionEvent)
}

func NewBatchConsumer(handle func(event VehicleTransitionEvent)) *BatchConsumer {
	if handle == nil {
		handle = logEvent
	}

	return &BatchConsumer{handle: handle}
}

func (c *BatchConsumer) Consume(batch rmq.Deliveries) {
	for _, delivery := range batch {
		var event VehicleTransitionEvent
		if err := json.Unmarshal([]byte(delivery.Payload()), &event); err != nil || event.Type == "" {
			log.Error().Err(err).Str("payload", delivery.Payload()).Msg("Rejecting malformed tracking event")

			if err := delivery.Reject(); err != nil {
				log.Error().Err(err).Msg("Failed to reject tracking event")
			}
			continue
		}

		c.handle(event)

		if err := delivery.Ack(); err != nil {
			log.Error().Err(err).Msg("Failed to ack tracking event")
		}
	}
}

func logEvent(event VehicleTransitionEvent) {
	log.Info().
		Str("type", string(event.Type)).
		Str("vehicle", event.VehicleID).
		Str("plate", event.PlateNumber).
		Time("at", event.Timestamp).
		Msg(event.Message())
}
