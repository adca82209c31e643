package events

import (
	"encoding/json"

	"github.com/adjust/rmq/v5"
	"github.com/gopass/dashboard/pkg/tracking"
)

// QueueSink publishes tracking transitions onto an rmq queue
type QueueSink struct {
	queue rmq.Queue
}

func NewQueueSink(connection rmq.Connection, queueName string) (*QueueSink, error) {
	queue, err := connection.OpenQueue(queueName)
	if err != nil {
		return nil, err
	}

	return &QueueSink{queue: queue}, nil
}

func (s *QueueSink) Publish(transition tracking.Transition) error {
	return s.PublishEvent(EventFromTransition(transition))
}

func (s *QueueSink) PublishEvent(event VehicleTransitionEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.queue.PublishBytes(eventBytes)
}
