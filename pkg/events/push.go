package events

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushNotifier forwards transition events to a Firebase Cloud Messaging topic the operator
// apps subscribe to
type PushNotifier struct {
	sender  messageSender
	topic   string
	timeout time.Duration
}

func NewPushNotifier(ctx context.Context, serviceAccount string, topic string) (*PushNotifier, error) {
	if topic == "" {
		return nil, errors.New("push topic is required")
	}

	decodedKey, err := base64.StdEncoding.DecodeString(serviceAccount)
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithCredentialsJSON(decodedKey)}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}

	fcmClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}

	return &PushNotifier{
		sender:  fcmClient,
		topic:   topic,
		timeout: 10 * time.Second,
	}, nil
}

func (p *PushNotifier) message(event VehicleTransitionEvent) *messaging.Message {
	title := "Bus online"
	if event.Type == EventTypeVehicleOffline {
		title = "Bus offline"
	}

	return &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  event.Message(),
		},
		Data: map[string]string{
			"type":        string(event.Type),
			"vehicleId":   event.VehicleID,
			"plateNumber": event.PlateNumber,
			"timestamp":   event.Timestamp.UTC().Format(time.RFC3339),
		},
		Topic: p.topic,
	}
}

// Send pushes a single event. Failures are logged, a missed push is not retried.
func (p *PushNotifier) Send(event VehicleTransitionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	id, err := p.sender.Send(ctx, p.message(event))
	if err != nil {
		log.Error().Err(err).Str("vehicle", event.VehicleID).Msg("Failed to send push notification")
		return
	}

	log.Info().Str("topic", p.topic).Str("message", id).Msg("Sent Push Notification")
}
