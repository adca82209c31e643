package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	messages []*messaging.Message
	err      error
}

func (r *recordingSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	r.messages = append(r.messages, message)
	return "projects/gopass/messages/1", r.err
}

func TestPushNotifierSendsToTopic(t *testing.T) {
	sender := &recordingSender{}
	notifier := &PushNotifier{sender: sender, topic: "fleet", timeout: time.Second}

	notifier.Send(VehicleTransitionEvent{
		Type:        EventTypeVehicleOffline,
		VehicleID:   "bus-1",
		PlateNumber: "RAD123B",
		Timestamp:   time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC),
	})

	require.Len(t, sender.messages, 1)
	message := sender.messages[0]
	assert.Equal(t, "fleet", message.Topic)
	assert.Equal(t, "Bus offline", message.Notification.Title)
	assert.Equal(t, "RAD123B stopped reporting its location", message.Notification.Body)
	assert.Equal(t, "bus-1", message.Data["vehicleId"])
	assert.Equal(t, "2023-11-14T22:13:20Z", message.Data["timestamp"])
}

func TestPushNotifierSwallowsSendErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("quota exceeded")}
	notifier := &PushNotifier{sender: sender, topic: "fleet", timeout: time.Second}

	assert.NotPanics(t, func() {
		notifier.Send(VehicleTransitionEvent{Type: EventTypeVehicleLive, VehicleID: "bus-2"})
	})
	assert.Len(t, sender.messages, 1)
}

func TestNewPushNotifierRequiresTopic(t *testing.T) {
	_, err := NewPushNotifier(context.Background(), "", "")
	assert.Error(t, err)
}
