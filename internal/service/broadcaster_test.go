package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/haatos/simple-qa/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestBroadcaster(t *testing.T) {
	t.Run("success - subscriber receives messages for its user only", func(t *testing.T) {
		// arrange
		b := NewBroadcaster()
		defer b.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		messages, err := b.Subscribe(ctx, 1)
		assert.NoError(t, err)

		// act
		assert.NoError(t, b.PublishToUser(2, RealtimeMessage{Type: RealtimeNewNotification, Count: 9}))
		assert.NoError(t, b.PublishToUser(1, RealtimeMessage{
			Type:         RealtimeNewNotification,
			Notification: &store.Notification{NotificationID: 5, Title: "Run passed"},
			Count:        2,
		}))

		// assert
		select {
		case msg := <-messages:
			msg.Ack()
			var got RealtimeMessage
			assert.NoError(t, json.Unmarshal(msg.Payload, &got))
			assert.Equal(t, "new_notification", got.Type)
			assert.Equal(t, int64(2), got.Count)
			assert.Equal(t, int64(5), got.Notification.NotificationID)
		case <-time.After(5 * time.Second):
			t.Fatal("no message received")
		}
	})
	t.Run("success - channel name", func(t *testing.T) {
		assert.Equal(t, "notifications_42", UserChannel(42))
	})
}
