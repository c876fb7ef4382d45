package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/haatos/simple-qa/internal"
)

// Broadcaster publishes realtime updates on per-user topics.
type Broadcaster struct {
	pubsub *gochannel.GoChannel
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 16},
			watermill.NewStdLogger(false, false),
		),
	}
}

func UserChannel(userID int64) string {
	return fmt.Sprintf(internal.NotificationsChannel, userID)
}

func (b *Broadcaster) PublishToUser(userID int64, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return b.pubsub.Publish(UserChannel(userID), message.NewMessage(watermill.NewUUID(), body))
}

// Subscribe streams messages published to userID until ctx is done.
// Every received message must be acked before the next one is delivered.
func (b *Broadcaster) Subscribe(ctx context.Context, userID int64) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, UserChannel(userID))
}

func (b *Broadcaster) Close() error {
	return b.pubsub.Close()
}
