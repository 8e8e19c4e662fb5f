package chathub

import (
	"encoding/json"
	"log"

	"pairgo/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// StartPubSubListener starts a goroutine that forwards every event
// published on the room channels into the hub's delivery loop. The
// subscription is created by the caller (main wires it from
// storage.Service.SubscribeRooms) so the hub stays testable against the
// Storage interface alone.
func (m *ManagerService) StartPubSubListener(pubsub *redis.PubSub) {
	go func() {
		defer pubsub.Close()

		ch := pubsub.Channel()
		for msg := range ch {
			var chatMsg models.ChatMessage
			if err := json.Unmarshal([]byte(msg.Payload), &chatMsg); err != nil {
				log.Printf("Error unmarshalling pubsub message: %v", err)
				continue
			}

			m.PubSubCh <- chatMsg
		}
	}()
}
