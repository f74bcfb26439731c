package broadcast

import (
	"time"

	"github.com/google/uuid"
)

// Message is the envelope every seating event travels in, over the floor
// websocket and over NATS alike.
type Message struct {
	ID         string      `json:"id"`
	Event      string      `json:"event"`
	Data       interface{} `json:"data"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func NewMessage(event string, data interface{}) Message {
	return Message{
		ID:         uuid.NewString(),
		Event:      event,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}
