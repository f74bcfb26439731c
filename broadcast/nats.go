package broadcast

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// NATSPublisher forwards seating events to other services. Each event goes
// to <subject>.<event>, e.g. seating.events.table.assigned.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	log     logrus.FieldLogger
}

func NewNATSPublisher(url, subject string, log logrus.FieldLogger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("restaurant-seating"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, subject: subject, log: log}, nil
}

// Publish never fails the caller; the assignment it reports is already
// committed.
func (p *NATSPublisher) Publish(event string, data interface{}) {
	msg := NewMessage(event, data)
	payload, err := json.Marshal(msg)
	if err != nil {
		p.log.WithError(err).WithField("event", event).Error("marshal seating event")
		return
	}
	if err := p.conn.Publish(p.subject+"."+event, payload); err != nil {
		p.log.WithError(err).WithField("event", event).Warn("publish seating event")
	}
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
