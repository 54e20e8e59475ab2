package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rocketscienceinc/connectn-backend/internal/entity"
	"github.com/rocketscienceinc/connectn-backend/internal/usecase"
)

const DefaultSubjectPrefix = "connectn.rooms"

type natsConn interface {
	Publish(subject string, data []byte) error
}

// Message is what other services receive for every coordinator event.
type Message struct {
	Event       usecase.EventName `json:"event"`
	RoomID      string            `json:"roomId"`
	Room        *entity.RoomView  `json:"room,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	Recipients  int               `json:"recipients"`
	PublishedAt time.Time         `json:"publishedAt"`
}

// Publisher forwards coordinator events to NATS core subjects of the form
// <prefix>.<roomID>.<event>. Publishing is buffered by the client library.
type Publisher struct {
	logger *slog.Logger
	conn   natsConn
	prefix string
	close  func()
}

// Connect dials NATS and keeps reconnecting for as long as the process lives.
func Connect(logger *slog.Logger, url, prefix string) (*Publisher, error) {
	conn, err := nats.Connect(
		url,
		nats.Name("connectn-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	publisher := NewPublisher(logger, conn, prefix)
	publisher.close = func() {
		if err := conn.Drain(); err != nil {
			logger.Warn("failed to drain nats connection", "error", err)
		}
	}

	return publisher, nil
}

func NewPublisher(logger *slog.Logger, conn natsConn, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	return &Publisher{
		logger: logger.With("component", "nats_publisher"),
		conn:   conn,
		prefix: prefix,
	}
}

func Subject(prefix, roomID string, name usecase.EventName) string {
	if roomID == "" {
		roomID = "_"
	}

	return prefix + "." + roomID + "." + string(name)
}

func (that *Publisher) Publish(_ context.Context, event usecase.Event) {
	log := that.logger.With("method", "Publish", "event", event.Name, "roomID", event.RoomID)

	data, err := json.Marshal(Message{
		Event:       event.Name,
		RoomID:      event.RoomID,
		Room:        event.Room,
		Reason:      event.Reason,
		Recipients:  len(event.Recipients),
		PublishedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Error("failed to marshal event", "error", err)
		return
	}

	if err = that.conn.Publish(Subject(that.prefix, event.RoomID, event.Name), data); err != nil {
		log.Error("failed to publish event", "error", err)
	}
}

func (that *Publisher) Close() {
	if that.close != nil {
		that.close()
	}
}
