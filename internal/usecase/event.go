package usecase

import (
	"context"
	"log/slog"

	"github.com/rocketscienceinc/connectn-backend/internal/entity"
)

type EventName string

const (
	EventRoomCreated     EventName = "RoomCreated"
	EventJoinFailed      EventName = "JoinFailed"
	EventPlayerJoined    EventName = "PlayerJoined"
	EventBoardUpdated    EventName = "BoardUpdated"
	EventGamePaused      EventName = "GamePaused"
	EventGameResumed     EventName = "GameResumed"
	EventPlayerLeft      EventName = "PlayerLeft"
	EventRoomClosed      EventName = "RoomClosed"
	EventLeftGame        EventName = "LeftGame"
	EventSpectatorJoined EventName = "SpectatorJoined"
	EventActionFailed    EventName = "ActionFailed"
)

// Join failure reasons sent to clients.
const (
	ReasonRoomNotFound = "Room not found"
	ReasonRoomFull     = "Room full"
)

// Event is one coordinator notification. Recipients are transport handles;
// Room is nil for events that carry no snapshot.
type Event struct {
	Name       EventName        `json:"event"`
	RoomID     string           `json:"roomId"`
	Room       *entity.RoomView `json:"room,omitempty"`
	Reason     string           `json:"reason,omitempty"`
	Recipients []string         `json:"-"`
}

// Publisher delivers events. Implementations must not block: the coordinator
// publishes while it still holds the room lock so that events of one room keep
// their order.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Publishers fans one event out to several publishers.
type Publishers []Publisher

func (that Publishers) Publish(ctx context.Context, event Event) {
	for _, publisher := range that {
		publisher.Publish(ctx, event)
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

// LogPublisher writes every event at debug level.
type LogPublisher struct {
	Logger *slog.Logger
}

func (that LogPublisher) Publish(_ context.Context, event Event) {
	that.Logger.Debug("event",
		"event", event.Name,
		"roomID", event.RoomID,
		"recipients", len(event.Recipients),
		"reason", event.Reason,
	)
}
