package usecase

import (
	"context"
	"log/slog"

	"github.com/rocketscienceinc/connectn-backend/internal/entity"
)

const mirrorQueueSize = 256

type snapshotRepo interface {
	Save(ctx context.Context, view entity.RoomView) error
	DeleteByID(ctx context.Context, id string) error
}

// SnapshotMirror copies room snapshots into a SnapshotRepository from a single
// background worker, so Publish never waits on the network.
type SnapshotMirror struct {
	logger *slog.Logger
	repo   snapshotRepo
	queue  chan Event
}

func NewSnapshotMirror(logger *slog.Logger, repo snapshotRepo) *SnapshotMirror {
	return &SnapshotMirror{
		logger: logger.With("component", "snapshot_mirror"),
		repo:   repo,
		queue:  make(chan Event, mirrorQueueSize),
	}
}

func (that *SnapshotMirror) Publish(_ context.Context, event Event) {
	if event.Room == nil && event.Name != EventRoomClosed {
		return
	}

	select {
	case that.queue <- event:
	default:
		that.logger.Warn("snapshot queue full, dropping event", "event", event.Name, "roomID", event.RoomID)
	}
}

// Run drains the queue until ctx is done.
func (that *SnapshotMirror) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-that.queue:
			if err := that.apply(ctx, event); err != nil {
				log.Error("failed to mirror snapshot", "roomID", event.RoomID, "event", event.Name, "error", err)
			}
		}
	}
}

func (that *SnapshotMirror) apply(ctx context.Context, event Event) error {
	if event.Name == EventRoomClosed {
		return that.repo.DeleteByID(ctx, event.RoomID)
	}

	return that.repo.Save(ctx, *event.Room)
}
