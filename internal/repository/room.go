package repository

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rocketscienceinc/connectn-backend/internal/apperror"
	"github.com/rocketscienceinc/connectn-backend/internal/entity"
	"github.com/rocketscienceinc/connectn-backend/internal/pkg"
)

const maxCodeAttempts = 64

// RoomRegistry owns the set of live rooms. It only guards the map itself;
// transitions of a room are serialized by the room's own mutex.
type RoomRegistry interface {
	Create(build func(id string) *entity.Room) (*entity.Room, error)
	Get(id string) (*entity.Room, error)
	Remove(id string) bool
	All() []*entity.Room
	Joinable() []entity.Summary
	Count() int
}

type roomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*entity.Room

	rnd        *pkg.Random
	codeLength int
}

func NewRoomRegistry(rnd *pkg.Random, codeLength int) RoomRegistry {
	return &roomRegistry{
		rooms:      make(map[string]*entity.Room),
		rnd:        rnd,
		codeLength: codeLength,
	}
}

// NormalizeRoomID makes user typed codes comparable with generated ones.
func NormalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Create allocates a free code and stores the room produced by build under it.
// The room becomes visible to other callers only once build has returned.
func (that *roomRegistry) Create(build func(id string) *entity.Room) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for range maxCodeAttempts {
		id := pkg.GenerateRoomCode(that.rnd, that.codeLength)
		if _, taken := that.rooms[id]; taken {
			continue
		}

		room := build(id)
		that.rooms[id] = room

		return room, nil
	}

	return nil, fmt.Errorf("%w after %d attempts", apperror.ErrRoomCodeExhausted, maxCodeAttempts)
}

func (that *roomRegistry) Get(id string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[NormalizeRoomID(id)]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return room, nil
}

func (that *roomRegistry) Remove(id string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	id = NormalizeRoomID(id)
	if _, ok := that.rooms[id]; !ok {
		return false
	}

	delete(that.rooms, id)

	return true
}

func (that *roomRegistry) All() []*entity.Room {
	that.mu.RLock()
	rooms := make([]*entity.Room, 0, len(that.rooms))
	for _, room := range that.rooms {
		rooms = append(rooms, room)
	}
	that.mu.RUnlock()

	slices.SortFunc(rooms, func(a, b *entity.Room) int {
		return strings.Compare(a.ID, b.ID)
	})

	return rooms
}

// Joinable lists rooms with a free seat or a seat waiting for reconnection.
// Rooms are locked one at a time after the registry lock is released.
func (that *roomRegistry) Joinable() []entity.Summary {
	summaries := make([]entity.Summary, 0)
	for _, room := range that.All() {
		room.Mu.Lock()
		if room.IsJoinable() {
			summaries = append(summaries, room.Summary())
		}
		room.Mu.Unlock()
	}

	return summaries
}

func (that *roomRegistry) Count() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}
