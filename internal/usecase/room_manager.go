package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/connectn-backend/internal/apperror"
	"github.com/rocketscienceinc/connectn-backend/internal/entity"
)

const (
	defaultMaxBoardSize = 30
	maxOpponentAttempts = 3
)

type roomRegistry interface {
	Create(build func(id string) *entity.Room) (*entity.Room, error)
	Get(id string) (*entity.Room, error)
	Remove(id string) bool
	All() []*entity.Room
	Joinable() []entity.Summary
}

type opponentService interface {
	ChooseMove(board *entity.Board, piece entity.Piece, winLength int) entity.Point
}

type schedulerService interface {
	Schedule(key string, delay time.Duration, task func())
	Cancel(key string) bool
}

type randomSource interface {
	Bool() bool
}

type Options struct {
	GracePeriod   time.Duration
	OpponentDelay time.Duration
	MaxBoardSize  int
}

type CreateRoomParams struct {
	Name            string
	PlayerName      string
	Width           int
	Height          int
	WinLength       int
	OpponentEnabled bool
	OpponentMark    entity.Piece
}

// RoomManager coordinates every room transition. Each operation takes the lock of
// exactly one room, mutates it and publishes the settled snapshot before unlocking.
type RoomManager struct {
	logger *slog.Logger

	registry  roomRegistry
	opponent  opponentService
	scheduler schedulerService
	rnd       randomSource
	publisher Publisher

	options Options
}

func NewRoomManager(
	logger *slog.Logger,
	registry roomRegistry,
	opponent opponentService,
	scheduler schedulerService,
	rnd randomSource,
	publisher Publisher,
	options Options,
) *RoomManager {
	if publisher == nil {
		publisher = nopPublisher{}
	}

	if options.MaxBoardSize <= 0 {
		options.MaxBoardSize = defaultMaxBoardSize
	}

	return &RoomManager{
		logger:    logger.With("component", "room_manager"),
		registry:  registry,
		opponent:  opponent,
		scheduler: scheduler,
		rnd:       rnd,
		publisher: publisher,
		options:   options,
	}
}

func graceKey(roomID string, mark entity.Piece) string {
	return roomID + "_" + string(mark)
}

func opponentKey(roomID string) string {
	return roomID + "_opponent"
}

func (that *RoomManager) CreateRoom(ctx context.Context, handle string, params CreateRoomParams) (entity.RoomView, error) {
	log := that.logger.With("method", "CreateRoom", "handle", handle)

	params, err := that.validateParams(params)
	if err != nil {
		that.joinFailed(ctx, handle, "", err.Error())
		return entity.RoomView{}, err
	}

	room, err := that.registry.Create(func(id string) *entity.Room {
		name := params.Name
		if name == "" {
			name = "Room " + id
		}

		room := entity.NewRoom(id, name, params.Width, params.Height, params.WinLength)
		room.CurrentTurn = that.randomMark()

		ownerMark := entity.PieceX
		if params.OpponentEnabled {
			ownerMark = params.OpponentMark.Opposite()
		}

		// a fresh room has both seats free
		_, _ = room.SeatWithMark(handle, params.PlayerName, ownerMark)

		if params.OpponentEnabled {
			room.SeatOpponent(params.OpponentMark)
		}

		return room
	})
	if err != nil {
		that.joinFailed(ctx, handle, "", err.Error())
		return entity.RoomView{}, fmt.Errorf("failed to create room: %w", err)
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	log.Info("room created",
		"roomID", room.ID,
		"width", params.Width,
		"height", params.Height,
		"winLength", params.WinLength,
		"opponent", params.OpponentEnabled,
	)

	that.settle(ctx, room, EventRoomCreated, []string{handle})

	return room.View(), nil
}

func (that *RoomManager) validateParams(params CreateRoomParams) (CreateRoomParams, error) {
	maxSize := that.options.MaxBoardSize

	if params.Width < 1 || params.Height < 1 || params.Width > maxSize || params.Height > maxSize {
		return params, fmt.Errorf("%w: board must be between 1x1 and %dx%d", apperror.ErrInvalidBoardSettings, maxSize, maxSize)
	}

	if longest := max(params.Width, params.Height); params.WinLength < 2 || params.WinLength > longest {
		return params, fmt.Errorf("%w: win length must be between 2 and %d", apperror.ErrInvalidBoardSettings, longest)
	}

	if !params.OpponentEnabled {
		params.OpponentMark = entity.PieceNone
		return params, nil
	}

	switch params.OpponentMark {
	case entity.PieceNone:
		params.OpponentMark = entity.PieceO
	case entity.PieceX, entity.PieceO:
	default:
		return params, fmt.Errorf("%w: unknown opponent mark %q", apperror.ErrInvalidBoardSettings, params.OpponentMark)
	}

	return params, nil
}

// JoinRoom seats handle. A seat waiting for reconnection is reclaimed before a
// free seat is taken.
func (that *RoomManager) JoinRoom(ctx context.Context, handle, roomID, playerName string) error {
	room, err := that.lockRoom(roomID)
	if err != nil {
		that.joinFailed(ctx, handle, roomID, ReasonRoomNotFound)
		return err
	}
	defer room.Mu.Unlock()

	return that.join(ctx, room, handle, playerName)
}

// JoinRoomReconnect rebinds the seat holding mark to handle, whether or not the
// seat is disconnected, and falls back to JoinRoom when no such seat exists.
func (that *RoomManager) JoinRoomReconnect(ctx context.Context, handle, roomID string, mark entity.Piece, playerName string) error {
	log := that.logger.With("method", "JoinRoomReconnect", "handle", handle, "roomID", roomID, "mark", mark)

	room, err := that.lockRoom(roomID)
	if err != nil {
		that.joinFailed(ctx, handle, roomID, ReasonRoomNotFound)
		return err
	}
	defer room.Mu.Unlock()

	if room.FindByHandle(handle) != nil {
		that.publisher.Publish(ctx, roomEvent(EventPlayerJoined, room, []string{handle}))
		return nil
	}

	if seat := room.FindByMark(mark); seat != nil && !seat.IsBot {
		previous := seat.Handle
		that.rebind(room, seat, handle, playerName)

		log.Info("seat rebound", "previous", previous)
		that.publisher.Publish(ctx, roomEvent(EventPlayerJoined, room, room.Recipients()))

		return nil
	}

	return that.join(ctx, room, handle, playerName)
}

func (that *RoomManager) join(ctx context.Context, room *entity.Room, handle, playerName string) error {
	log := that.logger.With("method", "join", "handle", handle, "roomID", room.ID)

	if room.FindByHandle(handle) != nil {
		that.publisher.Publish(ctx, roomEvent(EventPlayerJoined, room, []string{handle}))
		return nil
	}

	if seat := room.FirstDisconnected(); seat != nil {
		log.Info("reconnect by join", "mark", seat.Mark, "previous", seat.Handle)
		that.rebind(room, seat, handle, playerName)
		that.publisher.Publish(ctx, roomEvent(EventPlayerJoined, room, room.Recipients()))

		return nil
	}

	player, err := room.Seat(handle, playerName)
	if err != nil {
		that.joinFailed(ctx, handle, room.ID, ReasonRoomFull)
		return err
	}
	room.RemoveSpectator(handle)

	log.Info("player seated", "mark", player.Mark)
	that.publisher.Publish(ctx, roomEvent(EventPlayerJoined, room, room.Recipients()))

	return nil
}

// rebind hands seat over to handle. The grace timer of the seat is cancelled;
// if it already fired it will find the seat reconnected and do nothing.
func (that *RoomManager) rebind(room *entity.Room, seat *entity.Player, handle, playerName string) {
	that.scheduler.Cancel(graceKey(room.ID, seat.Mark))

	room.Rebind(seat, handle)
	if playerName != "" {
		seat.Name = playerName
	}
	room.RemoveSpectator(handle)
}

func (that *RoomManager) MakeMove(ctx context.Context, handle, roomID string, x, y int) error {
	log := that.logger.With("method", "MakeMove", "handle", handle, "roomID", roomID)

	room, err := that.lockRoom(roomID)
	if err != nil {
		that.actionFailed(ctx, handle, roomID, err)
		return err
	}
	defer room.Mu.Unlock()

	player := room.FindByHandle(handle)
	if player == nil {
		that.actionFailed(ctx, handle, roomID, apperror.ErrNotInRoom)
		return apperror.ErrNotInRoom
	}

	if err = room.ApplyMove(player.Mark, x, y); err != nil {
		log.Debug("move rejected", "x", x, "y", y, "error", err)
		that.actionFailed(ctx, handle, roomID, err)
		return err
	}

	that.settle(ctx, room, EventBoardUpdated, nil)

	return nil
}

func (that *RoomManager) PauseGame(ctx context.Context, handle, roomID string) error {
	room, err := that.lockSeated(ctx, handle, roomID)
	if err != nil {
		return err
	}
	defer room.Mu.Unlock()

	room.Pause(handle)
	that.publisher.Publish(ctx, roomEvent(EventGamePaused, room, room.Recipients()))

	return nil
}

func (that *RoomManager) ResumeGame(ctx context.Context, handle, roomID string) error {
	room, err := that.lockSeated(ctx, handle, roomID)
	if err != nil {
		return err
	}
	defer room.Mu.Unlock()

	room.Resume()
	that.settle(ctx, room, EventGameResumed, nil)

	return nil
}

func (that *RoomManager) NextGame(ctx context.Context, handle, roomID string) error {
	room, err := that.lockSeated(ctx, handle, roomID)
	if err != nil {
		return err
	}
	defer room.Mu.Unlock()

	if err = room.AdvanceRound(that.randomMark); err != nil {
		that.actionFailed(ctx, handle, roomID, err)
		return err
	}

	that.settle(ctx, room, EventBoardUpdated, nil)

	return nil
}

// LeaveGame always answers the caller with LeftGame, even when it was not in the room.
func (that *RoomManager) LeaveGame(ctx context.Context, handle, roomID string) error {
	leftGame := Event{Name: EventLeftGame, RoomID: roomID, Recipients: []string{handle}}

	room, err := that.lockRoom(roomID)
	if err != nil {
		that.publisher.Publish(ctx, leftGame)
		return err
	}
	defer room.Mu.Unlock()

	if room.RemoveSpectator(handle) {
		that.publisher.Publish(ctx, leftGame)
		return nil
	}

	if room.FindByHandle(handle) == nil {
		that.publisher.Publish(ctx, leftGame)
		return apperror.ErrNotInRoom
	}

	that.removeSeat(ctx, room, handle)
	that.publisher.Publish(ctx, leftGame)

	return nil
}

func (that *RoomManager) SpectateRoom(ctx context.Context, handle, roomID string) error {
	room, err := that.lockRoom(roomID)
	if err != nil {
		that.joinFailed(ctx, handle, roomID, ReasonRoomNotFound)
		return err
	}
	defer room.Mu.Unlock()

	if room.FindByHandle(handle) != nil {
		that.publisher.Publish(ctx, roomEvent(EventSpectatorJoined, room, []string{handle}))
		return nil
	}

	room.AddSpectator(handle)
	that.publisher.Publish(ctx, roomEvent(EventSpectatorJoined, room, room.Recipients()))

	return nil
}

// OnDisconnect handles transport loss: spectators are dropped, seated players
// are flagged and get a grace period to come back.
func (that *RoomManager) OnDisconnect(ctx context.Context, handle string) {
	for _, room := range that.registry.All() {
		that.disconnectFrom(ctx, room, handle)
	}
}

func (that *RoomManager) disconnectFrom(ctx context.Context, room *entity.Room, handle string) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Closed || room.RemoveSpectator(handle) {
		return
	}

	player := room.MarkDisconnected(handle)
	if player == nil {
		return
	}

	mark := player.Mark
	that.logger.Info("player disconnected",
		"method", "OnDisconnect",
		"roomID", room.ID,
		"handle", handle,
		"mark", mark,
		"grace", that.options.GracePeriod,
	)

	that.scheduler.Schedule(graceKey(room.ID, mark), that.options.GracePeriod, func() {
		that.expireGrace(room, mark, handle)
	})

	that.publisher.Publish(ctx, roomEvent(EventBoardUpdated, room, room.Recipients()))
}

// expireGrace removes the seat only if it still belongs to handle and is still
// disconnected. A reconnect that won the race leaves nothing to do.
func (that *RoomManager) expireGrace(room *entity.Room, mark entity.Piece, handle string) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Closed {
		return
	}

	seat := room.FindByMark(mark)
	if seat == nil || seat.Handle != handle || !seat.IsDisconnected {
		return
	}

	that.logger.Info("grace period expired", "roomID", room.ID, "handle", handle, "mark", mark)
	that.removeSeat(context.Background(), room, handle)
}

func (that *RoomManager) removeSeat(ctx context.Context, room *entity.Room, handle string) {
	removed, empty := room.RemovePlayer(handle)
	if removed == nil {
		return
	}

	that.scheduler.Cancel(graceKey(room.ID, removed.Mark))

	if empty {
		that.closeRoom(ctx, room)
		return
	}

	that.publisher.Publish(ctx, roomEvent(EventPlayerLeft, room, room.Recipients()))
}

func (that *RoomManager) closeRoom(ctx context.Context, room *entity.Room) {
	room.Closed = true
	that.registry.Remove(room.ID)

	that.scheduler.Cancel(opponentKey(room.ID))
	that.scheduler.Cancel(graceKey(room.ID, entity.PieceX))
	that.scheduler.Cancel(graceKey(room.ID, entity.PieceO))

	that.logger.Info("room closed", "roomID", room.ID)

	that.publisher.Publish(ctx, Event{
		Name:       EventRoomClosed,
		RoomID:     room.ID,
		Recipients: room.Recipients(),
	})
}

// settle finishes a transition: when the opponent holds the mark to move it
// answers first, then the event goes out with the settled snapshot. With a
// delay the answer and the publish both move into a scheduled continuation, so
// nothing is broadcast while the reply is pending. nil recipients means the
// whole room, resolved at publish time.
func (that *RoomManager) settle(ctx context.Context, room *entity.Room, name EventName, recipients []string) {
	if !room.IsOpponentTurn() {
		that.publish(ctx, room, name, recipients)
		return
	}

	if that.options.OpponentDelay <= 0 {
		that.playOpponent(room)
		that.publish(ctx, room, name, recipients)
		return
	}

	that.scheduler.Schedule(opponentKey(room.ID), that.options.OpponentDelay, func() {
		that.opponentTurn(room, name, recipients)
	})
}

func (that *RoomManager) opponentTurn(room *entity.Room, name EventName, recipients []string) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Closed {
		return
	}

	// a pause while the opponent was thinking holds the reply back; the snapshot
	// is still settled because the opponent cannot move until resumed
	if room.IsOpponentTurn() {
		that.playOpponent(room)
	}

	that.publish(context.Background(), room, name, recipients)
}

func (that *RoomManager) publish(ctx context.Context, room *entity.Room, name EventName, recipients []string) {
	if recipients == nil {
		recipients = room.Recipients()
	}

	that.publisher.Publish(ctx, roomEvent(name, room, recipients))
}

// playOpponent applies one opponent move. A proposal the room refuses is retried
// against the current board a bounded number of times, then the first empty
// cell is taken.
func (that *RoomManager) playOpponent(room *entity.Room) bool {
	log := that.logger.With("method", "playOpponent", "roomID", room.ID)

	mark := room.Opponent().Mark
	for attempt := 1; attempt <= maxOpponentAttempts; attempt++ {
		move := that.opponent.ChooseMove(room.Board, mark, room.WinLength)

		err := room.ApplyMove(mark, move.X, move.Y)
		if err == nil {
			return true
		}

		log.Warn("opponent move refused",
			"attempt", attempt,
			"x", move.X,
			"y", move.Y,
			"error", fmt.Errorf("%w: %w", apperror.ErrOpponentMoveConflict, err),
		)
	}

	for _, cell := range room.Board.EmptyCells() {
		if err := room.ApplyMove(mark, cell.X, cell.Y); err == nil {
			log.Info("opponent fell back to the first empty cell", "x", cell.X, "y", cell.Y)
			return true
		}
	}

	log.Error("opponent could not move", "error", apperror.ErrOpponentMoveConflict)

	return false
}

func (that *RoomManager) GetRoom(roomID string) (entity.RoomView, error) {
	room, err := that.lockRoom(roomID)
	if err != nil {
		return entity.RoomView{}, err
	}
	defer room.Mu.Unlock()

	return room.View(), nil
}

func (that *RoomManager) ListJoinable() []entity.Summary {
	return that.registry.Joinable()
}

// lockRoom returns the room locked. A room closed between lookup and locking
// counts as not found.
func (that *RoomManager) lockRoom(roomID string) (*entity.Room, error) {
	room, err := that.registry.Get(roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room %q: %w", roomID, err)
	}

	room.Mu.Lock()
	if room.Closed {
		room.Mu.Unlock()
		return nil, fmt.Errorf("failed to get room %q: %w", roomID, apperror.ErrRoomNotFound)
	}

	return room, nil
}

func (that *RoomManager) lockSeated(ctx context.Context, handle, roomID string) (*entity.Room, error) {
	room, err := that.lockRoom(roomID)
	if err != nil {
		that.actionFailed(ctx, handle, roomID, err)
		return nil, err
	}

	if room.FindByHandle(handle) == nil {
		room.Mu.Unlock()
		that.actionFailed(ctx, handle, roomID, apperror.ErrNotInRoom)
		return nil, apperror.ErrNotInRoom
	}

	return room, nil
}

func (that *RoomManager) randomMark() entity.Piece {
	if that.rnd.Bool() {
		return entity.PieceX
	}

	return entity.PieceO
}

func (that *RoomManager) joinFailed(ctx context.Context, handle, roomID, reason string) {
	that.publisher.Publish(ctx, Event{
		Name:       EventJoinFailed,
		RoomID:     roomID,
		Reason:     reason,
		Recipients: []string{handle},
	})
}

func (that *RoomManager) actionFailed(ctx context.Context, handle, roomID string, err error) {
	that.publisher.Publish(ctx, Event{
		Name:       EventActionFailed,
		RoomID:     roomID,
		Reason:     err.Error(),
		Recipients: []string{handle},
	})
}

func roomEvent(name EventName, room *entity.Room, recipients []string) Event {
	view := room.View()

	return Event{
		Name:       name,
		RoomID:     room.ID,
		Room:       &view,
		Recipients: recipients,
	}
}
