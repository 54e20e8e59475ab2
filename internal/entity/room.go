package entity

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rocketscienceinc/connectn-backend/internal/apperror"
)

type RoomStatus string

const (
	StatusWaiting       RoomStatus = "waiting"
	StatusInProgress    RoomStatus = "in_progress"
	StatusPaused        RoomStatus = "paused"
	StatusRoundFinished RoomStatus = "round_finished"
	StatusClosed        RoomStatus = "closed"
)

type ResultStatus string

const (
	ResultInProgress ResultStatus = "in_progress"
	ResultWin        ResultStatus = "win"
	ResultDraw       ResultStatus = "draw"
)

type RoundResult struct {
	Status ResultStatus `json:"status"`
	Winner Piece        `json:"winner,omitempty"`
}

// Room is one game session. Every method expects the caller to hold Mu.
type Room struct {
	Mu sync.Mutex

	ID        string
	Name      string
	Board     *Board
	WinLength int

	Players    []*Player
	Spectators []string

	CurrentTurn Piece
	Result      RoundResult
	WinningLine []Point
	RoundNumber int
	Wins        map[Piece]int
	Draws       int
	LastWinner  Piece
	MoveCount   int

	IsPaused bool
	PausedBy string

	HasOpponent  bool
	OpponentMark Piece

	CreatedAt     time.Time
	GameStartTime *time.Time
	UpdatedAt     time.Time

	// Closed is set once the room has been dropped from the registry so that
	// callers still holding the pointer treat it as gone.
	Closed bool
}

func NewRoom(id, name string, width, height, winLength int) *Room {
	now := time.Now()

	return &Room{
		ID:          id,
		Name:        name,
		Board:       NewBoard(width, height),
		WinLength:   winLength,
		Result:      RoundResult{Status: ResultInProgress},
		RoundNumber: 1,
		Wins:        map[Piece]int{PieceX: 0, PieceO: 0},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (that *Room) Status() RoomStatus {
	switch {
	case that.Closed:
		return StatusClosed
	case len(that.Players) < 2:
		return StatusWaiting
	case that.Result.Status != ResultInProgress:
		return StatusRoundFinished
	case that.IsPaused:
		return StatusPaused
	default:
		return StatusInProgress
	}
}

func (that *Room) touch() {
	that.UpdatedAt = time.Now()
}

func (that *Room) FindByHandle(handle string) *Player {
	for _, player := range that.Players {
		if player.Handle == handle {
			return player
		}
	}

	return nil
}

func (that *Room) FindByMark(mark Piece) *Player {
	for _, player := range that.Players {
		if player.Mark == mark {
			return player
		}
	}

	return nil
}

// FirstDisconnected returns the first human seat waiting for its owner to come back.
func (that *Room) FirstDisconnected() *Player {
	for _, player := range that.Players {
		if player.IsDisconnected && !player.IsBot {
			return player
		}
	}

	return nil
}

func (that *Room) HumanCount() int {
	count := 0
	for _, player := range that.Players {
		if !player.IsBot {
			count++
		}
	}

	return count
}

func (that *Room) HasDisconnected() bool {
	return that.FirstDisconnected() != nil
}

// FreeMark returns the first unclaimed mark, X before O.
func (that *Room) FreeMark() Piece {
	for _, mark := range []Piece{PieceX, PieceO} {
		if that.FindByMark(mark) == nil {
			return mark
		}
	}

	return PieceNone
}

// Seat puts a human into the next free seat.
func (that *Room) Seat(handle, name string) (*Player, error) {
	mark := that.FreeMark()
	if mark == PieceNone {
		return nil, apperror.ErrRoomFull
	}

	return that.seatAs(NewPlayer(handle, mark, name)), nil
}

// SeatWithMark puts a human into a specific seat.
func (that *Room) SeatWithMark(handle, name string, mark Piece) (*Player, error) {
	if !mark.IsMark() {
		return nil, fmt.Errorf("%w: mark %q", apperror.ErrInvalidBoardSettings, mark)
	}

	if that.FindByMark(mark) != nil {
		return nil, apperror.ErrRoomFull
	}

	return that.seatAs(NewPlayer(handle, mark, name)), nil
}

func (that *Room) SeatOpponent(mark Piece) *Player {
	that.HasOpponent = true
	that.OpponentMark = mark

	return that.seatAs(NewBotPlayer(mark))
}

func (that *Room) seatAs(player *Player) *Player {
	that.Players = append(that.Players, player)
	if len(that.Players) == 2 && that.GameStartTime == nil {
		now := time.Now()
		that.GameStartTime = &now
	}
	that.touch()

	return player
}

func (that *Room) Opponent() *Player {
	for _, player := range that.Players {
		if player.IsBot {
			return player
		}
	}

	return nil
}

// IsOpponentTurn reports whether the seated opponent has to move now.
func (that *Room) IsOpponentTurn() bool {
	opponent := that.Opponent()

	return opponent != nil &&
		that.Status() == StatusInProgress &&
		that.CurrentTurn == opponent.Mark
}

// Rebind moves a seat to a new transport handle and clears its disconnected flag.
func (that *Room) Rebind(player *Player, handle string) {
	player.Handle = handle
	player.IsDisconnected = false
	that.touch()
}

// MarkDisconnected flags the seat owned by handle. It returns nil when handle has no seat.
func (that *Room) MarkDisconnected(handle string) *Player {
	player := that.FindByHandle(handle)
	if player == nil || player.IsBot {
		return nil
	}

	player.IsDisconnected = true
	that.touch()

	return player
}

// ApplyMove validates and applies a move for mark. On success the round either
// continues with the other mark to move or is finished with a win or a draw.
func (that *Room) ApplyMove(mark Piece, x, y int) error {
	if err := that.validateMove(mark, x, y); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidMove, err)
	}

	that.Board.Place(x, y, mark)
	that.MoveCount++
	that.touch()

	switch {
	case that.Board.IsWin(x, y, mark, that.WinLength):
		that.Result = RoundResult{Status: ResultWin, Winner: mark}
		that.WinningLine = that.Board.WinningLine(x, y, mark, that.WinLength)
		that.Wins[mark]++
		that.LastWinner = mark
	case that.Board.IsFull():
		that.Result = RoundResult{Status: ResultDraw}
		that.Draws++
		that.LastWinner = PieceNone
	default:
		that.CurrentTurn = that.CurrentTurn.Opposite()
	}

	return nil
}

func (that *Room) validateMove(mark Piece, x, y int) error {
	if that.Closed {
		return apperror.ErrRoomClosed
	}

	if len(that.Players) < 2 || that.Result.Status != ResultInProgress {
		return apperror.ErrRoundNotInProgress
	}

	if that.IsPaused {
		return apperror.ErrGamePaused
	}

	if mark != that.CurrentTurn {
		return apperror.ErrNotYourTurn
	}

	if !that.Board.InBounds(x, y) {
		return fmt.Errorf("%w: (%d,%d)", apperror.ErrOutOfBounds, x, y)
	}

	if that.Board.Get(x, y) != PieceNone {
		return fmt.Errorf("%w: (%d,%d)", apperror.ErrCellOccupied, x, y)
	}

	return nil
}

func (that *Room) Pause(handle string) {
	that.IsPaused = true
	that.PausedBy = handle
	that.touch()
}

func (that *Room) Resume() {
	that.IsPaused = false
	that.PausedBy = ""
	that.touch()
}

// AdvanceRound starts the next round. The loser of a decisive round starts,
// otherwise pick chooses the starting mark.
func (that *Room) AdvanceRound(pick func() Piece) error {
	if that.Result.Status == ResultInProgress {
		return apperror.ErrRoundNotFinished
	}

	that.Board.Reset()
	that.MoveCount = 0
	that.WinningLine = nil

	if that.Result.Status == ResultWin && that.LastWinner.IsMark() {
		that.CurrentTurn = that.LastWinner.Opposite()
	} else {
		that.CurrentTurn = pick()
	}

	that.Result = RoundResult{Status: ResultInProgress}
	that.RoundNumber++
	that.touch()

	return nil
}

// RemovePlayer drops the seat owned by handle. When only the opponent would be
// left it is dropped as well. The returned bool reports whether the room is now empty.
func (that *Room) RemovePlayer(handle string) (*Player, bool) {
	idx := slices.IndexFunc(that.Players, func(p *Player) bool { return p.Handle == handle })
	if idx < 0 {
		return nil, len(that.Players) == 0
	}

	removed := that.Players[idx]
	that.Players = slices.Delete(that.Players, idx, idx+1)

	// an opponent never stays alone
	if that.HumanCount() == 0 {
		that.Players = nil
	}

	if that.IsPaused && that.PausedBy == handle {
		that.IsPaused = false
		that.PausedBy = ""
	}
	that.touch()

	return removed, len(that.Players) == 0
}

func (that *Room) AddSpectator(handle string) {
	if that.IsSpectator(handle) {
		return
	}

	that.Spectators = append(that.Spectators, handle)
	that.touch()
}

func (that *Room) RemoveSpectator(handle string) bool {
	idx := slices.Index(that.Spectators, handle)
	if idx < 0 {
		return false
	}

	that.Spectators = slices.Delete(that.Spectators, idx, idx+1)
	that.touch()

	return true
}

func (that *Room) IsSpectator(handle string) bool {
	return slices.Contains(that.Spectators, handle)
}

// IsJoinable reports whether a newcomer could take or reclaim a seat.
func (that *Room) IsJoinable() bool {
	return !that.Closed && (len(that.Players) < 2 || that.HasDisconnected())
}

// Recipients lists the connected handles of the room group: seated humans and spectators.
func (that *Room) Recipients() []string {
	handles := make([]string, 0, len(that.Players)+len(that.Spectators))
	for _, player := range that.Players {
		if player.IsBot || player.IsDisconnected {
			continue
		}
		handles = append(handles, player.Handle)
	}

	return append(handles, that.Spectators...)
}
