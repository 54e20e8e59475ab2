package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/connectn-backend/internal/apperror"
)

func newTwoPlayerRoom(t *testing.T, width, height, winLength int) *Room {
	t.Helper()

	room := NewRoom("ABC234", "test", width, height, winLength)
	room.CurrentTurn = PieceX

	_, err := room.Seat("alice", "Alice")
	require.NoError(t, err)
	_, err = room.Seat("bob", "Bob")
	require.NoError(t, err)

	return room
}

func TestRoom_Seating(t *testing.T) {
	t.Run("Seats take X then O and the third is refused", func(t *testing.T) {
		// Given: an empty room
		room := NewRoom("ABC234", "test", 3, 3, 3)

		// When: three humans try to sit
		first, err := room.Seat("a", "")
		require.NoError(t, err)
		second, err := room.Seat("b", "")
		require.NoError(t, err)
		_, err = room.Seat("c", "")

		// Then: marks are unique and the room is full
		assert.Equal(t, PieceX, first.Mark)
		assert.Equal(t, PieceO, second.Mark)
		assert.ErrorIs(t, err, apperror.ErrRoomFull)
		assert.Equal(t, StatusInProgress, room.Status())
		assert.NotNil(t, room.GameStartTime)
	})

	t.Run("Opponent seat starts the round immediately", func(t *testing.T) {
		// Given: a room with its owner seated as X
		room := NewRoom("ABC234", "test", 3, 3, 3)
		_, err := room.SeatWithMark("a", "", PieceX)
		require.NoError(t, err)
		assert.Equal(t, StatusWaiting, room.Status())

		// When: the opponent takes O
		bot := room.SeatOpponent(PieceO)

		// Then: the room is in progress with the bot seated
		assert.True(t, bot.IsBot)
		assert.Equal(t, BotName, bot.Name)
		assert.True(t, room.HasOpponent)
		assert.Equal(t, StatusInProgress, room.Status())
	})
}

func TestRoom_ApplyMove(t *testing.T) {
	t.Run("Turn alternates after a legal move", func(t *testing.T) {
		// Given: a room with X to move
		room := newTwoPlayerRoom(t, 3, 3, 3)

		// When: X plays
		require.NoError(t, room.ApplyMove(PieceX, 0, 0))

		// Then: O is to move and the counter grew
		assert.Equal(t, PieceO, room.CurrentTurn)
		assert.Equal(t, 1, room.MoveCount)
	})

	tests := []struct {
		name    string
		prepare func(room *Room)
		mark    Piece
		x, y    int
		want    error
	}{
		{name: "wrong turn", mark: PieceO, x: 0, y: 0, want: apperror.ErrNotYourTurn},
		{name: "out of bounds", mark: PieceX, x: 3, y: 0, want: apperror.ErrOutOfBounds},
		{
			name:    "occupied",
			prepare: func(room *Room) { room.Board.Place(1, 1, PieceO) },
			mark:    PieceX, x: 1, y: 1,
			want: apperror.ErrCellOccupied,
		},
		{
			name:    "paused",
			prepare: func(room *Room) { room.Pause("alice") },
			mark:    PieceX, x: 0, y: 0,
			want: apperror.ErrGamePaused,
		},
		{
			name:    "waiting for players",
			prepare: func(room *Room) { room.RemovePlayer("bob") },
			mark:    PieceX, x: 0, y: 0,
			want: apperror.ErrRoundNotInProgress,
		},
	}

	for _, tt := range tests {
		t.Run("Rejects "+tt.name+" without mutating", func(t *testing.T) {
			// Given: a prepared room
			room := newTwoPlayerRoom(t, 3, 3, 3)
			if tt.prepare != nil {
				tt.prepare(room)
			}
			before := room.Board.Occupied()
			turn := room.CurrentTurn

			// When: applying the move
			err := room.ApplyMove(tt.mark, tt.x, tt.y)

			// Then: it is an invalid move and nothing changed
			require.ErrorIs(t, err, apperror.ErrInvalidMove)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, room.Board.Occupied())
			assert.Equal(t, turn, room.CurrentTurn)
			assert.Zero(t, room.MoveCount)
		})
	}
}

func TestRoom_DiagonalWin(t *testing.T) {
	// Given: a 3x3 room, X starting
	room := newTwoPlayerRoom(t, 3, 3, 3)

	// When: X completes the main diagonal
	for _, move := range []struct {
		mark Piece
		x, y int
	}{
		{PieceX, 0, 0}, {PieceO, 1, 0}, {PieceX, 1, 1}, {PieceO, 2, 0}, {PieceX, 2, 2},
	} {
		require.NoError(t, room.ApplyMove(move.mark, move.x, move.y))
	}

	// Then: X wins with the diagonal as the winning line
	assert.Equal(t, RoundResult{Status: ResultWin, Winner: PieceX}, room.Result)
	assert.Equal(t, []Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}, room.WinningLine)
	assert.Equal(t, 1, room.Wins[PieceX])
	assert.Equal(t, PieceX, room.LastWinner)
	assert.Equal(t, StatusRoundFinished, room.Status())

	// And: further moves are refused
	assert.ErrorIs(t, room.ApplyMove(PieceO, 0, 2), apperror.ErrRoundNotInProgress)
}

func TestRoom_DrawAndAdvance(t *testing.T) {
	// Given: a 3x3 room played to a full board without a line
	room := newTwoPlayerRoom(t, 3, 3, 3)
	for _, move := range []struct {
		mark Piece
		x, y int
	}{
		{PieceX, 0, 0}, {PieceO, 1, 0}, {PieceX, 2, 0},
		{PieceO, 1, 1}, {PieceX, 0, 1}, {PieceO, 2, 1},
		{PieceX, 1, 2}, {PieceO, 0, 2}, {PieceX, 2, 2},
	} {
		require.NoError(t, room.ApplyMove(move.mark, move.x, move.y))
	}

	// Then: the round is a draw
	assert.True(t, room.Board.IsFull())
	assert.Equal(t, RoundResult{Status: ResultDraw}, room.Result)
	assert.Equal(t, 1, room.Draws)
	assert.Equal(t, PieceNone, room.LastWinner)
	assert.Nil(t, room.WinningLine)

	// When: advancing the round
	picked := false
	require.NoError(t, room.AdvanceRound(func() Piece {
		picked = true
		return PieceO
	}))

	// Then: the board is clear and the random pick chose the starter
	assert.True(t, picked)
	assert.Equal(t, PieceO, room.CurrentTurn)
	assert.Equal(t, 2, room.RoundNumber)
	assert.Zero(t, room.MoveCount)
	assert.True(t, room.Board.IsEmpty())
	assert.Equal(t, StatusInProgress, room.Status())
}

func TestRoom_AdvanceRound(t *testing.T) {
	t.Run("Loser starts after a decisive round", func(t *testing.T) {
		// Given: a room where X won
		room := newTwoPlayerRoom(t, 3, 3, 3)
		room.Result = RoundResult{Status: ResultWin, Winner: PieceX}
		room.LastWinner = PieceX

		// When: advancing
		require.NoError(t, room.AdvanceRound(func() Piece { return PieceX }))

		// Then: O starts
		assert.Equal(t, PieceO, room.CurrentTurn)
	})

	t.Run("Refused while the round is running", func(t *testing.T) {
		// Given: a running round
		room := newTwoPlayerRoom(t, 3, 3, 3)

		// When / Then: advancing fails
		assert.ErrorIs(t, room.AdvanceRound(func() Piece { return PieceX }), apperror.ErrRoundNotFinished)
		assert.Equal(t, 1, room.RoundNumber)
	})
}

func TestRoom_RemovePlayer(t *testing.T) {
	t.Run("Opponent never stays alone", func(t *testing.T) {
		// Given: a human against the opponent
		room := NewRoom("ABC234", "test", 3, 3, 3)
		_, err := room.SeatWithMark("a", "", PieceX)
		require.NoError(t, err)
		room.SeatOpponent(PieceO)

		// When: the human leaves
		removed, empty := room.RemovePlayer("a")

		// Then: the room is empty
		require.NotNil(t, removed)
		assert.True(t, empty)
		assert.Empty(t, room.Players)
	})

	t.Run("Remaining human keeps the room", func(t *testing.T) {
		// Given: two humans
		room := newTwoPlayerRoom(t, 3, 3, 3)

		// When: one leaves
		_, empty := room.RemovePlayer("alice")

		// Then: the room waits for a new player
		assert.False(t, empty)
		assert.Equal(t, StatusWaiting, room.Status())
		assert.True(t, room.IsJoinable())
		assert.Equal(t, 1, room.HumanCount())
	})
}

func TestRoom_DisconnectAndRecipients(t *testing.T) {
	// Given: two humans and a spectator
	room := newTwoPlayerRoom(t, 3, 3, 3)
	room.AddSpectator("carol")
	room.AddSpectator("carol")

	// When: bob drops
	player := room.MarkDisconnected("bob")

	// Then: the seat is reclaimable and drops out of the recipients
	require.NotNil(t, player)
	assert.True(t, room.IsSpectator("carol"))
	assert.Len(t, room.Spectators, 1)
	assert.Equal(t, player, room.FirstDisconnected())
	assert.True(t, room.IsJoinable())
	assert.Equal(t, []string{"alice", "carol"}, room.Recipients())

	// When: a new handle takes the seat
	room.Rebind(player, "bob-2")

	// Then: the seat is live again
	assert.False(t, player.IsDisconnected)
	assert.False(t, room.IsJoinable())
	assert.ElementsMatch(t, []string{"alice", "bob-2", "carol"}, room.Recipients())
}

func TestRoom_View(t *testing.T) {
	// Given: a room with one move
	room := newTwoPlayerRoom(t, 3, 3, 3)
	require.NoError(t, room.ApplyMove(PieceX, 1, 1))

	// When: taking a snapshot and mutating the room afterwards
	view := room.View()
	require.NoError(t, room.ApplyMove(PieceO, 0, 0))
	room.Players[0].Name = "changed"

	// Then: the snapshot is detached
	assert.Equal(t, 1, view.MoveCount)
	assert.Equal(t, PieceNone, view.Board.Get(0, 0))
	assert.Equal(t, "Alice", view.Players[0].Name)
	assert.Equal(t, StatusInProgress, view.Status)
}
