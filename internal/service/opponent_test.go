package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/connectn-backend/internal/entity"
	"github.com/rocketscienceinc/connectn-backend/internal/pkg"
)

func newTestOpponent(seed uint64) OpponentService {
	return NewOpponentService(slog.New(slog.NewTextHandler(io.Discard, nil)), pkg.NewRandom(seed))
}

func TestOpponent_ChooseMove(t *testing.T) {
	t.Run("Blocks the rival column", func(t *testing.T) {
		// Given: X holds (0,0) and (0,1) on a 3x3 board, O has nothing
		board := entity.NewBoard(3, 3)
		board.Place(0, 0, entity.PieceX)
		board.Place(0, 1, entity.PieceX)

		// When: O chooses a move
		move := newTestOpponent(1).ChooseMove(board, entity.PieceO, 3)

		// Then: it blocks at (0,2)
		assert.Equal(t, entity.Point{X: 0, Y: 2}, move)
	})

	t.Run("Attack wins over block", func(t *testing.T) {
		// Given: both sides are one short of a line
		board := entity.NewBoard(3, 3)
		board.Place(0, 0, entity.PieceX)
		board.Place(0, 1, entity.PieceX)
		board.Place(2, 0, entity.PieceO)
		board.Place(2, 1, entity.PieceO)

		// When: O chooses a move
		move := newTestOpponent(1).ChooseMove(board, entity.PieceO, 3)

		// Then: it completes its own column
		assert.Equal(t, entity.Point{X: 2, Y: 2}, move)
	})

	t.Run("Opening move is a random legal cell", func(t *testing.T) {
		// Given: an empty 5x4 board
		board := entity.NewBoard(5, 4)

		// When: choosing many openings
		for seed := range uint64(20) {
			move := newTestOpponent(seed+1).ChooseMove(board, entity.PieceX, 4)

			// Then: each is in bounds
			assert.True(t, board.InBounds(move.X, move.Y))
		}
	})

	t.Run("Full board yields the origin", func(t *testing.T) {
		// Given: a full 2x2 board
		board := entity.NewBoard(2, 2)
		board.Place(0, 0, entity.PieceX)
		board.Place(1, 0, entity.PieceO)
		board.Place(0, 1, entity.PieceO)
		board.Place(1, 1, entity.PieceX)

		// When / Then: the fallback is (0,0)
		assert.Equal(t, entity.Point{}, newTestOpponent(1).ChooseMove(board, entity.PieceO, 3))
	})
}

func TestOpponent_Legality(t *testing.T) {
	// Given: a 4x4 board played by two opponents against each other
	board := entity.NewBoard(4, 4)
	opponent := newTestOpponent(11)
	piece := entity.PieceX

	// When: moves are chosen until the board fills
	for !board.IsFull() {
		move := opponent.ChooseMove(board, piece, 3)

		// Then: every proposal is an empty in-bounds cell
		require.True(t, board.InBounds(move.X, move.Y))
		require.Equal(t, entity.PieceNone, board.Get(move.X, move.Y), "cell (%d,%d) taken", move.X, move.Y)

		board.Place(move.X, move.Y, piece)
		piece = piece.Opposite()
	}
}

func TestTiers(t *testing.T) {
	t.Run("Attack finds nothing without a near line", func(t *testing.T) {
		board := entity.NewBoard(3, 3)
		board.Place(1, 1, entity.PieceO)

		_, ok := AttackTier(board, entity.PieceO, 3)

		assert.False(t, ok)
	})

	t.Run("Block works along the anti diagonal", func(t *testing.T) {
		// Given: X on (0,2) and (1,1)
		board := entity.NewBoard(3, 3)
		board.Place(0, 2, entity.PieceX)
		board.Place(1, 1, entity.PieceX)

		// When: looking for a block for O
		move, ok := BlockTier(board, entity.PieceO, 3)

		// Then: the open end (2,0) is chosen
		require.True(t, ok)
		assert.Equal(t, entity.Point{X: 2, Y: 0}, move)
	})

	t.Run("Opening is silent once a piece is down", func(t *testing.T) {
		board := entity.NewBoard(3, 3)
		board.Place(2, 2, entity.PieceX)

		_, ok := OpeningTier(pkg.NewRandom(1))(board, entity.PieceO, 3)

		assert.False(t, ok)
	})
}
