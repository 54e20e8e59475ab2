package service

import (
	"log/slog"

	"github.com/rocketscienceinc/connectn-backend/internal/entity"
	"github.com/rocketscienceinc/connectn-backend/internal/pkg"
)

// Tier proposes a move for piece or reports that it has nothing to say.
type Tier func(board *entity.Board, piece entity.Piece, winLength int) (entity.Point, bool)

type OpponentService interface {
	ChooseMove(board *entity.Board, piece entity.Piece, winLength int) entity.Point
}

type opponentService struct {
	logger *slog.Logger
	tiers  []namedTier
}

type namedTier struct {
	name string
	tier Tier
}

// NewOpponentService builds the heuristic opponent. Its tiers run in order:
// random opening, attack, block, random fallback.
func NewOpponentService(logger *slog.Logger, rnd *pkg.Random) OpponentService {
	return &opponentService{
		logger: logger.With("component", "opponent"),
		tiers: []namedTier{
			{name: "opening", tier: OpeningTier(rnd)},
			{name: "attack", tier: AttackTier},
			{name: "block", tier: BlockTier},
			{name: "random", tier: RandomTier(rnd)},
		},
	}
}

// ChooseMove never fails. A full board yields (0,0) and the caller's legality
// check rejects it.
func (that *opponentService) ChooseMove(board *entity.Board, piece entity.Piece, winLength int) entity.Point {
	log := that.logger.With("method", "ChooseMove", "piece", piece)

	for _, candidate := range that.tiers {
		if move, ok := candidate.tier(board, piece, winLength); ok {
			log.Debug("move chosen", "tier", candidate.name, "x", move.X, "y", move.Y)
			return move
		}
	}

	log.Warn("no empty cell left")

	return entity.Point{}
}

func OpeningTier(rnd *pkg.Random) Tier {
	return func(board *entity.Board, _ entity.Piece, _ int) (entity.Point, bool) {
		if !board.IsEmpty() {
			return entity.Point{}, false
		}

		return randomEmptyCell(board, rnd)
	}
}

// AttackTier completes a line of the mover's own pieces.
func AttackTier(board *entity.Board, piece entity.Piece, winLength int) (entity.Point, bool) {
	return nearestCombination(board, piece, winLength)
}

// BlockTier occupies the open cell of a rival line that is one short of winning.
func BlockTier(board *entity.Board, piece entity.Piece, winLength int) (entity.Point, bool) {
	return nearestCombination(board, piece.Opposite(), winLength)
}

func RandomTier(rnd *pkg.Random) Tier {
	return func(board *entity.Board, _ entity.Piece, _ int) (entity.Point, bool) {
		return randomEmptyCell(board, rnd)
	}
}

func randomEmptyCell(board *entity.Board, rnd *pkg.Random) (entity.Point, bool) {
	free := board.EmptyCells()
	if len(free) == 0 {
		return entity.Point{}, false
	}

	return free[rnd.IntN(len(free))], true
}

// nearestCombination scans the board row by row for the first piece that sits
// in an axis run of at least winLength-1 and returns the closest empty in-bounds
// cell on that axis, trying forward before backward at each distance.
func nearestCombination(board *entity.Board, piece entity.Piece, winLength int) (entity.Point, bool) {
	if !piece.IsMark() {
		return entity.Point{}, false
	}

	for y := 0; y < board.Height; y++ {
		for x := 0; x < board.Width; x++ {
			if board.Get(x, y) != piece {
				continue
			}

			if move, ok := extensionOf(board, x, y, piece, winLength); ok {
				return move, true
			}
		}
	}

	return entity.Point{}, false
}

func extensionOf(board *entity.Board, x, y int, piece entity.Piece, winLength int) (entity.Point, bool) {
	for _, dir := range entity.Directions {
		if board.RunLength(x, y, dir, piece, winLength) < winLength-1 {
			continue
		}

		for i := 1; i < winLength; i++ {
			candidates := [2]entity.Point{
				{X: x + i*dir.X, Y: y + i*dir.Y},
				{X: x - i*dir.X, Y: y - i*dir.Y},
			}
			for _, c := range candidates {
				if board.InBounds(c.X, c.Y) && board.Get(c.X, c.Y) == entity.PieceNone {
					return c, true
				}
			}
		}
	}

	return entity.Point{}, false
}
