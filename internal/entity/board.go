package entity

import "encoding/json"

type Piece string

const (
	PieceNone Piece = ""
	PieceX    Piece = "X"
	PieceO    Piece = "O"
)

// Opposite returns the rival mark; PieceNone has no rival.
func (that Piece) Opposite() Piece {
	switch that {
	case PieceX:
		return PieceO
	case PieceO:
		return PieceX
	default:
		return PieceNone
	}
}

func (that Piece) IsMark() bool {
	return that == PieceX || that == PieceO
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Directions is the fixed axis scan order used by win detection and the opponent:
// horizontal, vertical, main diagonal, anti diagonal.
var Directions = [4]Point{
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: 1, Y: 1},
	{X: 1, Y: -1},
}

// Board is a sparse grid. Cells absent from the map are empty.
type Board struct {
	Width  int
	Height int

	cells map[Point]Piece
}

func NewBoard(width, height int) *Board {
	return &Board{
		Width:  width,
		Height: height,
		cells:  make(map[Point]Piece, width*height),
	}
}

func (that *Board) InBounds(x, y int) bool {
	return x >= 0 && x < that.Width && y >= 0 && y < that.Height
}

// Get never fails: out of bounds coordinates read as PieceNone.
func (that *Board) Get(x, y int) Piece {
	if !that.InBounds(x, y) {
		return PieceNone
	}

	return that.cells[Point{X: x, Y: y}]
}

// Place overwrites whatever is stored at (x, y). Legality is the caller's concern.
func (that *Board) Place(x, y int, piece Piece) {
	p := Point{X: x, Y: y}
	if piece == PieceNone {
		delete(that.cells, p)
		return
	}

	that.cells[p] = piece
}

func (that *Board) Reset() {
	clear(that.cells)
}

func (that *Board) Occupied() int {
	return len(that.cells)
}

func (that *Board) IsEmpty() bool {
	return len(that.cells) == 0
}

func (that *Board) IsFull() bool {
	return len(that.cells) >= that.Width*that.Height
}

// EmptyCells lists free cells in row-major order.
func (that *Board) EmptyCells() []Point {
	free := make([]Point, 0, that.Width*that.Height-len(that.cells))
	for y := 0; y < that.Height; y++ {
		for x := 0; x < that.Width; x++ {
			if that.Get(x, y) == PieceNone {
				free = append(free, Point{X: x, Y: y})
			}
		}
	}

	return free
}

// RunLength counts contiguous cells holding piece through (x, y) along dir,
// looking at most limit-1 cells each way. The origin cell is always counted.
func (that *Board) RunLength(x, y int, dir Point, piece Piece, limit int) int {
	count := 1
	for i := 1; i < limit; i++ {
		if that.Get(x+i*dir.X, y+i*dir.Y) != piece {
			break
		}
		count++
	}
	for i := 1; i < limit; i++ {
		if that.Get(x-i*dir.X, y-i*dir.Y) != piece {
			break
		}
		count++
	}

	return count
}

func (that *Board) IsWin(x, y int, piece Piece, winLength int) bool {
	for _, dir := range Directions {
		if that.RunLength(x, y, dir, piece, winLength) >= winLength {
			return true
		}
	}

	return false
}

// WinningLine returns the run of the first qualifying axis ordered from the
// backward end to the forward end, or nil when (x, y) does not win.
func (that *Board) WinningLine(x, y int, piece Piece, winLength int) []Point {
	for _, dir := range Directions {
		var backward, forward []Point
		for i := 1; i < winLength; i++ {
			nx, ny := x-i*dir.X, y-i*dir.Y
			if that.Get(nx, ny) != piece {
				break
			}
			backward = append(backward, Point{X: nx, Y: ny})
		}
		for i := 1; i < winLength; i++ {
			nx, ny := x+i*dir.X, y+i*dir.Y
			if that.Get(nx, ny) != piece {
				break
			}
			forward = append(forward, Point{X: nx, Y: ny})
		}

		if len(backward)+len(forward)+1 < winLength {
			continue
		}

		line := make([]Point, 0, len(backward)+len(forward)+1)
		for i := len(backward) - 1; i >= 0; i-- {
			line = append(line, backward[i])
		}
		line = append(line, Point{X: x, Y: y})
		line = append(line, forward...)

		return line
	}

	return nil
}

// Rows renders the board as Height rows of Width cells.
func (that *Board) Rows() [][]Piece {
	rows := make([][]Piece, that.Height)
	for y := range rows {
		rows[y] = make([]Piece, that.Width)
		for x := range rows[y] {
			rows[y][x] = that.Get(x, y)
		}
	}

	return rows
}

// Clone returns an independent copy.
func (that *Board) Clone() *Board {
	board := NewBoard(that.Width, that.Height)
	for p, piece := range that.cells {
		board.cells[p] = piece
	}

	return board
}

type boardJSON struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Cells  [][]Piece `json:"cells"`
}

func (that *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(boardJSON{
		Width:  that.Width,
		Height: that.Height,
		Cells:  that.Rows(),
	})
}

func (that *Board) UnmarshalJSON(data []byte) error {
	var raw boardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*that = *NewBoard(raw.Width, raw.Height)
	for y, row := range raw.Cells {
		for x, piece := range row {
			if piece != PieceNone && that.InBounds(x, y) {
				that.cells[Point{X: x, Y: y}] = piece
			}
		}
	}

	return nil
}
