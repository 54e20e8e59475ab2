package entity

import (
	"slices"
	"time"
)

// RoomView is a detached snapshot of a Room, safe to hand to other goroutines.
type RoomView struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Status         RoomStatus    `json:"status"`
	Board          *Board        `json:"board"`
	WinLength      int           `json:"winLength"`
	Players        []Player      `json:"players"`
	Spectators     []string      `json:"spectators"`
	SpectatorCount int           `json:"spectatorCount"`
	CurrentTurn    Piece         `json:"currentTurn"`
	Result         RoundResult   `json:"result"`
	WinningLine    []Point       `json:"winningLine,omitempty"`
	RoundNumber    int           `json:"roundNumber"`
	Wins           map[Piece]int `json:"wins"`
	Draws          int           `json:"draws"`
	LastWinner     Piece         `json:"lastWinner,omitempty"`
	IsPaused       bool          `json:"isPaused"`
	PausedBy       string        `json:"pausedBy,omitempty"`
	MoveCount      int           `json:"moveCount"`
	HasOpponent    bool          `json:"hasOpponent"`
	OpponentMark   Piece         `json:"opponentMark,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	GameStartTime  *time.Time    `json:"gameStartTime,omitempty"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// View copies the room state. The caller must hold Mu.
func (that *Room) View() RoomView {
	players := make([]Player, 0, len(that.Players))
	for _, player := range that.Players {
		players = append(players, *player)
	}

	wins := make(map[Piece]int, len(that.Wins))
	for mark, count := range that.Wins {
		wins[mark] = count
	}

	var started *time.Time
	if that.GameStartTime != nil {
		at := *that.GameStartTime
		started = &at
	}

	return RoomView{
		ID:             that.ID,
		Name:           that.Name,
		Status:         that.Status(),
		Board:          that.Board.Clone(),
		WinLength:      that.WinLength,
		Players:        players,
		Spectators:     slices.Clone(that.Spectators),
		SpectatorCount: len(that.Spectators),
		CurrentTurn:    that.CurrentTurn,
		Result:         that.Result,
		WinningLine:    slices.Clone(that.WinningLine),
		RoundNumber:    that.RoundNumber,
		Wins:           wins,
		Draws:          that.Draws,
		LastWinner:     that.LastWinner,
		IsPaused:       that.IsPaused,
		PausedBy:       that.PausedBy,
		MoveCount:      that.MoveCount,
		HasOpponent:    that.HasOpponent,
		OpponentMark:   that.OpponentMark,
		CreatedAt:      that.CreatedAt,
		GameStartTime:  started,
		UpdatedAt:      that.UpdatedAt,
	}
}

// Summary is the lobby listing entry for a room.
type Summary struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Status         RoomStatus `json:"status"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	WinLength      int        `json:"winLength"`
	PlayerCount    int        `json:"playerCount"`
	SpectatorCount int        `json:"spectatorCount"`
	HasOpponent    bool       `json:"hasOpponent"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func (that *Room) Summary() Summary {
	return Summary{
		ID:             that.ID,
		Name:           that.Name,
		Status:         that.Status(),
		Width:          that.Board.Width,
		Height:         that.Board.Height,
		WinLength:      that.WinLength,
		PlayerCount:    len(that.Players),
		SpectatorCount: len(that.Spectators),
		HasOpponent:    that.HasOpponent,
		CreatedAt:      that.CreatedAt,
	}
}
