package websocket

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/rocketscienceinc/connectn-backend/internal/entity"
)

const (
	actionCreateRoom        = "CreateRoom"
	actionJoinRoom          = "JoinRoom"
	actionJoinRoomReconnect = "JoinRoomReconnect"
	actionMakeMove          = "MakeMove"
	actionPauseGame         = "PauseGame"
	actionResumeGame        = "ResumeGame"
	actionNextGame          = "NextGame"
	actionLeaveGame         = "LeaveGame"
	actionSpectateRoom      = "SpectateRoom"

	eventConnected    = "Connected"
	eventActionFailed = "ActionFailed"
)

var ErrInvalidArgs = errors.New("invalid arguments")

// Message is a client request: {"event": "MakeMove", "args": {"roomId": "ABC234", "x": 1, "y": 2}}.
type Message struct {
	Event string         `json:"event"`
	Args  map[string]any `json:"args,omitempty"`
}

// Reply is a frame the gateway sends on its own behalf, outside coordinator events.
type Reply struct {
	Event  string `json:"event"`
	Handle string `json:"handle,omitempty"`
	Action string `json:"action,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type createRoomArgs struct {
	Name            string `mapstructure:"name"`
	PlayerName      string `mapstructure:"playerName"`
	Width           int    `mapstructure:"width"`
	Height          int    `mapstructure:"height"`
	WinLength       int    `mapstructure:"winLength"`
	OpponentEnabled bool   `mapstructure:"opponentEnabled"`
	OpponentMark    string `mapstructure:"opponentMark"`
}

type roomArgs struct {
	RoomID     string `mapstructure:"roomId"`
	PlayerName string `mapstructure:"playerName"`
	Mark       string `mapstructure:"mark"`
}

type moveArgs struct {
	RoomID string `mapstructure:"roomId"`
	X      *int   `mapstructure:"x"`
	Y      *int   `mapstructure:"y"`
}

// decodeArgs fills out from a loosely typed JSON object. Numbers may arrive as
// JSON numbers or numeric strings; integer fields refuse fractions.
func decodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(stringToIntHookFunc(), wholeNumberHookFunc()),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}

	if err = decoder.Decode(args); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}

	return nil
}

func stringToIntHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Kind, to reflect.Kind, data any) (any, error) {
		if from == reflect.String && to == reflect.Int {
			return strconv.Atoi(strings.TrimSpace(data.(string)))
		}

		return data, nil
	}
}

func wholeNumberHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Kind, to reflect.Kind, data any) (any, error) {
		if to != reflect.Int || (from != reflect.Float64 && from != reflect.Float32) {
			return data, nil
		}

		value := reflect.ValueOf(data).Float()
		if value != math.Trunc(value) {
			return nil, fmt.Errorf("%w: %v is not a whole number", ErrInvalidArgs, data)
		}

		return int(value), nil
	}
}

func parseMark(mark string) entity.Piece {
	return entity.Piece(strings.ToUpper(strings.TrimSpace(mark)))
}

func requireRoomID(roomID string) error {
	if strings.TrimSpace(roomID) == "" {
		return fmt.Errorf("%w: roomId is required", ErrInvalidArgs)
	}

	return nil
}
