package websocket

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/connectn-backend/internal/usecase"
)

// Rejections by the room manager are already reported to the caller through
// coordinator events, so handlers only answer for malformed arguments.

func (that *Server) handleCreateRoom(ctx context.Context, handle string, args map[string]any) error {
	var req createRoomArgs
	if err := decodeArgs(args, &req); err != nil {
		that.actionFailed(handle, actionCreateRoom, err.Error())
		return err
	}

	_, err := that.manager.CreateRoom(ctx, handle, usecase.CreateRoomParams{
		Name:            req.Name,
		PlayerName:      req.PlayerName,
		Width:           req.Width,
		Height:          req.Height,
		WinLength:       req.WinLength,
		OpponentEnabled: req.OpponentEnabled,
		OpponentMark:    parseMark(req.OpponentMark),
	})

	return err
}

func (that *Server) handleJoinRoom(ctx context.Context, handle string, args map[string]any) error {
	req, err := that.roomArgs(handle, actionJoinRoom, args)
	if err != nil {
		return err
	}

	return that.manager.JoinRoom(ctx, handle, req.RoomID, req.PlayerName)
}

func (that *Server) handleJoinRoomReconnect(ctx context.Context, handle string, args map[string]any) error {
	req, err := that.roomArgs(handle, actionJoinRoomReconnect, args)
	if err != nil {
		return err
	}

	return that.manager.JoinRoomReconnect(ctx, handle, req.RoomID, parseMark(req.Mark), req.PlayerName)
}

func (that *Server) handleMakeMove(ctx context.Context, handle string, args map[string]any) error {
	var req moveArgs
	if err := decodeArgs(args, &req); err != nil {
		that.actionFailed(handle, actionMakeMove, err.Error())
		return err
	}

	if err := requireRoomID(req.RoomID); err != nil {
		that.actionFailed(handle, actionMakeMove, err.Error())
		return err
	}

	if req.X == nil || req.Y == nil {
		err := fmt.Errorf("%w: x and y are required", ErrInvalidArgs)
		that.actionFailed(handle, actionMakeMove, err.Error())
		return err
	}

	return that.manager.MakeMove(ctx, handle, req.RoomID, *req.X, *req.Y)
}

func (that *Server) handlePauseGame(ctx context.Context, handle string, args map[string]any) error {
	req, err := that.roomArgs(handle, actionPauseGame, args)
	if err != nil {
		return err
	}

	return that.manager.PauseGame(ctx, handle, req.RoomID)
}

func (that *Server) handleResumeGame(ctx context.Context, handle string, args map[string]any) error {
	req, err := that.roomArgs(handle, actionResumeGame, args)
	if err != nil {
		return err
	}

	return that.manager.ResumeGame(ctx, handle, req.RoomID)
}

func (that *Server) handleNextGame(ctx context.Context, handle string, args map[string]any) error {
	req, err := that.roomArgs(handle, actionNextGame, args)
	if err != nil {
		return err
	}

	return that.manager.NextGame(ctx, handle, req.RoomID)
}

func (that *Server) handleLeaveGame(ctx context.Context, handle string, args map[string]any) error {
	req, err := that.roomArgs(handle, actionLeaveGame, args)
	if err != nil {
		return err
	}

	return that.manager.LeaveGame(ctx, handle, req.RoomID)
}

func (that *Server) handleSpectateRoom(ctx context.Context, handle string, args map[string]any) error {
	req, err := that.roomArgs(handle, actionSpectateRoom, args)
	if err != nil {
		return err
	}

	return that.manager.SpectateRoom(ctx, handle, req.RoomID)
}

func (that *Server) roomArgs(handle, action string, args map[string]any) (roomArgs, error) {
	var req roomArgs
	if err := decodeArgs(args, &req); err != nil {
		that.actionFailed(handle, action, err.Error())
		return req, err
	}

	if err := requireRoomID(req.RoomID); err != nil {
		that.actionFailed(handle, action, err.Error())
		return req, err
	}

	return req, nil
}
