package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/rocketscienceinc/connectn-backend/internal/entity"
	"github.com/rocketscienceinc/connectn-backend/internal/pkg"
	"github.com/rocketscienceinc/connectn-backend/internal/usecase"
)

type roomManager interface {
	CreateRoom(ctx context.Context, handle string, params usecase.CreateRoomParams) (entity.RoomView, error)
	JoinRoom(ctx context.Context, handle, roomID, playerName string) error
	JoinRoomReconnect(ctx context.Context, handle, roomID string, mark entity.Piece, playerName string) error
	MakeMove(ctx context.Context, handle, roomID string, x, y int) error
	PauseGame(ctx context.Context, handle, roomID string) error
	ResumeGame(ctx context.Context, handle, roomID string) error
	NextGame(ctx context.Context, handle, roomID string) error
	LeaveGame(ctx context.Context, handle, roomID string) error
	SpectateRoom(ctx context.Context, handle, roomID string) error
	OnDisconnect(ctx context.Context, handle string)
}

type Options struct {
	ReadBufferSize  int
	WriteBufferSize int
	PingPeriod      time.Duration
	PongWait        time.Duration
	WriteWait       time.Duration
	MaxMessageSize  int64
	SendBuffer      int
	// AllowedOrigins empty or containing "*" accepts any origin.
	AllowedOrigins []string
}

func DefaultOptions() Options {
	return Options{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		PingPeriod:      54 * time.Second,
		PongWait:        60 * time.Second,
		WriteWait:       10 * time.Second,
		MaxMessageSize:  4096,
		SendBuffer:      64,
	}
}

type handler func(ctx context.Context, handle string, args map[string]any) error

type Server struct {
	logger   *slog.Logger
	hub      *Hub
	manager  roomManager
	options  Options
	upgrader gorilla.Upgrader

	handlers map[string]handler
}

func New(logger *slog.Logger, hub *Hub, manager roomManager, options Options) *Server {
	defaults := DefaultOptions()
	if options.PongWait <= 0 {
		options.PongWait = defaults.PongWait
	}
	if options.PingPeriod <= 0 || options.PingPeriod >= options.PongWait {
		options.PingPeriod = options.PongWait * 9 / 10
	}
	if options.WriteWait <= 0 {
		options.WriteWait = defaults.WriteWait
	}
	if options.MaxMessageSize <= 0 {
		options.MaxMessageSize = defaults.MaxMessageSize
	}
	if options.SendBuffer <= 0 {
		options.SendBuffer = defaults.SendBuffer
	}

	server := &Server{
		logger:  logger.With("component", "ws_server"),
		hub:     hub,
		manager: manager,
		options: options,

		handlers: make(map[string]handler),
	}

	server.upgrader = gorilla.Upgrader{
		ReadBufferSize:  options.ReadBufferSize,
		WriteBufferSize: options.WriteBufferSize,
		CheckOrigin:     server.checkOrigin,
	}

	server.handlers[actionCreateRoom] = server.handleCreateRoom
	server.handlers[actionJoinRoom] = server.handleJoinRoom
	server.handlers[actionJoinRoomReconnect] = server.handleJoinRoomReconnect
	server.handlers[actionMakeMove] = server.handleMakeMove
	server.handlers[actionPauseGame] = server.handlePauseGame
	server.handlers[actionResumeGame] = server.handleResumeGame
	server.handlers[actionNextGame] = server.handleNextGame
	server.handlers[actionLeaveGame] = server.handleLeaveGame
	server.handlers[actionSpectateRoom] = server.handleSpectateRoom

	return server
}

// ServeHTTP upgrades the request and serves the connection until it closes.
// Every connection gets a fresh handle; seats survive a dropped connection
// through JoinRoomReconnect.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	handle := pkg.NewSessionID()
	client := newClient(that.logger, handle, conn, that.options)

	that.hub.register(client)
	go client.writePump()

	log.Info("websocket connection established", "handle", handle)
	that.hub.send(handle, Reply{Event: eventConnected, Handle: handle})

	ctx := context.WithoutCancel(req.Context())
	client.readPump(func(data []byte) {
		that.handleMessage(ctx, handle, data)
	})

	that.hub.unregister(client)
	that.manager.OnDisconnect(ctx, handle)

	log.Info("websocket connection closed", "handle", handle)
}

func (that *Server) handleMessage(ctx context.Context, handle string, data []byte) {
	log := that.logger.With("method", "handleMessage", "handle", handle)

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		log.Debug("failed to unmarshal message", "error", err)
		that.actionFailed(handle, "", "malformed message")
		return
	}

	process, ok := that.handlers[message.Event]
	if !ok {
		log.Debug("unknown event", "event", message.Event)
		that.actionFailed(handle, message.Event, "unknown event")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("recovered from panic in handler", "event", message.Event, "panic", fmt.Sprint(r))
			that.actionFailed(handle, message.Event, "internal error")
		}
	}()

	if err := process(ctx, handle, message.Args); err != nil {
		log.Debug("event rejected", "event", message.Event, "error", err)
	}
}

func (that *Server) actionFailed(handle, action, reason string) {
	that.hub.send(handle, Reply{Event: eventActionFailed, Action: action, Reason: reason})
}

func (that *Server) checkOrigin(req *http.Request) bool {
	if len(that.options.AllowedOrigins) == 0 || slices.Contains(that.options.AllowedOrigins, "*") {
		return true
	}

	origin := req.Header.Get("Origin")
	if origin == "" {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return slices.ContainsFunc(that.options.AllowedOrigins, func(allowed string) bool {
		return strings.EqualFold(allowed, origin) || strings.EqualFold(allowed, parsed.Host)
	})
}
