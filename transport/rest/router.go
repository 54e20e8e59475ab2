package rest

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/connectn-backend/internal/entity"
)

type lobby interface {
	GetRoom(roomID string) (entity.RoomView, error)
	ListJoinable() []entity.Summary
}

type snapshotRepo interface {
	GetByID(ctx context.Context, id string) (*entity.RoomView, error)
}

// NewRouter builds the HTTP surface: the lobby API and the websocket endpoint.
// snapshots may be nil when the redis mirror is off.
func NewRouter(logger *slog.Logger, allowedOrigins []string, lobby lobby, snapshots snapshotRepo, ws http.Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	router.Use(cors.New(corsConfig(allowedOrigins)))

	handlers := &roomHandlers{
		logger:    logger.With("component", "rest"),
		lobby:     lobby,
		snapshots: snapshots,
	}

	router.GET("/ping", ping)

	api := router.Group("/rooms")
	{
		api.GET("", handlers.listRooms)
		api.GET("/:roomID", handlers.getRoom)
	}

	if snapshots != nil {
		router.GET("/snapshots/:roomID", handlers.getSnapshot)
	}

	if ws != nil {
		router.GET("/ws", gin.WrapH(ws))
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	config := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowedOrigins
	}

	return config
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	log := logger.With("component", "http")

	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		log.Debug("request",
			"method", ctx.Request.Method,
			"path", ctx.FullPath(),
			"status", ctx.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
