package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/connectn-backend/internal/apperror"
)

type roomHandlers struct {
	logger *slog.Logger

	lobby     lobby
	snapshots snapshotRepo
}

func (that *roomHandlers) listRooms(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"rooms": that.lobby.ListJoinable()})
}

func (that *roomHandlers) getRoom(ctx *gin.Context) {
	view, err := that.lobby.GetRoom(ctx.Param("roomID"))
	if err != nil {
		that.fail(ctx, "getRoom", err)
		return
	}

	ctx.JSON(http.StatusOK, view)
}

// getSnapshot reads the mirrored copy, which outlives the process that wrote it.
func (that *roomHandlers) getSnapshot(ctx *gin.Context) {
	view, err := that.snapshots.GetByID(ctx.Request.Context(), ctx.Param("roomID"))
	if err != nil {
		that.fail(ctx, "getSnapshot", err)
		return
	}

	ctx.JSON(http.StatusOK, view)
}

func (that *roomHandlers) fail(ctx *gin.Context, method string, err error) {
	if errors.Is(err, apperror.ErrRoomNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": apperror.ErrRoomNotFound.Error()})
		return
	}

	that.logger.Error("request failed", "method", method, "error", err)
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
}
