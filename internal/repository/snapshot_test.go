package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/connectn-backend/internal/apperror"
	"github.com/rocketscienceinc/connectn-backend/internal/entity"
	"github.com/rocketscienceinc/connectn-backend/testing/suite"
)

func snapshotOf(t *testing.T) entity.RoomView {
	t.Helper()

	room := entity.NewRoom("QWE234", "mirror", 4, 3, 3)
	room.CurrentTurn = entity.PieceX
	_, err := room.Seat("alice", "Alice")
	require.NoError(t, err)
	room.SeatOpponent(entity.PieceO)
	require.NoError(t, room.ApplyMove(entity.PieceX, 3, 2))

	return room.View()
}

func TestSnapshotRepository_Save(t *testing.T) {
	ctx, st := suite.New(t)

	repo := NewSnapshotRepository(st.Storage, time.Minute)

	// Given: a snapshot of a room with one move
	view := snapshotOf(t)

	// When: saving it
	err := repo.Save(ctx, view)

	// Then: it is stored with a ttl
	require.NoError(t, err)
	ttl, err := st.Storage.TTL(ctx, "room:"+view.ID).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)
}

func TestSnapshotRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		repo := NewSnapshotRepository(st.Storage, time.Minute)

		// Given: a saved snapshot
		view := snapshotOf(t)
		require.NoError(t, repo.Save(ctx, view))

		// When: reading it back with a lower case code
		got, err := repo.GetByID(ctx, "qwe234")

		// Then: board and seats match
		require.NoError(t, err)
		assert.Equal(t, view.ID, got.ID)
		assert.Equal(t, entity.PieceX, got.Board.Get(3, 2))
		assert.Equal(t, 1, got.MoveCount)
		require.Len(t, got.Players, 2)
		assert.True(t, got.Players[1].IsBot)
		assert.Equal(t, view.Wins, got.Wins)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		repo := NewSnapshotRepository(st.Storage, time.Minute)

		// When: reading an unknown room
		got, err := repo.GetByID(ctx, "NOPE22")

		// Then: the room is not found
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
		assert.Nil(t, got)
	})
}

func TestSnapshotRepository_DeleteByID(t *testing.T) {
	ctx, st := suite.New(t)

	repo := NewSnapshotRepository(st.Storage, time.Minute)

	// Given: a saved snapshot
	view := snapshotOf(t)
	require.NoError(t, repo.Save(ctx, view))

	// When: deleting it
	err := repo.DeleteByID(ctx, view.ID)

	// Then: it is gone
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, view.ID)
	assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
}
