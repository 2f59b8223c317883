package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"support-chat-be/internal/entity"
	"support-chat-be/internal/model"
	"support-chat-be/internal/repository/implementation"
	"support-chat-be/internal/service"
	"support-chat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatStoreAgainstPostgres(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	require.NoError(t, gormDB.AutoMigrate(&model.Room{}, &model.Message{}))

	sqlDB, _ := gormDB.DB()
	assert.NoError(t, sqlDB.Ping())

	store := service.NewChatStoreService(
		implementation.NewRoomRepository(gormDB),
		implementation.NewMessageRepository(gormDB),
	)

	ctx := context.Background()
	room := &entity.Room{
		Id:           uuid.New(),
		ConnectionId: "conn-" + uuid.NewString(),
		VisitorLabel: "Integration Visitor",
		Active:       true,
	}
	require.NoError(t, store.CreateRoom(ctx, room))
	defer func() {
		gormDB.Where("room_id = ?", room.Id).Delete(&model.Message{})
		gormDB.Where("id = ?", room.Id).Delete(&model.Room{})
	}()

	t.Run("Check Round Trip", func(t *testing.T) {
		got, err := store.GetRoom(ctx, room.Id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Integration Visitor", got.VisitorLabel)
		assert.True(t, got.Active)
	})

	t.Run("Check Missing Room Is Nil", func(t *testing.T) {
		got, err := store.GetRoom(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Check Append Updates Counters", func(t *testing.T) {
		msg, err := store.AppendMessage(ctx, room.Id, "User", "integration hello")
		require.NoError(t, err)
		assert.Equal(t, room.Id, msg.RoomId)

		got, err := store.GetRoom(ctx, room.Id)
		require.NoError(t, err)
		assert.Equal(t, 1, got.UnreadCount)
		assert.Equal(t, 1, got.MessageCount)

		unread, err := store.CountUnread(ctx, room.Id)
		require.NoError(t, err)
		assert.EqualValues(t, 1, unread)
	})

	t.Run("Check History Order", func(t *testing.T) {
		_, err := store.AppendMessage(ctx, room.Id, "Agent", "integration reply")
		require.NoError(t, err)

		messages, err := store.GetMessages(ctx, room.Id)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "integration hello", messages[0].Body)
		assert.Equal(t, "integration reply", messages[1].Body)
	})

	t.Run("Check Mark Read", func(t *testing.T) {
		require.NoError(t, store.MarkRead(ctx, room.Id))

		unread, err := store.CountUnread(ctx, room.Id)
		require.NoError(t, err)
		assert.Zero(t, unread)

		got, err := store.GetRoom(ctx, room.Id)
		require.NoError(t, err)
		assert.Zero(t, got.UnreadCount)
	})

	t.Run("Check Active Listing And Deactivation", func(t *testing.T) {
		rooms, err := store.ListActiveRoomsWithMessages(ctx)
		require.NoError(t, err)
		found := false
		for _, r := range rooms {
			if r.Id == room.Id {
				found = true
			}
		}
		assert.True(t, found, "room with messages should be listed")

		require.NoError(t, store.DeactivateRoom(ctx, room.Id))
		rooms, err = store.ListActiveRoomsWithMessages(ctx)
		require.NoError(t, err)
		for _, r := range rooms {
			assert.NotEqual(t, room.Id, r.Id)
		}

		messages, err := store.GetMessages(ctx, room.Id)
		require.NoError(t, err)
		assert.Len(t, messages, 2, "history survives deactivation")
	})
}
