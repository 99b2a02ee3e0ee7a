package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/edustack/campus/internal/notification/domain"
	"github.com/edustack/campus/internal/notification/liveevents"
	"github.com/edustack/campus/internal/notification/repository"
	"github.com/edustack/campus/internal/notification/service"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_notification_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE notifications (
		id BIGINT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		type TEXT NOT NULL,
		related_type TEXT,
		related_id BIGINT,
		action_url TEXT,
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		read_at TIMESTAMP
	)`).Error)

	return db
}

func newService(t *testing.T) (domain.Service, *liveevents.Hub) {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(11)
	require.NoError(t, err)
	hub := liveevents.NewHub()

	svc := service.NewService(service.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Hub:   hub,
	})
	return svc, hub
}

func TestSendPersistsWithoutSubscribers(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	sent, err := svc.Send(ctx, 42, domain.Content{
		Title:     "Payment approved",
		Message:   "You are enrolled.",
		Type:      domain.TypeSuccess,
		RelatedID: 7,
	})
	require.NoError(t, err)
	require.NotZero(t, sent.ID)

	items, err := svc.List(ctx, 42)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Payment approved", items[0].Title)
	require.Equal(t, domain.TypeSuccess, items[0].Type)
	require.NotNil(t, items[0].RelatedID)
	require.EqualValues(t, 7, *items[0].RelatedID)
	require.False(t, items[0].Read)
}

func TestSendPushesToLiveSubscriber(t *testing.T) {
	ctx := context.Background()
	svc, hub := newService(t)

	sub, backlog, err := hub.Subscribe(42)
	require.NoError(t, err)
	defer sub.Close()
	require.Empty(t, backlog)

	_, err = svc.Send(ctx, 42, domain.Content{
		Title:   "Hello",
		Message: "World",
	})
	require.NoError(t, err)

	select {
	case event := <-sub.Events():
		require.Equal(t, "Hello", event.Title)
		require.EqualValues(t, 42, event.UserID)
		require.Equal(t, domain.TypeInfo, event.Type)
	case <-time.After(time.Second):
		t.Fatal("expected a live event")
	}
}

func TestSendRejectsInvalidContent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Send(ctx, 42, domain.Content{Title: "", Message: "body"})
	require.ErrorIs(t, err, domain.ErrInvalidNotification)

	_, err = svc.Send(ctx, 0, domain.Content{Title: "t", Message: "m"})
	require.ErrorIs(t, err, domain.ErrInvalidNotification)

	_, err = svc.Send(ctx, 42, domain.Content{Title: "t", Message: "m", Type: "shout"})
	require.ErrorIs(t, err, domain.ErrInvalidNotification)
}

func TestSendToManyContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	// The zero user id fails validation; the other two still go through.
	sent, err := svc.SendToMany(ctx, []int64{1, 0, 2}, domain.Content{
		Title:   "Course updated",
		Message: "New lesson available.",
	})
	require.NoError(t, err)
	require.Len(t, sent, 2)

	for _, userID := range []int64{1, 2} {
		count, err := svc.UnreadCount(ctx, userID)
		require.NoError(t, err)
		require.EqualValues(t, 1, count)
	}
}

func TestMarkReadSemantics(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	sent, err := svc.Send(ctx, 42, domain.Content{Title: "t", Message: "m"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, 42, sent.ID))

	count, err := svc.UnreadCount(ctx, 42)
	require.NoError(t, err)
	require.Zero(t, count)

	// Marking an already-read notification is a no-op, not an error.
	require.NoError(t, svc.MarkRead(ctx, 42, sent.ID))

	// Another user's notification is invisible to the caller.
	err = svc.MarkRead(ctx, 99, sent.ID)
	require.ErrorIs(t, err, domain.ErrNotificationNotFound)

	items, err := svc.List(ctx, 42)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, items[0].Read)
	require.NotNil(t, items[0].ReadAt)
}
