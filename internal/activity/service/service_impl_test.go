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

	"github.com/edustack/campus/internal/activity/domain"
	"github.com/edustack/campus/internal/activity/repository"
	"github.com/edustack/campus/internal/activity/service"
	"github.com/edustack/campus/internal/requestctx"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_activity_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE activity_logs (
		id BIGINT PRIMARY KEY,
		user_id BIGINT,
		user_name TEXT NOT NULL DEFAULT '',
		user_role TEXT NOT NULL DEFAULT '',
		action_type TEXT NOT NULL,
		action_description TEXT NOT NULL,
		entity_type TEXT,
		entity_id BIGINT,
		entity_name TEXT,
		ip_address TEXT,
		user_agent TEXT,
		created_at TIMESTAMP NOT NULL
	)`).Error)

	return db
}

func newService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(13)
	require.NoError(t, err)

	svc := service.NewService(service.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, db
}

func TestRecordFillsActorFromContext(t *testing.T) {
	svc, _ := newService(t)

	ctx := requestctx.WithActor(context.Background(), requestctx.Actor{
		UserID:   42,
		UserName: "Ada",
		UserRole: "student",
	})
	ctx = requestctx.WithIPAddress(ctx, "203.0.113.9")
	ctx = requestctx.WithUserAgent(ctx, "campus-web/1.0")

	svc.Record(ctx, domain.Record{
		ActionType:        "payment_reconciled",
		ActionDescription: "payment approved",
		EntityType:        "payment",
		EntityID:          1,
	})

	entries, err := svc.List(context.Background(), domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	require.EqualValues(t, 42, entry.UserID)
	require.Equal(t, "Ada", entry.UserName)
	require.Equal(t, "student", entry.UserRole)
	require.NotNil(t, entry.IPAddress)
	require.Equal(t, "203.0.113.9", *entry.IPAddress)
	require.NotNil(t, entry.UserAgent)
	require.Equal(t, "campus-web/1.0", *entry.UserAgent)
}

func TestRecordExplicitFieldsWinOverContext(t *testing.T) {
	svc, _ := newService(t)

	ctx := requestctx.WithActor(context.Background(), requestctx.Actor{UserID: 42, UserName: "Ada"})

	svc.Record(ctx, domain.Record{
		UserID:            7,
		UserName:          "system",
		ActionType:        "course_created",
		ActionDescription: "created",
	})

	entries, err := svc.List(context.Background(), domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.EqualValues(t, 7, entries[0].UserID)
	require.Equal(t, "system", entries[0].UserName)
}

func TestRecordAbsorbsStorageFailure(t *testing.T) {
	svc, db := newService(t)

	require.NoError(t, db.Exec(`DROP TABLE activity_logs`).Error)

	// The insert has nowhere to go; the caller must not notice.
	require.NotPanics(t, func() {
		svc.Record(context.Background(), domain.Record{
			ActionType:        "payment_reconciled",
			ActionDescription: "payment approved",
		})
	})
}

func TestRecordDropsEmptyAction(t *testing.T) {
	svc, _ := newService(t)

	svc.Record(context.Background(), domain.Record{ActionDescription: "no action type"})

	entries, err := svc.List(context.Background(), domain.ListFilter{})
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestListFilters(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	svc.Record(ctx, domain.Record{UserID: 1, ActionType: "payment_reconciled", ActionDescription: "a", EntityType: "payment"})
	svc.Record(ctx, domain.Record{UserID: 2, ActionType: "course_created", ActionDescription: "b", EntityType: "course"})
	svc.Record(ctx, domain.Record{UserID: 1, ActionType: "checkout_created", ActionDescription: "c", EntityType: "course"})

	entries, err := svc.List(ctx, domain.ListFilter{UserID: 1})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	entries, err = svc.List(ctx, domain.ListFilter{ActionType: "course_created"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.EqualValues(t, 2, entries[0].UserID)

	entries, err = svc.List(ctx, domain.ListFilter{EntityType: "course"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
