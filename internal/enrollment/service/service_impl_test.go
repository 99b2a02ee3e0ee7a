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

	coursedomain "github.com/edustack/campus/internal/course/domain"
	courserepo "github.com/edustack/campus/internal/course/repository"
	"github.com/edustack/campus/internal/enrollment/domain"
	"github.com/edustack/campus/internal/enrollment/repository"
	"github.com/edustack/campus/internal/enrollment/service"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_enrollment_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE courses (
			id BIGINT PRIMARY KEY,
			title TEXT NOT NULL,
			slug TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price BIGINT NOT NULL,
			currency CHAR(3) NOT NULL,
			students BIGINT NOT NULL DEFAULT 0,
			published BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE enrollments (
			id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			course_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_enrollments_user_course ON enrollments(user_id, course_id)`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}

func newService(t *testing.T) (domain.Service, coursedomain.Repository, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(12)
	require.NoError(t, err)

	courseRepo := courserepo.Provide()
	svc := service.NewService(service.Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       repository.Provide(),
		CourseRepo: courseRepo,
	})
	return svc, courseRepo, db
}

func seedCourse(t *testing.T, db *gorm.DB, repo coursedomain.Repository, id snowflake.ID) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, repo.Insert(context.Background(), db, &coursedomain.Course{
		ID:        id,
		Title:     "Systems Programming",
		Slug:      "systems-programming",
		Price:     29900,
		Currency:  "ARS",
		Published: true,
		CreatedAt: now,
		UpdatedAt: now,
	}))
}

func TestEnrollCreatesAndCountsOnce(t *testing.T) {
	ctx := context.Background()
	svc, courseRepo, db := newService(t)
	seedCourse(t, db, courseRepo, snowflake.ID(7))

	created, err := svc.Enroll(ctx, 42, snowflake.ID(7))
	require.NoError(t, err)
	require.True(t, created)

	// Second attempt is absorbed and the counter stays put.
	created, err = svc.Enroll(ctx, 42, snowflake.ID(7))
	require.NoError(t, err)
	require.False(t, created)

	course, err := courseRepo.Find(ctx, db, snowflake.ID(7))
	require.NoError(t, err)
	require.EqualValues(t, 1, course.Students)

	enrolled, err := svc.IsEnrolled(ctx, 42, snowflake.ID(7))
	require.NoError(t, err)
	require.True(t, enrolled)
}

func TestEnrollRollsBackWhenCounterUpdateFails(t *testing.T) {
	ctx := context.Background()
	svc, courseRepo, db := newService(t)
	seedCourse(t, db, courseRepo, snowflake.ID(7))

	// Make the counter update fail after the insert would have succeeded.
	require.NoError(t, db.Exec(`ALTER TABLE courses RENAME TO courses_hidden`).Error)

	created, err := svc.Enroll(ctx, 42, snowflake.ID(7))
	require.Error(t, err)
	require.False(t, created)

	// The enrollment row must have rolled back with the failed increment.
	var enrollments int64
	require.NoError(t, db.Raw(`SELECT COUNT(1) FROM enrollments`).Scan(&enrollments).Error)
	require.Zero(t, enrollments)

	require.NoError(t, db.Exec(`ALTER TABLE courses_hidden RENAME TO courses`).Error)

	// The retry starts clean: row created and counter moved together.
	created, err = svc.Enroll(ctx, 42, snowflake.ID(7))
	require.NoError(t, err)
	require.True(t, created)

	course, err := courseRepo.Find(ctx, db, snowflake.ID(7))
	require.NoError(t, err)
	require.EqualValues(t, 1, course.Students)
}

func TestEnrollValidatesInput(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	_, err := svc.Enroll(ctx, 0, snowflake.ID(7))
	require.ErrorIs(t, err, domain.ErrInvalidEnrollment)

	_, err = svc.Enroll(ctx, 42, snowflake.ID(0))
	require.ErrorIs(t, err, domain.ErrInvalidEnrollment)
}

func TestListByUser(t *testing.T) {
	ctx := context.Background()
	svc, courseRepo, db := newService(t)
	seedCourse(t, db, courseRepo, snowflake.ID(7))

	_, err := svc.Enroll(ctx, 42, snowflake.ID(7))
	require.NoError(t, err)

	items, err := svc.ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.EqualValues(t, 7, items[0].CourseID)

	items, err = svc.ListByUser(ctx, 99)
	require.NoError(t, err)
	require.Empty(t, items)
}
