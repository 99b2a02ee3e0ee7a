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

	"github.com/edustack/campus/internal/course/domain"
	"github.com/edustack/campus/internal/course/repository"
	"github.com/edustack/campus/internal/course/service"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_course_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE courses (
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
	)`).Error)
	require.NoError(t, db.Exec(`CREATE UNIQUE INDEX ux_courses_slug ON courses(slug)`).Error)

	return db
}

func newService(t *testing.T) domain.Service {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(14)
	require.NoError(t, err)

	return service.NewService(service.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func TestCreateCourse(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	course, err := svc.Create(ctx, domain.CreateCourseRequest{
		Title:     "Göra Mer: Advanced Concurrency!",
		Price:     49900,
		Currency:  "ars",
		Published: true,
	})
	require.NoError(t, err)
	require.NotZero(t, course.ID)
	require.Equal(t, "gora-mer-advanced-concurrency", course.Slug)
	require.Equal(t, "ARS", course.Currency)

	fetched, err := svc.Get(ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, course.Title, fetched.Title)
}

func TestCreateCourseDuplicateSlug(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.Create(ctx, domain.CreateCourseRequest{Title: "Go Basics", Price: 100, Currency: "ARS"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateCourseRequest{Title: "Go Basics", Price: 200, Currency: "ARS"})
	require.ErrorIs(t, err, domain.ErrSlugTaken)
}

func TestCreateCourseValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.Create(ctx, domain.CreateCourseRequest{Title: "  ", Price: 100, Currency: "ARS"})
	require.ErrorIs(t, err, domain.ErrInvalidCourse)

	_, err = svc.Create(ctx, domain.CreateCourseRequest{Title: "T", Price: -1, Currency: "ARS"})
	require.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.Create(ctx, domain.CreateCourseRequest{Title: "T", Price: 100, Currency: ""})
	require.ErrorIs(t, err, domain.ErrInvalidCourse)
}

func TestGetUnknownCourse(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.Get(ctx, snowflake.ID(12345))
	require.ErrorIs(t, err, domain.ErrCourseNotFound)
}

func TestListCourses(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.Create(ctx, domain.CreateCourseRequest{Title: "A", Price: 1, Currency: "ARS"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateCourseRequest{Title: "B", Price: 2, Currency: "ARS"})
	require.NoError(t, err)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
}
