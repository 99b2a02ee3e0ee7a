package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Enrollment struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID    int64        `json:"user_id" gorm:"not null;index"`
	CourseID  snowflake.ID `json:"course_id" gorm:"not null;index"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
}

func (Enrollment) TableName() string { return "enrollments" }

type Service interface {
	// Enroll is idempotent: enrolling an already-enrolled pair is a no-op.
	// The returned bool reports whether a new enrollment was created.
	Enroll(ctx context.Context, userID int64, courseID snowflake.ID) (bool, error)
	IsEnrolled(ctx context.Context, userID int64, courseID snowflake.ID) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]Enrollment, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, enrollment *Enrollment) (bool, error)
	Exists(ctx context.Context, db *gorm.DB, userID int64, courseID snowflake.ID) (bool, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID int64) ([]Enrollment, error)
}

var ErrInvalidEnrollment = errors.New("invalid_enrollment")
