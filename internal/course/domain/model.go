package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Course struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	Title       string       `json:"title" gorm:"type:text;not null"`
	Slug        string       `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	Description string       `json:"description" gorm:"type:text"`
	Price       int64        `json:"price" gorm:"not null"`
	Currency    string       `json:"currency" gorm:"type:char(3);not null"`
	Students    int64        `json:"students" gorm:"not null;default:0"`
	Published   bool         `json:"published" gorm:"not null;default:false"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null"`
}

func (Course) TableName() string { return "courses" }

type CreateCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency"`
	Published   bool   `json:"published"`
}

type Service interface {
	Create(ctx context.Context, req CreateCourseRequest) (*Course, error)
	Get(ctx context.Context, id snowflake.ID) (*Course, error)
	List(ctx context.Context) ([]Course, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, course *Course) error
	Find(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Course, error)
	List(ctx context.Context, db *gorm.DB) ([]Course, error)
	IncrementStudents(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}

var (
	ErrCourseNotFound = errors.New("course_not_found")
	ErrInvalidCourse  = errors.New("invalid_course")
	ErrInvalidPrice   = errors.New("invalid_price")
	ErrSlugTaken      = errors.New("slug_taken")
)
