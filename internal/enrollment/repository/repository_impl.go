package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/edustack/campus/internal/enrollment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, enrollment *domain.Enrollment) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO enrollments (id, user_id, course_id, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		enrollment.ID,
		enrollment.UserID,
		enrollment.CourseID,
		enrollment.CreatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Exists(ctx context.Context, db *gorm.DB, userID int64, courseID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM enrollments WHERE user_id = ? AND course_id = ?`,
		userID,
		courseID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Enrollment, error) {
	var items []domain.Enrollment
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, course_id, created_at
		 FROM enrollments
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
