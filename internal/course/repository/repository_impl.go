package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/edustack/campus/internal/course/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, course *domain.Course) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO courses (
			id, title, slug, description, price, currency, students, published,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		course.ID,
		course.Title,
		course.Slug,
		course.Description,
		course.Price,
		course.Currency,
		course.Students,
		course.Published,
		course.CreatedAt,
		course.UpdatedAt,
	).Error
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Course, error) {
	var item domain.Course
	err := db.WithContext(ctx).Raw(
		`SELECT id, title, slug, description, price, currency, students, published,
			created_at, updated_at
		 FROM courses
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Course, error) {
	var items []domain.Course
	err := db.WithContext(ctx).Raw(
		`SELECT id, title, slug, description, price, currency, students, published,
			created_at, updated_at
		 FROM courses
		 ORDER BY created_at DESC, id DESC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) IncrementStudents(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE courses
		 SET students = students + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		id,
	).Error
}
