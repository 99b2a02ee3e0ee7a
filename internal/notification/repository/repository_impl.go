package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/edustack/campus/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, notification *domain.Notification) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO notifications (
			id, user_id, title, message, type, related_type, related_id,
			action_url, read, created_at, read_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		notification.ID,
		notification.UserID,
		notification.Title,
		notification.Message,
		notification.Type,
		notification.RelatedType,
		notification.RelatedID,
		notification.ActionURL,
		notification.Read,
		notification.CreatedAt,
		notification.ReadAt,
	).Error
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Notification, error) {
	var items []domain.Notification
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, title, message, type, related_type, related_id,
			action_url, read, created_at, read_at
		 FROM notifications
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MarkRead(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID, readAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE notifications
		 SET read = TRUE, read_at = ?
		 WHERE id = ? AND user_id = ? AND read = FALSE`,
		readAt,
		id,
		userID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) CountUnread(ctx context.Context, db *gorm.DB, userID int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM notifications WHERE user_id = ? AND read = FALSE`,
		userID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
