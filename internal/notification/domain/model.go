package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeError   = "error"
)

type Notification struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID      int64        `json:"user_id" gorm:"not null;index"`
	Title       string       `json:"title" gorm:"type:text;not null"`
	Message     string       `json:"message" gorm:"type:text;not null"`
	Type        string       `json:"type" gorm:"type:text;not null"`
	RelatedType *string      `json:"related_type,omitempty" gorm:"type:text"`
	RelatedID   *int64       `json:"related_id,omitempty"`
	ActionURL   *string      `json:"action_url,omitempty" gorm:"type:text"`
	Read        bool         `json:"read" gorm:"not null;default:false"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null"`
	ReadAt      *time.Time   `json:"read_at,omitempty"`
}

func (Notification) TableName() string { return "notifications" }

// Content is what a caller provides; identity and timestamps are assigned
// by the fanout service.
type Content struct {
	Title       string
	Message     string
	Type        string
	RelatedType string
	RelatedID   int64
	ActionURL   string
}

type Service interface {
	// Send persists the notification, then attempts a best-effort push to
	// the user's live connections. Push failures are swallowed; the row is
	// already durable.
	Send(ctx context.Context, userID int64, content Content) (*Notification, error)
	SendToMany(ctx context.Context, userIDs []int64, content Content) ([]Notification, error)
	List(ctx context.Context, userID int64) ([]Notification, error)
	MarkRead(ctx context.Context, userID int64, id snowflake.ID) error
	UnreadCount(ctx context.Context, userID int64) (int64, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, notification *Notification) error
	ListByUser(ctx context.Context, db *gorm.DB, userID int64) ([]Notification, error)
	MarkRead(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID, readAt time.Time) (bool, error)
	CountUnread(ctx context.Context, db *gorm.DB, userID int64) (int64, error)
}

var (
	ErrInvalidNotification  = errors.New("invalid_notification")
	ErrNotificationNotFound = errors.New("notification_not_found")
)

func ValidType(t string) bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return true
	default:
		return false
	}
}
