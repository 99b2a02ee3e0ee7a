package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/edustack/campus/internal/notification/domain"
	"github.com/edustack/campus/internal/notification/liveevents"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Hub   *liveevents.Hub
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	hub   *liveevents.Hub
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("notification.service"),
		genID: p.GenID,
		repo:  p.Repo,
		hub:   p.Hub,
	}
}

// Send writes the row first, then publishes to live connections. The write
// is the durability guarantee; the push is a latency optimization and its
// failure never surfaces to the caller.
func (s *Service) Send(ctx context.Context, userID int64, content domain.Content) (*domain.Notification, error) {
	notification, err := s.build(userID, content)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, s.db, notification); err != nil {
		return nil, err
	}

	s.publish(notification)
	return notification, nil
}

func (s *Service) SendToMany(ctx context.Context, userIDs []int64, content domain.Content) ([]domain.Notification, error) {
	sent := make([]domain.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notification, err := s.Send(ctx, userID, content)
		if err != nil {
			// Each user's write/push pair is independent; one failure does
			// not abort the batch.
			s.log.Warn("failed to send notification",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			continue
		}
		sent = append(sent, *notification)
	}
	return sent, nil
}

func (s *Service) List(ctx context.Context, userID int64) ([]domain.Notification, error) {
	return s.repo.ListByUser(ctx, s.db, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID int64, id snowflake.ID) error {
	updated, err := s.repo.MarkRead(ctx, s.db, userID, id, time.Now().UTC())
	if err != nil {
		return err
	}
	if updated {
		return nil
	}

	// Zero rows means either the notification does not belong to the user
	// or it was already read; only the former is an error.
	items, err := s.repo.ListByUser(ctx, s.db, userID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.ID == id {
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.repo.CountUnread(ctx, s.db, userID)
}

func (s *Service) build(userID int64, content domain.Content) (*domain.Notification, error) {
	if userID <= 0 {
		return nil, domain.ErrInvalidNotification
	}
	title := strings.TrimSpace(content.Title)
	message := strings.TrimSpace(content.Message)
	if title == "" || message == "" {
		return nil, domain.ErrInvalidNotification
	}
	kind := strings.TrimSpace(content.Type)
	if kind == "" {
		kind = domain.TypeInfo
	}
	if !domain.ValidType(kind) {
		return nil, domain.ErrInvalidNotification
	}

	notification := domain.Notification{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      kind,
		CreatedAt: time.Now().UTC(),
	}
	if related := strings.TrimSpace(content.RelatedType); related != "" {
		notification.RelatedType = &related
	}
	if content.RelatedID > 0 {
		relatedID := content.RelatedID
		notification.RelatedID = &relatedID
	}
	if action := strings.TrimSpace(content.ActionURL); action != "" {
		notification.ActionURL = &action
	}
	return &notification, nil
}

func (s *Service) publish(notification *domain.Notification) {
	if s.hub == nil || notification == nil {
		return
	}
	event := liveevents.Event{
		ID:        notification.ID.String(),
		UserID:    notification.UserID,
		Title:     notification.Title,
		Message:   notification.Message,
		Type:      notification.Type,
		CreatedAt: notification.CreatedAt.Format(time.RFC3339),
	}
	if notification.RelatedType != nil {
		event.RelatedType = *notification.RelatedType
	}
	if notification.RelatedID != nil {
		event.RelatedID = snowflake.ID(*notification.RelatedID).String()
	}
	if notification.ActionURL != nil {
		event.ActionURL = *notification.ActionURL
	}
	s.hub.Publish(notification.UserID, event)
}
