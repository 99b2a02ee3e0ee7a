package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/edustack/campus/internal/activity/domain"
	"github.com/edustack/campus/internal/requestctx"
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
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("activity.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Record appends one entry to the trail. Every failure is absorbed here:
// the triggering domain action must never fail because its audit entry
// could not be written.
func (s *Service) Record(ctx context.Context, record domain.Record) {
	actionType := strings.TrimSpace(record.ActionType)
	if actionType == "" {
		s.log.Warn("activity entry dropped", zap.Error(domain.ErrInvalidAction))
		return
	}

	entry := domain.Entry{
		ID:                s.genID.Generate(),
		UserID:            record.UserID,
		UserName:          strings.TrimSpace(record.UserName),
		UserRole:          strings.TrimSpace(record.UserRole),
		ActionType:        actionType,
		ActionDescription: strings.TrimSpace(record.ActionDescription),
		CreatedAt:         time.Now().UTC(),
	}

	if actor, ok := requestctx.ActorFromContext(ctx); ok {
		if entry.UserID == 0 {
			entry.UserID = actor.UserID
		}
		if entry.UserName == "" {
			entry.UserName = actor.UserName
		}
		if entry.UserRole == "" {
			entry.UserRole = actor.UserRole
		}
	}

	if entityType := strings.TrimSpace(record.EntityType); entityType != "" {
		entry.EntityType = &entityType
	}
	if record.EntityID > 0 {
		entityID := record.EntityID
		entry.EntityID = &entityID
	}
	if entityName := strings.TrimSpace(record.EntityName); entityName != "" {
		entry.EntityName = &entityName
	}
	if ip := requestctx.IPAddressFromContext(ctx); ip != "" {
		entry.IPAddress = &ip
	}
	if ua := requestctx.UserAgentFromContext(ctx); ua != "" {
		entry.UserAgent = &ua
	}

	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		s.log.Warn("failed to write activity log",
			zap.String("action_type", actionType),
			zap.Error(err),
		)
	}
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Entry, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 250 {
		filter.Limit = 250
	}
	return s.repo.List(ctx, s.db, filter)
}
