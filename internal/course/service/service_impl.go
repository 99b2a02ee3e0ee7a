package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/edustack/campus/internal/course/domain"
	"github.com/edustack/campus/pkg/db"
	"github.com/gosimple/slug"
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
		log:   p.Log.Named("course.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCourseRequest) (*domain.Course, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidCourse
	}
	if req.Price < 0 {
		return nil, domain.ErrInvalidPrice
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		return nil, domain.ErrInvalidCourse
	}

	now := time.Now().UTC()
	course := domain.Course{
		ID:          s.genID.Generate(),
		Title:       title,
		Slug:        slug.Make(title),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Currency:    currency,
		Published:   req.Published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, &course); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}
	return &course, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Course, error) {
	course, err := s.repo.Find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, domain.ErrCourseNotFound
	}
	return course, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Course, error) {
	return s.repo.List(ctx, s.db)
}
