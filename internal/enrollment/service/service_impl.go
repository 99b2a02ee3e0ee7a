package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	coursedomain "github.com/edustack/campus/internal/course/domain"
	"github.com/edustack/campus/internal/enrollment/domain"
	"github.com/edustack/campus/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	CourseRepo coursedomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	courseRepo coursedomain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("enrollment.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		courseRepo: p.CourseRepo,
	}
}

// Enroll inserts optimistically; the unique (user_id, course_id) constraint
// resolves concurrent attempts, and the course counter moves only when this
// call actually created the row. The insert and the counter update commit in
// one transaction: a failed increment rolls back the row, so a retry starts
// from a clean slate instead of seeing a half-applied enrollment.
func (s *Service) Enroll(ctx context.Context, userID int64, courseID snowflake.ID) (bool, error) {
	if userID <= 0 || courseID == 0 {
		return false, domain.ErrInvalidEnrollment
	}

	enrollment := domain.Enrollment{
		ID:        s.genID.Generate(),
		UserID:    userID,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	}

	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := s.repo.Insert(ctx, tx, &enrollment)
		if err != nil {
			if db.IsDuplicateKeyErr(err) {
				return nil
			}
			return err
		}
		if !inserted {
			return nil
		}
		if err := s.courseRepo.IncrementStudents(ctx, tx, courseID); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		s.log.Error("enrollment rolled back",
			zap.Int64("user_id", userID),
			zap.String("course_id", courseID.String()),
			zap.Error(err),
		)
		return false, err
	}
	return created, nil
}

func (s *Service) IsEnrolled(ctx context.Context, userID int64, courseID snowflake.ID) (bool, error) {
	return s.repo.Exists(ctx, s.db, userID, courseID)
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]domain.Enrollment, error) {
	return s.repo.ListByUser(ctx, s.db, userID)
}
