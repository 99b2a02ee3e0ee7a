package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/edustack/campus/internal/activity/domain"
	coursedomain "github.com/edustack/campus/internal/course/domain"
	enrollmentdomain "github.com/edustack/campus/internal/enrollment/domain"
	notificationdomain "github.com/edustack/campus/internal/notification/domain"
	obsmetrics "github.com/edustack/campus/internal/observability/metrics"
	"github.com/edustack/campus/internal/payment/domain"
	"github.com/edustack/campus/internal/paymentref"
	"github.com/edustack/campus/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const actionPaymentReconciled = "payment_reconciled"

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Gateway       domain.Gateway
	Repo          domain.Repository
	CourseRepo    coursedomain.Repository
	EnrollmentSvc enrollmentdomain.Service
	Notifier      notificationdomain.Service
	ActivitySvc   activitydomain.Service
	ObsMetrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	gateway       domain.Gateway
	repo          domain.Repository
	courseRepo    coursedomain.Repository
	enrollmentSvc enrollmentdomain.Service
	notifier      notificationdomain.Service
	activitySvc   activitydomain.Service
	obsMetrics    *obsmetrics.Metrics
	deliveries    keyedMutex
}

func NewService(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("payment.service"),
		genID:         p.GenID,
		gateway:       p.Gateway,
		repo:          p.Repo,
		courseRepo:    p.CourseRepo,
		enrollmentSvc: p.EnrollmentSvc,
		notifier:      p.Notifier,
		activitySvc:   p.ActivitySvc,
		obsMetrics:    p.ObsMetrics,
	}
}

// CreateCheckout builds the correlation reference for a (course, user)
// purchase and asks the gateway for a checkout. Nothing is persisted here;
// the payment record is created on first webhook receipt.
func (s *Service) CreateCheckout(ctx context.Context, courseID snowflake.ID, userID int64) (*domain.PaymentIntentHandle, error) {
	if courseID == 0 || userID <= 0 {
		return nil, domain.ErrInvalidCheckout
	}

	course, err := s.courseRepo.Find(ctx, s.db, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, coursedomain.ErrCourseNotFound
	}

	reference := paymentref.Encode(paymentref.Token{
		Kind:     paymentref.KindCoursePurchase,
		EntityID: int64(course.ID),
		UserID:   userID,
		IssuedAt: time.Now().UnixMilli(),
	})

	handle, err := s.gateway.CreatePreference(ctx, domain.CheckoutPreference{
		Title:             course.Title,
		Amount:            course.Price,
		Currency:          course.Currency,
		ExternalReference: reference,
	})
	if err != nil {
		s.obsMetrics.RecordGatewayError("create_preference")
		return nil, err
	}

	s.activitySvc.Record(ctx, activitydomain.Record{
		UserID:            userID,
		ActionType:        "checkout_created",
		ActionDescription: fmt.Sprintf("checkout created for course %q", course.Title),
		EntityType:        "course",
		EntityID:          int64(course.ID),
		EntityName:        course.Title,
	})

	return handle, nil
}

// HandleWebhook is the reconciliation state machine. The webhook body is
// attacker-reachable, so the status is always re-fetched from the gateway;
// arrival order of duplicate deliveries therefore cannot change the result.
func (s *Service) HandleWebhook(ctx context.Context, event domain.WebhookEvent) (domain.Outcome, error) {
	if !strings.EqualFold(strings.TrimSpace(event.Type), domain.EventTypePayment) {
		return s.outcome(domain.OutcomeIgnored), nil
	}
	externalID := strings.TrimSpace(event.Data.ID)
	if externalID == "" {
		return s.outcome(domain.OutcomeIgnored), nil
	}

	payment, err := s.gateway.GetPayment(ctx, externalID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			// The gateway has no record; nothing to reconcile and nothing
			// redelivery could fix. Note the anomaly and ack.
			s.log.Warn("webhook for unknown payment", zap.String("payment_id", externalID))
			return s.outcome(domain.OutcomeNotFound), nil
		}
		s.obsMetrics.RecordGatewayError("get_payment")
		return "", err
	}

	token, err := paymentref.Decode(payment.ExternalReference)
	if err != nil {
		// A reference we cannot map to a domain intent will never become
		// decodable; record the anomaly and stop the gateway's redelivery.
		s.log.Warn("payment with malformed external reference",
			zap.String("payment_id", externalID),
			zap.String("external_reference", payment.ExternalReference),
		)
		s.activitySvc.Record(ctx, activitydomain.Record{
			ActionType:        actionPaymentReconciled,
			ActionDescription: fmt.Sprintf("payment %s discarded: malformed external reference", externalID),
			EntityType:        "payment",
		})
		return s.outcome(domain.OutcomeMalformed), nil
	}

	// Serialize deliveries of the same payment. Without this, a second
	// delivery arriving while the first is still between its record write
	// and MarkResolved would read {same status, resolved_at NULL} and run
	// the effects a second time.
	unlock := s.deliveries.lock(externalID)
	defer unlock()

	applied, record, err := s.upsertRecord(ctx, payment)
	if err != nil {
		return "", err
	}

	switch {
	case applied:
		// This delivery moved the record; run the domain effects.
	case record.Status == payment.Status && (record.ResolvedAt != nil || !record.Status.Terminal()):
		// Idempotent redelivery, fully absorbed.
		return s.outcome(domain.OutcomeDuplicate), nil
	case record.Status == payment.Status:
		// Same terminal status but effects never completed (a previous
		// delivery crashed between write and effect). Finish them now.
	case record.Status.Terminal():
		s.recordConflict(ctx, record, payment.Status, token)
		return s.outcome(domain.OutcomeConflict), nil
	default:
		// Lost the transition race to a concurrent delivery.
		return s.outcome(domain.OutcomeDuplicate), nil
	}

	result, err := s.applyEffects(ctx, payment, token)
	if err != nil {
		return "", err
	}

	if payment.Status.Terminal() {
		if err := s.repo.MarkResolved(ctx, s.db, externalID, time.Now().UTC()); err != nil {
			return "", err
		}
	}

	s.obsMetrics.RecordPaymentReconciled(string(payment.Status))
	return s.outcome(result), nil
}

// upsertRecord creates or transitions the payment record. The uniqueness
// constraint on external_payment_id is the race resolver: when two
// deliveries both read "not found", the loser's insert is a no-op and it
// falls through to the guarded update path.
func (s *Service) upsertRecord(ctx context.Context, payment *domain.GatewayPayment) (bool, *domain.PaymentRecord, error) {
	record := domain.PaymentRecord{
		ID:                s.genID.Generate(),
		ExternalPaymentID: payment.ExternalPaymentID,
		ExternalReference: payment.ExternalReference,
		Amount:            payment.Amount,
		Currency:          payment.Currency,
		Status:            payment.Status,
		RawPayload:        datatypes.JSON(payment.RawPayload),
		CreatedAt:         time.Now().UTC(),
	}

	inserted, err := s.repo.Insert(ctx, s.db, &record)
	if err != nil && !db.IsDuplicateKeyErr(err) {
		return false, nil, err
	}
	if inserted {
		return true, &record, nil
	}

	stored, err := s.repo.Find(ctx, s.db, payment.ExternalPaymentID)
	if err != nil {
		return false, nil, err
	}
	if stored == nil {
		return false, nil, domain.ErrInvalidEvent
	}

	if stored.Status == payment.Status || stored.Status.Terminal() {
		return false, stored, nil
	}

	moved, err := s.repo.TransitionStatus(ctx, s.db, payment.ExternalPaymentID, payment.Status)
	if err != nil {
		return false, nil, err
	}
	if !moved {
		// Re-read so the caller can classify what won the race.
		stored, err = s.repo.Find(ctx, s.db, payment.ExternalPaymentID)
		if err != nil {
			return false, nil, err
		}
		if stored == nil {
			return false, nil, domain.ErrInvalidEvent
		}
		return false, stored, nil
	}

	stored.Status = payment.Status
	return true, stored, nil
}

func (s *Service) applyEffects(ctx context.Context, payment *domain.GatewayPayment, token paymentref.Token) (domain.Outcome, error) {
	switch payment.Status {
	case domain.StatusApproved:
		return s.applyApproved(ctx, payment, token)
	case domain.StatusRejected, domain.StatusCancelled:
		s.notifyFailure(ctx, payment, token)
		s.recordTransition(ctx, payment, token)
		return domain.OutcomeApplied, nil
	default:
		s.recordTransition(ctx, payment, token)
		return domain.OutcomeApplied, nil
	}
}

func (s *Service) applyApproved(ctx context.Context, payment *domain.GatewayPayment, token paymentref.Token) (domain.Outcome, error) {
	if token.Kind != paymentref.KindCoursePurchase {
		// Only course purchases have an enrollment effect today; record
		// the transition so the anomaly is visible to operators.
		s.log.Warn("approved payment for unsupported intent kind",
			zap.String("payment_id", payment.ExternalPaymentID),
			zap.String("kind", string(token.Kind)),
		)
		s.recordTransition(ctx, payment, token)
		return domain.OutcomeUnsupported, nil
	}

	courseID := snowflake.ID(token.EntityID)
	if _, err := s.enrollmentSvc.Enroll(ctx, token.UserID, courseID); err != nil {
		return "", err
	}

	course, err := s.courseRepo.Find(ctx, s.db, courseID)
	if err != nil {
		return "", err
	}
	courseTitle := "your course"
	if course != nil {
		courseTitle = course.Title
	}

	if _, err := s.notifier.Send(ctx, token.UserID, notificationdomain.Content{
		Title:       "Payment approved",
		Message:     fmt.Sprintf("Your payment was approved. You are now enrolled in %q.", courseTitle),
		Type:        notificationdomain.TypeSuccess,
		RelatedType: "course",
		RelatedID:   token.EntityID,
		ActionURL:   fmt.Sprintf("/courses/%d", token.EntityID),
	}); err != nil {
		// The enrollment is durable; a failed notification write must not
		// make the gateway redeliver and is recoverable by polling.
		s.log.Warn("failed to persist approval notification",
			zap.String("payment_id", payment.ExternalPaymentID),
			zap.Error(err),
		)
	} else {
		s.obsMetrics.RecordNotificationSent(notificationdomain.TypeSuccess)
	}

	s.recordTransition(ctx, payment, token)
	return domain.OutcomeApplied, nil
}

func (s *Service) notifyFailure(ctx context.Context, payment *domain.GatewayPayment, token paymentref.Token) {
	if _, err := s.notifier.Send(ctx, token.UserID, notificationdomain.Content{
		Title:       "Payment failed",
		Message:     "Your payment was not completed. No charge was applied; you can retry the purchase.",
		Type:        notificationdomain.TypeError,
		RelatedType: "course",
		RelatedID:   token.EntityID,
	}); err != nil {
		s.log.Warn("failed to persist failure notification",
			zap.String("payment_id", payment.ExternalPaymentID),
			zap.Error(err),
		)
		return
	}
	s.obsMetrics.RecordNotificationSent(notificationdomain.TypeError)
}

func (s *Service) recordTransition(ctx context.Context, payment *domain.GatewayPayment, token paymentref.Token) {
	s.activitySvc.Record(ctx, activitydomain.Record{
		UserID:            token.UserID,
		ActionType:        actionPaymentReconciled,
		ActionDescription: fmt.Sprintf("payment %s reconciled to %s", payment.ExternalPaymentID, payment.Status),
		EntityType:        "course",
		EntityID:          token.EntityID,
	})
}

func (s *Service) recordConflict(ctx context.Context, record *domain.PaymentRecord, fetched domain.Status, token paymentref.Token) {
	s.log.Error("reconciliation conflict",
		zap.String("payment_id", record.ExternalPaymentID),
		zap.String("stored_status", string(record.Status)),
		zap.String("fetched_status", string(fetched)),
		zap.Error(domain.ErrReconciliationConflict),
	)
	s.activitySvc.Record(ctx, activitydomain.Record{
		UserID:     token.UserID,
		ActionType: "reconciliation_conflict",
		ActionDescription: fmt.Sprintf(
			"payment %s already recorded as %s but gateway now reports %s; requires operator resolution",
			record.ExternalPaymentID, record.Status, fetched,
		),
		EntityType: "payment",
	})
}

func (s *Service) outcome(outcome domain.Outcome) domain.Outcome {
	s.obsMetrics.RecordWebhookOutcome(string(outcome))
	return outcome
}
