package repository

import (
	"context"
	"time"

	"github.com/edustack/campus/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.PaymentRecord) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, external_payment_id, external_reference, amount, currency,
			status, raw_payload, created_at, resolved_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (external_payment_id) DO NOTHING`,
		record.ID,
		record.ExternalPaymentID,
		record.ExternalReference,
		record.Amount,
		record.Currency,
		record.Status,
		record.RawPayload,
		record.CreatedAt,
		record.ResolvedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, externalPaymentID string) (*domain.PaymentRecord, error) {
	var item domain.PaymentRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, external_payment_id, external_reference, amount, currency,
			status, raw_payload, created_at, resolved_at
		 FROM payments
		 WHERE external_payment_id = ?
		 LIMIT 1`,
		externalPaymentID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

// TransitionStatus is a guarded update: it only fires while the stored
// status is still non-terminal, so a terminal status can never be flipped
// by a racing delivery.
func (r *repo) TransitionStatus(ctx context.Context, db *gorm.DB, externalPaymentID string, to domain.Status) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET status = ?
		 WHERE external_payment_id = ? AND status IN (?, ?)`,
		to,
		externalPaymentID,
		domain.StatusPending,
		domain.StatusInProcess,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) MarkResolved(ctx context.Context, db *gorm.DB, externalPaymentID string, resolvedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET resolved_at = ?
		 WHERE external_payment_id = ? AND resolved_at IS NULL`,
		resolvedAt,
		externalPaymentID,
	).Error
}
