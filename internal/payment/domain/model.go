package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Status is the normalized payment status. Everything except pending and
// in_process is terminal: once recorded it is never overwritten.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusInProcess Status = "in_process"
	StatusRefunded  Status = "refunded"
	StatusCancelled Status = "cancelled"
)

func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusRefunded, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusInProcess, StatusRefunded, StatusCancelled:
		return true
	default:
		return false
	}
}

// PaymentRecord is the durable trace of one gateway payment. ResolvedAt is
// set only after the domain effects of a terminal status have been applied,
// so an interrupted delivery can be completed by the gateway's redelivery.
type PaymentRecord struct {
	ID                snowflake.ID   `json:"id" gorm:"primaryKey"`
	ExternalPaymentID string         `json:"external_payment_id" gorm:"type:text;not null;uniqueIndex"`
	ExternalReference string         `json:"external_reference" gorm:"type:text;not null"`
	Amount            int64          `json:"amount" gorm:"not null"`
	Currency          string         `json:"currency" gorm:"type:char(3);not null"`
	Status            Status         `json:"status" gorm:"type:text;not null"`
	RawPayload        datatypes.JSON `json:"raw_payload" gorm:"type:jsonb"`
	CreatedAt         time.Time      `json:"created_at" gorm:"not null"`
	ResolvedAt        *time.Time     `json:"resolved_at,omitempty"`
}

func (PaymentRecord) TableName() string { return "payments" }

// WebhookEvent is the body the gateway posts: {"type": ..., "data": {"id": ...}}.
// Only the payment id is trusted; the authoritative status is always fetched
// back from the gateway.
type WebhookEvent struct {
	Type string      `json:"type"`
	Data WebhookData `json:"data"`
}

type WebhookData struct {
	ID string `json:"id"`
}

const EventTypePayment = "payment"

// GatewayPayment is the normalized result of a payment-status lookup.
type GatewayPayment struct {
	ExternalPaymentID string
	Status            Status
	Amount            int64
	Currency          string
	ExternalReference string
	ApprovedAt        *time.Time
	RawPayload        []byte
}

// CheckoutPreference describes the purchase a checkout is created for.
type CheckoutPreference struct {
	Title             string
	Amount            int64
	Currency          string
	ExternalReference string
}

// PaymentIntentHandle is returned to the caller initiating a purchase.
type PaymentIntentHandle struct {
	CheckoutURL       string `json:"checkout_url"`
	ExternalReference string `json:"external_reference"`
}

// Gateway is the boundary around the external processor. Calls are single
// attempt with a bounded timeout; retry policy belongs to the caller.
type Gateway interface {
	CreatePreference(ctx context.Context, pref CheckoutPreference) (*PaymentIntentHandle, error)
	GetPayment(ctx context.Context, externalPaymentID string) (*GatewayPayment, error)
}

// Outcome classifies how a webhook delivery was absorbed.
type Outcome string

const (
	OutcomeIgnored     Outcome = "ignored"
	OutcomeNotFound    Outcome = "payment_not_found"
	OutcomeMalformed   Outcome = "malformed_reference"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeConflict    Outcome = "conflict"
	OutcomeApplied     Outcome = "applied"
	OutcomeUnsupported Outcome = "unsupported_intent"
)

type Service interface {
	// HandleWebhook classifies and applies one webhook delivery. A nil error
	// means the event was durably classified and the delivery must be acked;
	// a non-nil error means redelivery is useful (gateway or storage outage).
	HandleWebhook(ctx context.Context, event WebhookEvent) (Outcome, error)
	CreateCheckout(ctx context.Context, courseID snowflake.ID, userID int64) (*PaymentIntentHandle, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *PaymentRecord) (bool, error)
	Find(ctx context.Context, db *gorm.DB, externalPaymentID string) (*PaymentRecord, error)
	// TransitionStatus moves a non-terminal record to the given status. The
	// guarded update returns false when another delivery already moved it.
	TransitionStatus(ctx context.Context, db *gorm.DB, externalPaymentID string, to Status) (bool, error)
	MarkResolved(ctx context.Context, db *gorm.DB, externalPaymentID string, resolvedAt time.Time) error
}

var (
	ErrGatewayUnavailable     = errors.New("gateway_unavailable")
	ErrPaymentNotFound        = errors.New("payment_not_found")
	ErrReconciliationConflict = errors.New("reconciliation_conflict")
	ErrInvalidEvent           = errors.New("invalid_event")
	ErrInvalidCheckout        = errors.New("invalid_checkout")
)
