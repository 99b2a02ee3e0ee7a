package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Entry struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID            int64        `json:"user_id" gorm:"index"`
	UserName          string       `json:"user_name" gorm:"type:text"`
	UserRole          string       `json:"user_role" gorm:"type:text"`
	ActionType        string       `json:"action_type" gorm:"type:text;not null;index"`
	ActionDescription string       `json:"action_description" gorm:"type:text;not null"`
	EntityType        *string      `json:"entity_type,omitempty" gorm:"type:text"`
	EntityID          *int64       `json:"entity_id,omitempty"`
	EntityName        *string      `json:"entity_name,omitempty" gorm:"type:text"`
	IPAddress         *string      `json:"ip_address,omitempty" gorm:"type:text"`
	UserAgent         *string      `json:"user_agent,omitempty" gorm:"type:text"`
	CreatedAt         time.Time    `json:"created_at" gorm:"not null;index"`
}

func (Entry) TableName() string { return "activity_logs" }

// Record describes an action to append to the trail. Actor and transport
// fields left empty are resolved from the request context.
type Record struct {
	UserID            int64
	UserName          string
	UserRole          string
	ActionType        string
	ActionDescription string
	EntityType        string
	EntityID          int64
	EntityName        string
}

type ListFilter struct {
	UserID     int64
	ActionType string
	EntityType string
	StartAt    *time.Time
	EndAt      *time.Time
	Limit      int
}

// Service appends to and reads the audit trail. Record never returns an
// error to its caller path: a trail failure must not fail or roll back the
// action that triggered it.
type Service interface {
	Record(ctx context.Context, record Record)
	List(ctx context.Context, filter ListFilter) ([]Entry, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *Entry) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Entry, error)
}

var ErrInvalidAction = errors.New("invalid_action")
