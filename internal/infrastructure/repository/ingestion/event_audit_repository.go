// Package ingestion provides Postgres-backed repositories for the
// batch-ingestion pipeline's relational state: raw event audits and
// evaluation job executions.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	domain "brokle/internal/core/domain/ingestion"
	"brokle/pkg/ulid"
)

// eventAuditModel is the GORM row shape for domain.EventAudit; Body is
// stored as JSON text since its shape varies per event type.
type eventAuditModel struct {
	ID         ulid.ULID `gorm:"column:id;type:char(26);primaryKey"`
	EventID    string    `gorm:"column:event_id;size:255;index"`
	ProjectID  ulid.ULID `gorm:"column:project_id;type:char(26);index"`
	Type       string    `gorm:"column:event_type;size:64"`
	Body       string    `gorm:"column:body;type:jsonb"`
	RecordedAt time.Time `gorm:"column:recorded_at"`
}

func (eventAuditModel) TableName() string { return "ingestion_event_audits" }

// EventAuditRepository persists raw ingestion events for audit/replay.
type EventAuditRepository struct {
	db *gorm.DB
}

// NewEventAuditRepository creates a new event audit repository instance.
func NewEventAuditRepository(db *gorm.DB) *EventAuditRepository {
	return &EventAuditRepository{db: db}
}

// Create inserts a raw event audit row.
func (r *EventAuditRepository) Create(ctx context.Context, audit *domain.EventAudit) error {
	bodyJSON, err := json.Marshal(audit.Body)
	if err != nil {
		return fmt.Errorf("marshal event audit body: %w", err)
	}

	model := eventAuditModel{
		ID:         ulid.New(),
		EventID:    audit.EventID,
		ProjectID:  audit.ProjectID,
		Type:       string(audit.Type),
		Body:       string(bodyJSON),
		RecordedAt: audit.RecordedAt,
	}

	return r.db.WithContext(ctx).Create(&model).Error
}
