package ingestion

import (
	"context"

	domain "brokle/internal/core/domain/ingestion"
)

// auditRepository persists raw EventAudit rows; implemented by
// infrastructure/repository/ingestion.EventAuditRepository.
type auditRepository interface {
	Create(ctx context.Context, audit *domain.EventAudit) error
}

// auditSink implements domain/ingestion.EventAuditSink (§4.4 step 6): it
// persists the raw, NUL-scrubbed event before the typed processor runs, so
// a processing failure never loses the original payload.
type auditSink struct {
	repo auditRepository
}

// NewEventAuditSink builds an EventAuditSink backed by a Postgres
// repository.
func NewEventAuditSink(repo auditRepository) domain.EventAuditSink {
	return &auditSink{repo: repo}
}

// PersistRawEvent implements domain/ingestion.EventAuditSink.
func (s *auditSink) PersistRawEvent(ctx context.Context, audit *domain.EventAudit) error {
	return s.repo.Create(ctx, audit)
}
