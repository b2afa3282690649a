package ingestion

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domain "brokle/internal/core/domain/ingestion"
	"brokle/pkg/ulid"
)

// jobExecutionModel is the GORM row shape for domain.JobExecution.
type jobExecutionModel struct {
	ID        ulid.ULID `gorm:"column:id;type:char(26);primaryKey"`
	ProjectID ulid.ULID `gorm:"column:project_id;type:char(26);index"`
	RuleID    ulid.ULID `gorm:"column:rule_id;type:char(26);index"`
	TraceID   string    `gorm:"column:trace_id;size:64;index"`
	Status    string    `gorm:"column:status;size:16"`
	Error     *string   `gorm:"column:error"`
	StartTime time.Time `gorm:"column:start_time"`
	EndTime   *time.Time `gorm:"column:end_time"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (jobExecutionModel) TableName() string { return "ingestion_job_executions" }

func toModel(j *domain.JobExecution) *jobExecutionModel {
	return &jobExecutionModel{
		ID:        j.ID,
		ProjectID: j.ProjectID,
		RuleID:    j.RuleID,
		TraceID:   j.TraceID,
		Status:    string(j.Status),
		Error:     j.Error,
		StartTime: j.StartTime,
		EndTime:   j.EndTime,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

func (m *jobExecutionModel) toDomain() *domain.JobExecution {
	return &domain.JobExecution{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		RuleID:    m.RuleID,
		TraceID:   m.TraceID,
		Status:    domain.JobExecutionStatus(m.Status),
		Error:     m.Error,
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// JobExecutionRepository implements domain/ingestion.JobExecutionRepository
// using GORM, scoped by project like every other write path in this
// pipeline (§4.8).
type JobExecutionRepository struct {
	db *gorm.DB
}

// NewJobExecutionRepository creates a new job execution repository instance.
func NewJobExecutionRepository(db *gorm.DB) *JobExecutionRepository {
	return &JobExecutionRepository{db: db}
}

// Create inserts a new job execution row.
func (r *JobExecutionRepository) Create(ctx context.Context, exec *domain.JobExecution) error {
	return r.db.WithContext(ctx).Create(toModel(exec)).Error
}

// UpdateTerminal applies a terminal-status transition, guarded so a
// completed execution can never be regressed to ERROR by a late,
// redelivered message (§4.8).
func (r *JobExecutionRepository) UpdateTerminal(ctx context.Context, exec *domain.JobExecution) error {
	result := r.db.WithContext(ctx).
		Model(&jobExecutionModel{}).
		Where("id = ? AND project_id = ? AND status = ?", exec.ID.String(), exec.ProjectID.String(), string(domain.JobExecutionPending)).
		Updates(map[string]interface{}{
			"status":     string(exec.Status),
			"error":      exec.Error,
			"end_time":   exec.EndTime,
			"updated_at": exec.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the row doesn't exist, or it already reached a terminal
		// state; GetByID tells the caller which.
		if _, err := r.GetByID(ctx, exec.ID, exec.ProjectID); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a job execution scoped to its project.
func (r *JobExecutionRepository) GetByID(ctx context.Context, id, projectID ulid.ULID) (*domain.JobExecution, error) {
	var model jobExecutionModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", id.String(), projectID.String()).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJobExecutionNotFound
		}
		return nil, err
	}
	return model.toDomain(), nil
}
