// Package dispatch implements C5: a best-effort fan-out of successfully
// processed trace-upserts to a separate worker service over HTTP, grounded
// on this repo's plain net/http usage in internal/core/services/gateway's
// provider clients (no generic outbound-HTTP client library is present in
// the pack for this shape of fire-and-forget call).
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	domain "brokle/internal/core/domain/ingestion"
	"brokle/internal/telemetry"
	"brokle/pkg/ulid"
)

// Dispatcher implements domain/ingestion.Dispatcher.
type Dispatcher struct {
	workerHost     string
	workerPassword string
	enabled        bool
	client         *http.Client
	logger         *logrus.Logger
}

// New builds a Dispatcher. enabled mirrors config.IngestionConfig.DispatchEnabled():
// when false, DispatchTraceUpserts is a no-op, matching spec.md §4.5's
// "if WORKER_HOST and WORKER_PASSWORD are unset, no-op" rule.
func New(workerHost, workerPassword string, enabled bool, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		workerHost:     workerHost,
		workerPassword: workerPassword,
		enabled:        enabled,
		client:         &http.Client{Timeout: 5 * time.Second},
		logger:         logger,
	}
}

// DispatchTraceUpserts implements domain/ingestion.Dispatcher. It never
// returns an error: a failed POST to the worker service must not fail the
// ingestion request that triggered it (§4.5 "best-effort").
func (d *Dispatcher) DispatchTraceUpserts(ctx context.Context, projectID string, results []*domain.ProcessedResult) {
	if !d.enabled {
		return
	}

	pid, err := ulid.Parse(projectID)
	if err != nil {
		d.logger.WithError(err).Error("dispatch: invalid project id, skipping batch")
		return
	}

	notifications := make([]domain.TraceUpsertNotification, 0, len(results))
	for _, r := range results {
		if r == nil || r.EventType != domain.EventTypeTraceCreate || r.ID == "" {
			continue
		}
		notifications = append(notifications, domain.TraceUpsertNotification{
			TraceID:   r.ID,
			ProjectID: pid,
		})
	}
	if len(notifications) == 0 {
		return
	}

	if err := d.post(ctx, notifications); err != nil {
		telemetry.RecordIncrement("ingestion_dispatch_errors_total", 1, map[string]string{"project_id": projectID})
		d.logger.WithError(err).WithField("project_id", projectID).Error("dispatch: trace-upsert notification failed")
	}
}

func (d *Dispatcher) post(ctx context.Context, notifications []domain.TraceUpsertNotification) error {
	body, err := json.Marshal(notifications)
	if err != nil {
		return fmt.Errorf("marshal trace-upsert notifications: %w", err)
	}

	url := fmt.Sprintf("%s/api/events", d.workerHost)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("server", d.workerPassword)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("dispatch request returned status %d", resp.StatusCode)
	}
	return nil
}
