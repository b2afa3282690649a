package ingestion

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	domain "brokle/internal/core/domain/ingestion"
	"brokle/pkg/queue"
	"brokle/pkg/response"
)

// EventsHandler serves the worker-side receiving end of C5's dispatch: the
// trace-upsert notifications a Coordinator POSTs to ${WORKER_HOST}/api/events
// land here and are turned into TraceUpsertJobs on C6's queue (spec.md
// §4.5's "the receiving worker enqueues a trace-upsert job per item").
type EventsHandler struct {
	queue          queue.Queue
	workerPassword string
	logger         *logrus.Logger
}

// NewEventsHandler builds the /api/events receiving handler. workerPassword
// must match the Basic-auth password the dispatcher was configured with.
func NewEventsHandler(q queue.Queue, workerPassword string, logger *logrus.Logger) *EventsHandler {
	return &EventsHandler{queue: q, workerPassword: workerPassword, logger: logger}
}

// ReceiveTraceUpserts handles POST /api/events.
func (h *EventsHandler) ReceiveTraceUpserts(c *gin.Context) {
	username, password, ok := c.Request.BasicAuth()
	if !ok || subtle.ConstantTimeCompare([]byte(username), []byte("server")) != 1 ||
		subtle.ConstantTimeCompare([]byte(password), []byte(h.workerPassword)) != 1 {
		response.Unauthorized(c, "invalid worker credentials")
		return
	}

	var notifications []domain.TraceUpsertNotification
	if err := c.ShouldBindJSON(&notifications); err != nil {
		response.BadRequest(c, "Invalid request data", err.Error())
		return
	}

	for _, n := range notifications {
		job := domain.TraceUpsertJob{TraceID: n.TraceID, ProjectID: n.ProjectID}
		payload, err := json.Marshal(job)
		if err != nil {
			h.logger.WithError(err).Error("events: failed to encode trace-upsert job")
			continue
		}
		if _, err := h.queue.Enqueue(c.Request.Context(), payload); err != nil {
			h.logger.WithError(err).WithField("trace_id", n.TraceID).Error("events: failed to enqueue trace-upsert job")
		}
	}

	c.Status(http.StatusNoContent)
}
