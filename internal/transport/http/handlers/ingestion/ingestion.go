// Package ingestion implements the HTTP surface of C4: POST
// /api/public/ingestion, the batch-ingestion coordinator's entrypoint.
package ingestion

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	domain "brokle/internal/core/domain/ingestion"
	"brokle/internal/transport/http/middleware"
	"brokle/pkg/response"
)

// Handler serves the batch-ingestion endpoint, delegating the full
// parse-clean-persist-dispatch pipeline to a domain/ingestion.Coordinator.
type Handler struct {
	coordinator domain.Coordinator
	logger      *logrus.Logger
}

// NewHandler builds the ingestion HTTP handler.
func NewHandler(coordinator domain.Coordinator, logger *logrus.Logger) *Handler {
	return &Handler{coordinator: coordinator, logger: logger}
}

// batchRequest mirrors spec.md §3's batch envelope.
type batchRequest struct {
	Batch    []*domain.Event `json:"batch"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

// Ingest handles POST /api/public/ingestion (spec.md §6). Auth and the
// ingestion-resource rate-limit check (C2) run as middleware upstream;
// this handler only covers §4.4 steps 3-11: parse, validate/clean/persist
// per event, order, dispatch with retry, fan out, and respond 207.
func (h *Handler) Ingest(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, domain.MaxBatchBytes)

	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if err == io.EOF {
			response.BadRequest(c, "Invalid request data", "request body is empty")
			return
		}
		response.BadRequest(c, "Invalid request data", err.Error())
		return
	}

	if len(req.Batch) > domain.MaxBatchEvents {
		response.BadRequest(c, "Invalid request data", "batch exceeds maximum event count")
		return
	}

	scope, ok := middleware.GetIngestionScope(c)
	if !ok {
		response.Unauthorized(c, "authentication context missing")
		return
	}
	apiKey, ok := middleware.GetIngestionAPIKey(c)
	if !ok {
		response.Unauthorized(c, "authentication context missing")
		return
	}

	envelope := &domain.BatchEnvelope{Batch: req.Batch, Metadata: req.Metadata}

	result, err := h.coordinator.ProcessBatch(c.Request.Context(), scope, apiKey, envelope)
	if err != nil {
		h.logger.WithError(err).Error("ingestion: batch processing aborted")
		response.InternalServerError(c, "internal error")
		return
	}

	// §4.4 step 11 prescribes the literal {errors, successes} body shape
	// (not this codebase's generic {success, data, meta} envelope), since
	// SDKs parse per-item status directly off the top level.
	c.JSON(http.StatusMultiStatus, result)
}
