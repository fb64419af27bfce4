package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hireview/hireview/internal/assessment"
)

const maxRequestBodySize = 1 << 20 // 1 MiB

// AssessmentRunner executes the full pipeline for one request.
type AssessmentRunner interface {
	Run(ctx context.Context, items []assessment.Item) *assessment.Result
}

// Handler serves the assessment endpoint.
type Handler struct {
	runner AssessmentRunner
	logger *zap.Logger
	now    func() time.Time

	// overallTimeout bounds a whole request. When it expires the runner
	// finalizes with whatever items completed instead of dropping the
	// response, so it is applied to the context rather than the handler.
	overallTimeout time.Duration
}

func NewHandler(runner AssessmentRunner, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		runner: runner,
		logger: logger,
		now:    time.Now,
	}
}

// HandleAssess serves POST /v1/assessments. Structural request problems fail
// the whole call; once item processing starts the response is always
// success=true, with per-item failures reported inside the payload.
func (h *Handler) HandleAssess(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer body.Close()

	items, err := DecodeRequest(body)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, &assessResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	h.logger.Info("assessment request accepted", zap.Int("items", len(items)))

	ctx := r.Context()
	if h.overallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.overallTimeout)
		defer cancel()
	}

	result := h.runner.Run(ctx, items)

	h.writeJSON(w, http.StatusOK, buildResponse(result, h.now()))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn("writing response", zap.Error(err))
	}
}
