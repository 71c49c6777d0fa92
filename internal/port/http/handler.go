package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/subscription"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/usecase"
	"go.uber.org/zap"
)

// HandoffStore passes short-lived scalars between screens.
type HandoffStore interface {
	Put(ctx context.Context, ownerID, key, value string) error
	Take(ctx context.Context, ownerID, key string) (string, error)
}

// ImageUploader stores an image and returns its imageRef.
type ImageUploader interface {
	Upload(ctx context.Context, ownerID, fileName string, r io.Reader, size int64) (string, error)
}

// Handler serves the class-service HTTP surface. Handoff and Images may be
// nil; their routes then answer 503.
type Handler struct {
	Listings   *usecase.ListingUsecase
	Aggregates *usecase.AggregateUsecase
	Posts      *usecase.PostUsecase
	Reconciler *usecase.ReconcileUsecase
	Streams    *subscription.Manager
	Handoff    HandoffStore
	Images     ImageUploader

	MaxUploadBytes int64
	logger         *logger.Logger
}

func NewHandler(h Handler, log *logger.Logger) *Handler {
	h.logger = log.Named("ClassHTTPHandler")
	if h.MaxUploadBytes <= 0 {
		h.MaxUploadBytes = 10 << 20
	}
	return &h
}

type errorResponse struct {
	Error     string   `json:"error"`
	Retryable bool     `json:"retryable"`
	Step      string   `json:"step,omitempty"`
	Completed []string `json:"completed,omitempty"`
	Fields    []string `json:"fields,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &entity.ValidationError{Reason: "invalid request body: " + err.Error()}
	}
	return nil
}

// statusFor maps a usecase error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrValidation), errors.Is(err, store.ErrInvalidPath), errors.Is(err, store.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidTransition), errors.Is(err, entity.ErrNoSeats):
		return http.StatusConflict
	case entity.IsPermissionDenied(err):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrPartialReplication):
		return http.StatusBadGateway
	case store.IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) handleError(w http.ResponseWriter, err error, msg string) {
	code := statusFor(err)
	resp := errorResponse{Error: err.Error(), Retryable: entity.IsRetryable(err)}

	var repl *entity.ReplicationError
	if errors.As(err, &repl) {
		resp.Step = repl.Step
		resp.Completed = repl.Completed
	}
	var verr *entity.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}

	if code >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Int("http_status", code), zap.Bool("retryable", resp.Retryable), zap.Error(err))
	} else {
		h.logger.Warn(msg, zap.Int("http_status", code), zap.Error(err))
	}
	respondWithJSON(w, code, resp)
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"active_streams": h.activeStreams(),
	})
}

func (h *Handler) activeStreams() int {
	if h.Streams == nil {
		return 0
	}
	return h.Streams.Active()
}
