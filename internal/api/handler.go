package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/0xPuncker/jobcount-watcher/internal/cron"
	"github.com/0xPuncker/jobcount-watcher/internal/jobcount"
	"github.com/0xPuncker/jobcount-watcher/internal/repository"
	"github.com/0xPuncker/jobcount-watcher/internal/validator"
	"github.com/0xPuncker/jobcount-watcher/pkg/types"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	processor cron.Processor
	reader    repository.Reader
	scheduler *cron.Scheduler
	logger    logrus.FieldLogger
	envA      types.EnvironmentID
	envB      types.EnvironmentID
	limit     int64
	timeout   time.Duration
}

type JobCountResponse struct {
	Total        int64     `json:"total"`
	LicenseLimit int64     `json:"license_limit"`
	Remaining    int64     `json:"remaining"`
	RecordID     string    `json:"record_id,omitempty"`
	SavedAt      time.Time `json:"saved_at,omitzero"`
}

type HistoryResponse struct {
	LicenseLimit int64          `json:"license_limit"`
	Records      []types.Record `json:"records"`
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

func NewHandler(
	processor cron.Processor,
	reader repository.Reader,
	scheduler *cron.Scheduler,
	logger logrus.FieldLogger,
	envA, envB types.EnvironmentID,
	limit int64,
) *Handler {
	return &Handler{
		processor: processor,
		reader:    reader,
		scheduler: scheduler,
		logger:    logger,
		envA:      envA,
		envB:      envB,
		limit:     limit,
		timeout:   30 * time.Second,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *Handler) GetLatest(w http.ResponseWriter, r *http.Request) {
	record, ok, err := h.reader.Latest(r.Context())
	if err != nil {
		h.handleError(w, err, http.StatusInternalServerError)
		return
	}
	if !ok {
		h.handleError(w, errors.New("no job count has been recorded yet"), http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, JobCountResponse{
		Total:        record.Total,
		LicenseLimit: h.limit,
		Remaining:    h.limit - record.Total,
		RecordID:     record.ID,
		SavedAt:      record.SavedAt,
	})
}

// GetHistory lists saved totals newest first. ?limit=N caps the list.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, ok := h.reader.(repository.HistoryReader)
	if !ok {
		h.handleError(w, errors.New("the configured repository keeps no history"), http.StatusNotImplemented)
		return
	}

	limit := int64(defaultHistoryLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > maxHistoryLimit {
			h.handleError(w, fmt.Errorf("limit must be between 1 and %d", maxHistoryLimit), http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := history.History(r.Context(), limit)
	if err != nil {
		h.handleError(w, err, http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []types.Record{}
	}

	h.writeJSON(w, http.StatusOK, HistoryResponse{
		LicenseLimit: h.limit,
		Records:      records,
	})
}

// RunNow processes the configured environments immediately.
func (h *Handler) RunNow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	total, err := h.processor.ProcessJobCount(ctx, h.envA, h.envB)
	if err != nil {
		h.handleError(w, err, statusFor(err))
		return
	}

	h.writeJSON(w, http.StatusOK, JobCountResponse{
		Total:        total,
		LicenseLimit: h.limit,
		Remaining:    h.limit - total,
	})
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := []cron.JobInfo{}
	if h.scheduler != nil {
		jobs = h.scheduler.Jobs()
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":    jobs,
		"running": h.scheduler != nil && h.scheduler.Running(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, jobcount.ErrMissingData), errors.Is(err, validator.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, jobcount.ErrLicenseExceeded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) handleError(w http.ResponseWriter, err error, code int) {
	if code >= http.StatusInternalServerError {
		h.logger.Error(err)
	} else {
		h.logger.Debug(err)
	}
	h.writeJSON(w, code, map[string]string{
		"error": err.Error(),
	})
}
