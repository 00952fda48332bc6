// Package handlers provides HTTP handlers for the plan generation API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/menuforge/v1/internal/domain/job"
	"github.com/menuforge/v1/internal/domain/plan"
	"github.com/menuforge/v1/internal/ports/inbound"
)

// PlanAPIHandlers handles the job lifecycle endpoints the dashboard
// polls against.
type PlanAPIHandlers struct {
	planner  inbound.PlannerService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewPlanAPIHandlers creates the plan API handlers.
func NewPlanAPIHandlers(planner inbound.PlannerService, logger *zap.Logger) *PlanAPIHandlers {
	return &PlanAPIHandlers{
		planner:  planner,
		validate: validator.New(),
		logger:   logger,
	}
}

// startPlanRequest is the wire shape of a generation request.
type startPlanRequest struct {
	StartDate string  `json:"fecha_inicio" validate:"required,datetime=2006-01-02"`
	EndDate   string  `json:"fecha_fin" validate:"required,datetime=2006-01-02"`
	ClientIDs []int64 `json:"clientes" validate:"required,min=1"`
}

// jobStatusResponse is the polling contract.
type jobStatusResponse struct {
	Status          job.Status     `json:"status"`
	Progress        string         `json:"progress"`
	ProgressPercent int            `json:"progress_percentage"`
	Result          *plan.Document `json:"result,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// StartWeeklyPlanGeneration handles POST /start-weekly-plan-generation.
// Acceptance does not imply completion: a 202 only means the job id is
// pollable.
func (h *PlanAPIHandlers) StartWeeklyPlanGeneration(w http.ResponseWriter, r *http.Request) {
	var req startPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)

	jobID, err := h.planner.StartWeeklyPlan(r.Context(), inbound.StartPlanCommand{
		StartDate: start,
		EndDate:   end,
		ClientIDs: req.ClientIDs,
	})
	if err != nil {
		if plan.IsInvalidRequest(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to start generation job", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

// JobStatus handles GET /job-status/{jobID}.
func (h *PlanAPIHandlers) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	rec, err := h.planner.JobStatus(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		h.logger.Error("Failed to read job status",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, jobStatusResponse{
		Status:          rec.Status,
		Progress:        rec.Progress,
		ProgressPercent: rec.ProgressPercent,
		Result:          rec.Result,
		Error:           rec.Error,
	})
}

// DeleteJob handles DELETE /job/{jobID}. Deleting twice produces the
// same observable outcome as deleting once.
func (h *PlanAPIHandlers) DeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	if err := h.planner.CancelJob(r.Context(), jobID); err != nil {
		h.logger.Error("Failed to release job",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeJSON writes a JSON response.
func (h *PlanAPIHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// writeError writes an error payload in the shape the dashboard reads.
func (h *PlanAPIHandlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg, "detail": msg})
}
