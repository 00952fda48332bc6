package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/menuforge/v1/internal/application/tasks"
	"github.com/menuforge/v1/internal/domain/plan"
	"github.com/menuforge/v1/internal/ports/inbound"
)

// TaskAPIHandlers handles the task-queue flavored entry point used by
// the delegation UI.
type TaskAPIHandlers struct {
	tasks    inbound.TaskService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewTaskAPIHandlers creates the task API handlers.
func NewTaskAPIHandlers(tasks inbound.TaskService, logger *zap.Logger) *TaskAPIHandlers {
	return &TaskAPIHandlers{
		tasks:    tasks,
		validate: validator.New(),
		logger:   logger,
	}
}

type createTaskRequest struct {
	Type     string               `json:"type" validate:"required"`
	Title    string               `json:"title"`
	Priority string               `json:"priority"`
	Metadata inbound.TaskMetadata `json:"metadata"`
}

// CreateTask handles POST /tasks.
func (h *TaskAPIHandlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), inbound.CreateTaskCommand{
		Type:     req.Type,
		Title:    req.Title,
		Priority: req.Priority,
		Metadata: req.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, tasks.ErrUnsupportedType),
			errors.Is(err, tasks.ErrInvalidMetadata),
			plan.IsInvalidRequest(err):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to create task", zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, task)
}

// ListTasks handles GET /tasks.
func (h *TaskAPIHandlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := h.tasks.ListTasks(r.Context())
	if err != nil {
		h.logger.Error("Failed to list tasks", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": list})
}

// GetTask handles GET /tasks/{taskID}.
func (h *TaskAPIHandlers) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	task, err := h.tasks.GetTask(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, tasks.ErrTaskNotFound) {
			h.writeError(w, http.StatusNotFound, "task not found")
			return
		}
		h.logger.Error("Failed to read task",
			zap.String("task_id", taskID),
			zap.Error(err),
		)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, task)
}

func (h *TaskAPIHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

func (h *TaskAPIHandlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg, "detail": msg})
}
