package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"echelon-backend/internal/middleware"
	"echelon-backend/internal/models"
	"echelon-backend/internal/services"
)

type taskRepository interface {
	List(ctx context.Context, ownerID uuid.UUID, filter, sortBy string) ([]*models.Task, error)
	Counts(ctx context.Context, ownerID uuid.UUID) (completed, pending int, err error)
	Create(ctx context.Context, t *models.Task) error
	Update(ctx context.Context, t *models.Task) error
	Toggle(ctx context.Context, id, ownerID uuid.UUID) (*models.Task, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}

type TaskHandler struct {
	repo     taskRepository
	validate *validator.Validate
}

func NewTaskHandler(repo taskRepository) *TaskHandler {
	return &TaskHandler{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

var (
	taskFilters = map[string]bool{"": true, "all": true, models.TaskStatusPending: true, models.TaskStatusCompleted: true}
	taskSorts   = map[string]bool{"": true, "due_date": true, "priority": true, "created": true}
)

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	filter := r.URL.Query().Get("filter")
	sortBy := r.URL.Query().Get("sort")

	fields := map[string]string{}
	if !taskFilters[filter] {
		fields["filter"] = "Filter must be one of all, pending, completed"
	}
	if !taskSorts[sortBy] {
		fields["sort"] = "Sort must be one of due_date, priority, created"
	}
	if len(fields) > 0 {
		handleServiceError(w, r, &services.ValidationError{Fields: fields})
		return
	}

	tasks, err := h.repo.List(r.Context(), userID, filter, sortBy)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	completed, pending, err := h.repo.Counts(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.TaskList{Tasks: tasks, CompletedCount: completed, PendingCount: pending})
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	task, ok := h.decodeTask(w, r)
	if !ok {
		return
	}
	task.UserID = middleware.GetUserID(r.Context())
	task.Status = models.TaskStatusPending

	if err := h.repo.Create(r.Context(), task); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}
	task, ok := h.decodeTask(w, r)
	if !ok {
		return
	}
	task.ID = id
	task.UserID = middleware.GetUserID(r.Context())

	if err := h.repo.Update(r.Context(), task); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}

	task, err := h.repo.Toggle(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task ID", r))
		return
	}

	if err := h.repo.Delete(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}

// decodeTask parses and validates a task body, writing the error response
// itself when the body is unusable.
func (h *TaskHandler) decodeTask(w http.ResponseWriter, r *http.Request) (*models.Task, bool) {
	var req models.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return nil, false
	}
	req.Title = strings.TrimSpace(req.Title)

	if err := h.validate.Struct(req); err != nil {
		handleServiceError(w, r, &services.ValidationError{Fields: taskFieldErrors(err)})
		return nil, false
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	}
	if task.Priority == "" {
		task.Priority = "medium"
	}
	if req.DueDate != "" {
		due, _ := time.Parse(time.DateOnly, req.DueDate)
		task.DueDate = &due
	}
	return task, true
}

func taskFieldErrors(err error) map[string]string {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["body"] = err.Error()
		return fields
	}
	for _, fe := range verrs {
		var msg string
		switch fe.Field() {
		case "Title":
			msg = "Title is required and must be at most 200 characters"
		case "Description":
			msg = "Description must be at most 2000 characters"
		case "Priority":
			msg = "Priority must be one of low, medium, high"
		case "DueDate":
			msg = "Due date must be YYYY-MM-DD"
		default:
			msg = "Invalid value"
		}
		fields[jsonFieldName(fe.Field())] = msg
	}
	return fields
}

func jsonFieldName(field string) string {
	if field == "DueDate" {
		return "due_date"
	}
	return strings.ToLower(field)
}
