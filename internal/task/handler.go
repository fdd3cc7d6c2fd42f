package task

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/task-mgmt/task-api/internal/dto"
)

type Handler struct {
	service TaskService
	db      *gorm.DB
	mux     *http.ServeMux
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

var _ http.Handler = &Handler{}

func NewHandler(service TaskService, db *gorm.DB) *Handler {
	h := &Handler{
		service: service,
		db:      db,
		mux:     http.NewServeMux(),
	}

	h.mux.Handle("POST /tasks", http.HandlerFunc(h.createTask))
	h.mux.Handle("POST /tasks/{$}", http.HandlerFunc(h.createTask))
	h.mux.Handle("GET /tasks", http.HandlerFunc(h.listTasks))
	h.mux.Handle("GET /tasks/{$}", http.HandlerFunc(h.listTasks))
	h.mux.Handle("GET /tasks/{id}", http.HandlerFunc(h.getTask))
	h.mux.Handle("PUT /tasks/{id}", http.HandlerFunc(h.updateTask))
	h.mux.Handle("DELETE /tasks/{id}", http.HandlerFunc(h.deleteTask))
	h.mux.Handle("GET /health", http.HandlerFunc(h.health))

	return h
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	t, err := h.service.CreateTask(r.Context(), req.Name, req.Description)
	if err != nil {
		h.writeServiceError(w, r, err, "could not create task")
		return
	}

	writeJSON(w, http.StatusCreated, toTaskResponse(t))
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTaskID(w, r)
	if !ok {
		return
	}

	t, err := h.service.GetTask(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "could not get task")
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var statusFilter *string
	if raw := query.Get("status"); raw != "" {
		statusFilter = &raw
	}

	offset, err := queryInt(query.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "offset: must be an integer")
		return
	}

	limit, err := queryInt(query.Get("limit"), DefaultLimit)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "limit: must be an integer")
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), statusFilter, offset, limit)
	if err != nil {
		h.writeServiceError(w, r, err, "could not list tasks")
		return
	}

	resp := make([]dto.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, toTaskResponse(t))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTaskID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	t, err := h.service.UpdateTask(r.Context(), id, req.Name, req.Description, req.Status)
	if err != nil {
		h.writeServiceError(w, r, err, "could not update task")
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTaskID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, "could not delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	resp := dto.HealthResponse{
		Status:    "healthy",
		Database:  "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "database ping failed", slog.Any("error", err))
		resp.Status = "unhealthy"
		resp.Database = "unavailable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeServiceError maps the service error taxonomy onto HTTP status codes.
// Anything outside the taxonomy is a 500 with no internal detail exposed.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, ve.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, ErrNotFound.Error())
	default:
		slog.ErrorContext(r.Context(), logMsg, slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func pathTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "id: must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(raw string, defaultValue int) (int, error) {
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return value, nil
}

func toTaskResponse(t Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339Nano),
	}
}
