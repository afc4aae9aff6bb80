package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/handler/dto"
	"github.com/taskvault/taskvault/internal/service"
)

// TodoHandler handles HTTP requests for todo operations.
type TodoHandler struct {
	svc    *service.TodoService
	logger *slog.Logger
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(svc *service.TodoService, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	todos, err := h.svc.List(r.Context(), auth.AuthFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTodoListResponse(todos))
}

// Get handles GET /todo/{id}.
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}

	todo, err := h.svc.Get(r.Context(), auth.AuthFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTodoResponse(todo))
}

// Create handles POST /todo/.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.TodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	todo, err := h.svc.Create(r.Context(), auth.AuthFromContext(r.Context()), service.TodoInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Completed:   req.Completed,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("todo_created",
		"todo_id", todo.ID,
		"owner_id", todo.OwnerID,
	)

	writeJSON(w, http.StatusCreated, dto.ToTodoResponse(todo))
}

// Update handles PUT /todo/{id}.
// Full replacement: every mutable field takes the request value.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}

	var req dto.TodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	todo, err := h.svc.Update(r.Context(), auth.AuthFromContext(r.Context()), id, service.TodoInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Completed:   req.Completed,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("todo_updated", "todo_id", todo.ID)

	writeJSON(w, http.StatusOK, dto.ToTodoResponse(todo))
}

// Delete handles DELETE /todo/{id}.
// Returns the deleted record.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}

	todo, err := h.svc.Delete(r.Context(), auth.AuthFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("todo_deleted", "todo_id", todo.ID)

	writeJSON(w, http.StatusOK, dto.ToTodoResponse(todo))
}

// todoID parses the {id} URL parameter. Writes a 400 response and returns
// false when the parameter is not a positive integer.
func todoID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Todo ID must be a positive integer")
		return 0, false
	}
	return id, true
}
