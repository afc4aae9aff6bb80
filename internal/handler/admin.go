package handler

import (
	"log/slog"
	"net/http"

	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/handler/dto"
	"github.com/taskvault/taskvault/internal/service"
)

// AdminHandler handles the role-gated administrative endpoints.
// Routes using it must sit behind the Auth and RequireAdmin middleware.
type AdminHandler struct {
	svc    *service.TodoService
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *service.TodoService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		svc:    svc,
		logger: logger,
	}
}

// ListAll handles GET /admin/todo.
// Returns every todo in the store regardless of owner.
func (h *AdminHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	todos, err := h.svc.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTodoListResponse(todos))
}

// Delete handles DELETE /admin/todo/{id}.
// Admins may delete any todo; ownership is not checked.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}

	todo, err := h.svc.Delete(r.Context(), auth.AuthFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("todo_deleted_by_admin",
		"todo_id", todo.ID,
		"owner_id", todo.OwnerID,
	)

	writeJSON(w, http.StatusOK, dto.ToTodoResponse(todo))
}
